package descriptor

import (
	"unsafe"

	"trpc-thrift-go/wire"
)

// List builds a descriptor for a Thrift list of elem, stored as a Go
// []T at the field's address. The element-type byte on the wire is read
// and discarded: the receiver already knows the expected type from its
// own descriptor.
func List[T any](elem *Descriptor) *Descriptor {
	return &Descriptor{
		DataType: wire.TypeList,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			if _, err := in.ReadI08(); err != nil {
				return err
			}
			size, err := in.ReadI32()
			if err != nil {
				return err
			}
			out := make([]T, 0, clampSize(size))
			for i := int32(0); i < size; i++ {
				var v T
				if err := elem.read(in, unsafe.Pointer(&v)); err != nil {
					return err
				}
				out = append(out, v)
			}
			*(*[]T)(ptr) = out
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			slice := *(*[]T)(ptr)
			var total uint32
			n, err := out.WriteI08(int8(elem.DataType))
			total += n
			if err != nil {
				return total, err
			}
			n, err = out.WriteI32(int32(len(slice)))
			total += n
			if err != nil {
				return total, err
			}
			for i := range slice {
				n, err = elem.write(unsafe.Pointer(&slice[i]), out)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		},
	}
}

// Set builds a descriptor for a Thrift set of elem, stored as a Go
// map[T]struct{} — the idiomatic Go representation of insertion-with-
// dedup semantics. Element order on the wire is therefore not stable
// across re-encodes, which Thrift's set semantics never promised anyway.
func Set[T comparable](elem *Descriptor) *Descriptor {
	return &Descriptor{
		DataType: wire.TypeSet,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			if _, err := in.ReadI08(); err != nil {
				return err
			}
			size, err := in.ReadI32()
			if err != nil {
				return err
			}
			out := make(map[T]struct{}, clampSize(size))
			for i := int32(0); i < size; i++ {
				var v T
				if err := elem.read(in, unsafe.Pointer(&v)); err != nil {
					return err
				}
				out[v] = struct{}{}
			}
			*(*map[T]struct{})(ptr) = out
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			set := *(*map[T]struct{})(ptr)
			var total uint32
			n, err := out.WriteI08(int8(elem.DataType))
			total += n
			if err != nil {
				return total, err
			}
			n, err = out.WriteI32(int32(len(set)))
			total += n
			if err != nil {
				return total, err
			}
			for k := range set {
				k := k
				n, err = elem.write(unsafe.Pointer(&k), out)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		},
	}
}

// Map builds a descriptor for a Thrift map of key to val, stored as a Go
// map[K]V.
func Map[K comparable, V any](key, val *Descriptor) *Descriptor {
	return &Descriptor{
		DataType: wire.TypeMap,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			if _, err := in.ReadI08(); err != nil {
				return err
			}
			if _, err := in.ReadI08(); err != nil {
				return err
			}
			size, err := in.ReadI32()
			if err != nil {
				return err
			}
			out := make(map[K]V, clampSize(size))
			for i := int32(0); i < size; i++ {
				var k K
				var v V
				if err := key.read(in, unsafe.Pointer(&k)); err != nil {
					return err
				}
				if err := val.read(in, unsafe.Pointer(&v)); err != nil {
					return err
				}
				out[k] = v
			}
			*(*map[K]V)(ptr) = out
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			m := *(*map[K]V)(ptr)
			var total uint32
			n, err := out.WriteI08(int8(key.DataType))
			total += n
			if err != nil {
				return total, err
			}
			n, err = out.WriteI08(int8(val.DataType))
			total += n
			if err != nil {
				return total, err
			}
			n, err = out.WriteI32(int32(len(m)))
			total += n
			if err != nil {
				return total, err
			}
			for k, v := range m {
				k, v := k, v
				n, err = key.write(unsafe.Pointer(&k), out)
				total += n
				if err != nil {
					return total, err
				}
				n, err = val.write(unsafe.Pointer(&v), out)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		},
	}
}

// clampSize guards against a corrupt/hostile size prefix forcing a huge
// up-front allocation via make()'s capacity argument.
func clampSize(n int32) int32 {
	const sizeHint = 4096
	if n < 0 || n > sizeHint {
		return 0
	}
	return n
}
