// Package descriptor implements the type-descriptor registry (per-type
// singleton {wire type, reader, writer} triples) and the struct element
// table that drives generic, reflection-free encode/decode of IDL structs
// by offset.
//
// A Descriptor never knows about any particular Go type at the call site:
// it operates purely on an unsafe.Pointer to where a value of its kind
// lives, so the inner encode/decode loop is a plain indirect call with no
// package-reflect dispatch on the hot path.
package descriptor

import (
	"sync"
	"unsafe"

	"trpc-thrift-go/wire"
)

// Requiredness mirrors a Thrift IDL field's required/optional/default
// declaration.
type Requiredness int8

const (
	Required Requiredness = 0
	Optional Requiredness = 1
	Default  Requiredness = 2
)

// Descriptor is the per-type singleton: how to read one value of this
// type off a wire.Buffer into a field, and how to write one back out.
type Descriptor struct {
	DataType wire.Type
	read     func(in *wire.Buffer, ptr unsafe.Pointer) error
	write    func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error)
}

// Read decodes one value of d's type from in into the memory at ptr.
func (d *Descriptor) Read(in *wire.Buffer, ptr unsafe.Pointer) error {
	return d.read(in, ptr)
}

// Write encodes the value at ptr to out, returning the bytes written.
func (d *Descriptor) Write(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
	return d.write(ptr, out)
}

// StructElement is one row of a struct's element table: which descriptor
// decodes the field, where its data and isset flag live (as byte offsets
// from the struct's base address), its wire field id, and its
// requiredness. Element tables must be held in ascending FieldID order —
// the struct descriptor's read loop assumes it and walks forward only.
type StructElement struct {
	Desc        *Descriptor
	Name        string
	IssetOffset uintptr
	DataOffset  uintptr
	FieldID     int16
	Required    Requiredness
}

// IDLMessage is implemented by every generated struct: it exposes its own
// descriptor so the serializer can encode/decode it without type-specific
// code.
type IDLMessage interface {
	ThriftDescriptor() *Descriptor
}

func offset(ptr unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(ptr) + off)
}

func memoized(build func() *Descriptor) func() *Descriptor {
	once := sync.OnceValue(build)
	return once
}

var boolDesc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeBool,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadBool()
			if err != nil {
				return err
			}
			*(*bool)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteBool(*(*bool)(ptr))
		},
	}
})

// Bool returns the singleton descriptor for the Thrift bool type.
func Bool() *Descriptor { return boolDesc() }

var i08Desc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeI08,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadI08()
			if err != nil {
				return err
			}
			*(*int8)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteI08(*(*int8)(ptr))
		},
	}
})

// I08 returns the singleton descriptor for the Thrift byte/i08 type.
func I08() *Descriptor { return i08Desc() }

var i16Desc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeI16,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadI16()
			if err != nil {
				return err
			}
			*(*int16)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteI16(*(*int16)(ptr))
		},
	}
})

// I16 returns the singleton descriptor for the Thrift i16 type.
func I16() *Descriptor { return i16Desc() }

var i32Desc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeI32,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadI32()
			if err != nil {
				return err
			}
			*(*int32)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteI32(*(*int32)(ptr))
		},
	}
})

// I32 returns the singleton descriptor for the Thrift i32 type.
func I32() *Descriptor { return i32Desc() }

var i64Desc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeI64,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadI64()
			if err != nil {
				return err
			}
			*(*int64)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteI64(*(*int64)(ptr))
		},
	}
})

// I64 returns the singleton descriptor for the Thrift i64 type.
func I64() *Descriptor { return i64Desc() }

var u64Desc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeU64,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadU64()
			if err != nil {
				return err
			}
			*(*uint64)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteU64(*(*uint64)(ptr))
		},
	}
})

// U64 returns the singleton descriptor for the Thrift u64 type.
func U64() *Descriptor { return u64Desc() }

var doubleDesc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeDouble,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadDouble()
			if err != nil {
				return err
			}
			*(*float64)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteDouble(*(*float64)(ptr))
		},
	}
})

// Double returns the singleton descriptor for the Thrift double type.
func Double() *Descriptor { return doubleDesc() }

var stringDesc = memoized(func() *Descriptor {
	return &Descriptor{
		DataType: wire.TypeString,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			v, err := in.ReadString()
			if err != nil {
				return err
			}
			*(*string)(ptr) = v
			return nil
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			return out.WriteString(*(*string)(ptr))
		},
	}
})

// String returns the singleton descriptor for the Thrift string/utf8 type.
func String() *Descriptor { return stringDesc() }
