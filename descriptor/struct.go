package descriptor

import (
	"sync"
	"unsafe"

	"trpc-thrift-go/wire"
)

// Struct builds the descriptor for an IDL struct from its element table.
// elementsFn is memoised with sync.OnceValue so the table is resolved
// exactly once, lazily, on first use — letting mutually-referential
// struct descriptors register themselves before every field they contain
// has a settled descriptor.
//
// Read walks the element table with a single forward cursor: since the
// table is held in ascending FieldID order, and wire fields in practice
// arrive in non-decreasing id order, the cursor only ever advances,
// never rescans. A field whose (id, wire type) doesn't match the element
// the cursor is sitting on — including one declared as a nested struct —
// is always skipped via the field's own wire type, never silently
// dropped without consuming its bytes.
func Struct[T any](elementsFn func() []StructElement) *Descriptor {
	getElements := sync.OnceValue(elementsFn)

	return &Descriptor{
		DataType: wire.TypeStruct,
		read: func(in *wire.Buffer, ptr unsafe.Pointer) error {
			elements := getElements()
			idx := 0
			for {
				fieldType, fieldID, err := in.ReadFieldBegin()
				if err != nil {
					return err
				}
				if fieldType == wire.TypeStop {
					return nil
				}

				for idx < len(elements) && elements[idx].FieldID < fieldID {
					idx++
				}

				if idx < len(elements) && elements[idx].FieldID == fieldID && elements[idx].Desc.DataType == fieldType {
					el := elements[idx]
					if el.Required != Required {
						*(*bool)(offset(ptr, el.IssetOffset)) = true
					}
					if err := el.Desc.read(in, offset(ptr, el.DataOffset)); err != nil {
						return err
					}
					continue
				}

				if err := in.Skip(fieldType); err != nil {
					return err
				}
			}
		},
		write: func(ptr unsafe.Pointer, out *wire.Buffer) (uint32, error) {
			var total uint32
			for _, el := range getElements() {
				emit := el.Required != Optional
				if !emit {
					emit = *(*bool)(offset(ptr, el.IssetOffset))
				}
				if !emit {
					continue
				}

				n, err := out.WriteFieldBegin(el.Desc.DataType, el.FieldID)
				total += n
				if err != nil {
					return total, err
				}
				n, err = el.Desc.write(offset(ptr, el.DataOffset), out)
				total += n
				if err != nil {
					return total, err
				}
			}
			n, err := out.WriteFieldStop()
			total += n
			return total, err
		},
	}
}
