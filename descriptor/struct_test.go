package descriptor

import (
	"sync"
	"unsafe"

	"testing"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/wire"
)

// demo is a small struct exercising required, optional (unset and set) and
// default fields, plus a list, against the struct descriptor's read/write
// policy.
type demo struct {
	Req  int32
	Opt  string
	Def  int16
	Tags []int32

	issetOpt  bool
	issetDef  bool
	issetTags bool
}

var demoDescriptor = sync.OnceValue(func() *Descriptor {
	return Struct[demo](func() []StructElement {
		return []StructElement{
			{Desc: I32(), Name: "req", FieldID: 1, Required: Required, DataOffset: unsafe.Offsetof(demo{}.Req)},
			{Desc: String(), Name: "opt", FieldID: 2, Required: Optional, DataOffset: unsafe.Offsetof(demo{}.Opt), IssetOffset: unsafe.Offsetof(demo{}.issetOpt)},
			{Desc: I16(), Name: "def", FieldID: 3, Required: Default, DataOffset: unsafe.Offsetof(demo{}.Def), IssetOffset: unsafe.Offsetof(demo{}.issetDef)},
			{Desc: List[int32](I32()), Name: "tags", FieldID: 4, Required: Default, DataOffset: unsafe.Offsetof(demo{}.Tags), IssetOffset: unsafe.Offsetof(demo{}.issetTags)},
		}
	})
})

func (d *demo) ThriftDescriptor() *Descriptor { return demoDescriptor() }

func encode(t *testing.T, v *demo) []byte {
	t.Helper()
	bd := &buffer.Builder{}
	w := wire.NewWriter(bd)
	if _, err := v.ThriftDescriptor().Write(unsafe.Pointer(v), w); err != nil {
		t.Fatal(err)
	}
	return bd.DestructiveGet().Bytes()
}

func decode(t *testing.T, raw []byte) *demo {
	t.Helper()
	var out demo
	r := wire.NewReader(buffer.New(raw))
	if err := out.ThriftDescriptor().Read(r, unsafe.Pointer(&out)); err != nil {
		t.Fatal(err)
	}
	return &out
}

// Optional gating: an unset optional field is absent from the encoded
// bytes; required/default fields are always present.
func TestOptionalGating(t *testing.T) {
	v := &demo{Req: 1, Def: 2, Tags: []int32{7, 8}}
	raw := encode(t, v)

	// Walk the encoded field stream and confirm field 2 (opt) never appears.
	r := wire.NewReader(buffer.New(raw))
	seen := map[int16]bool{}
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			t.Fatal(err)
		}
		if ft == wire.TypeStop {
			break
		}
		seen[id] = true
		if err := r.Skip(ft); err != nil {
			t.Fatal(err)
		}
	}
	if seen[2] {
		t.Fatal("expect unset optional field 2 to be absent from the wire")
	}
	if !seen[1] || !seen[3] {
		t.Fatalf("expect required/default fields present, saw %v", seen)
	}
}

// Round trip: every set field survives encode then decode, element-wise.
func TestStructRoundTrip(t *testing.T) {
	v := &demo{Req: 11, Opt: "hi", Def: 22, Tags: []int32{1, 2, 3}, issetOpt: true, issetDef: true}
	raw := encode(t, v)
	out := decode(t, raw)

	if out.Req != 11 || out.Opt != "hi" || out.Def != 22 {
		t.Fatalf("scalar mismatch: %+v", out)
	}
	if len(out.Tags) != 3 || out.Tags[0] != 1 || out.Tags[2] != 3 {
		t.Fatalf("list mismatch: %+v", out.Tags)
	}
}

// Monotone field order: fields are always written in ascending field-id
// order, matching the element table's own order.
func TestEncodedFieldOrderIsMonotone(t *testing.T) {
	v := &demo{Req: 1, Opt: "x", Def: 2, issetOpt: true, issetDef: true}
	raw := encode(t, v)

	r := wire.NewReader(buffer.New(raw))
	var last int16 = -1
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			t.Fatal(err)
		}
		if ft == wire.TypeStop {
			break
		}
		if id < last {
			t.Fatalf("field id %d arrived after %d, violating ascending order", id, last)
		}
		last = id
		if err := r.Skip(ft); err != nil {
			t.Fatal(err)
		}
	}
}

// A field whose id is known but whose wire type doesn't match the element
// table — including one carrying wire type struct — is skipped via its
// own wire type rather than silently desynchronising the stream, and the
// fields after it still decode correctly.
func TestMismatchedTypeFieldIsSkipped(t *testing.T) {
	bd := &buffer.Builder{}
	w := wire.NewWriter(bd)
	w.WriteFieldBegin(wire.TypeI32, 1)
	w.WriteI32(5)

	// Field id 2 is "opt" (string) in the element table, but this sender
	// wrote it as a nested struct instead — a widened/changed IDL field.
	w.WriteFieldBegin(wire.TypeStruct, 2)
	w.WriteFieldBegin(wire.TypeI32, 1)
	w.WriteI32(123)
	w.WriteFieldStop()

	w.WriteFieldBegin(wire.TypeI16, 3)
	w.WriteI16(9)
	w.WriteFieldStop()

	var out demo
	r := wire.NewReader(bd.DestructiveGet())
	if err := out.ThriftDescriptor().Read(r, unsafe.Pointer(&out)); err != nil {
		t.Fatal(err)
	}
	if out.Req != 5 || out.Def != 9 {
		t.Fatalf("expect fields around the mismatched-type field to decode, got %+v", out)
	}
	if out.issetOpt {
		t.Fatal("expect opt's isset bit to stay false since its wire value was never read")
	}
}
