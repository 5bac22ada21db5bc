// Package serialization is the thin bridge between the wire codec and the
// descriptor system: it turns an IDLMessage into bytes and back by asking
// the message for its own Descriptor and driving that descriptor's
// read/write against a wire.Buffer. Nothing else in the RPC machinery
// needs to know Thrift exists.
package serialization

import (
	"fmt"
	"reflect"
	"unsafe"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/wire"
)

// Serializer turns IDLMessage values into wire bytes and back.
type Serializer interface {
	Serialize(msg descriptor.IDLMessage, out *buffer.Builder) error
	Deserialize(in *buffer.Buffer, msg descriptor.IDLMessage) error
}

// Thrift is the Serializer that drives a descriptor.Descriptor.
type Thrift struct{}

// pointerOf returns the unsafe.Pointer backing msg, which must be a
// non-nil pointer to the concrete struct — IDLMessage implementations are
// always used by pointer receiver so their descriptor's offsets resolve
// against the right base address.
func pointerOf(msg descriptor.IDLMessage) (unsafe.Pointer, error) {
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, fmt.Errorf("serialization: IDLMessage must be a non-nil pointer, got %T", msg)
	}
	return v.UnsafePointer(), nil
}

// Serialize encodes msg's fields into out via its own descriptor.
func (Thrift) Serialize(msg descriptor.IDLMessage, out *buffer.Builder) error {
	ptr, err := pointerOf(msg)
	if err != nil {
		return err
	}
	w := wire.NewWriter(out)
	_, err = msg.ThriftDescriptor().Write(ptr, w)
	return err
}

// Deserialize decodes in's bytes into msg's fields via its own descriptor.
func (Thrift) Deserialize(in *buffer.Buffer, msg descriptor.IDLMessage) error {
	ptr, err := pointerOf(msg)
	if err != nil {
		return err
	}
	r := wire.NewReader(in)
	return msg.ThriftDescriptor().Read(r, ptr)
}
