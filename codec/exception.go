// Package codec implements the client/server codec façades: the
// orchestration layer that runs frame checking, protocol envelope
// decode/encode, and serialization together, and maps between the
// framework's own return codes and the well-known Thrift exception type.
package codec

import (
	"sync"
	"unsafe"

	"trpc-thrift-go/descriptor"
)

// ExceptionType is the well-known Thrift TApplicationException type tag.
type ExceptionType int32

const (
	ExceptionUnknown               ExceptionType = 0
	ExceptionUnknownMethod         ExceptionType = 1
	ExceptionInvalidMessageType    ExceptionType = 2
	ExceptionWrongMethodName       ExceptionType = 3
	ExceptionBadSequenceID         ExceptionType = 4
	ExceptionMissingResult         ExceptionType = 5
	ExceptionInternalError         ExceptionType = 6
	ExceptionProtocolError         ExceptionType = 7
	ExceptionInvalidTransform      ExceptionType = 8
	ExceptionInvalidProtocol       ExceptionType = 9
	ExceptionUnsupportedClientType ExceptionType = 10
)

// ThriftException is the well-known exception struct carried in the body
// of a message_type=exception response: {message: string @1, type: i32 @2}.
type ThriftException struct {
	Message string
	Type    int32

	issetMessage bool
	issetType    bool
}

var exceptionDescriptor = sync.OnceValue(func() *descriptor.Descriptor {
	return descriptor.Struct[ThriftException](func() []descriptor.StructElement {
		return []descriptor.StructElement{
			{
				Desc:        descriptor.String(),
				Name:        "message",
				FieldID:     1,
				Required:    descriptor.Default,
				DataOffset:  unsafe.Offsetof(ThriftException{}.Message),
				IssetOffset: unsafe.Offsetof(ThriftException{}.issetMessage),
			},
			{
				Desc:        descriptor.I32(),
				Name:        "type",
				FieldID:     2,
				Required:    descriptor.Default,
				DataOffset:  unsafe.Offsetof(ThriftException{}.Type),
				IssetOffset: unsafe.Offsetof(ThriftException{}.issetType),
			},
		}
	})
})

// ThriftDescriptor implements descriptor.IDLMessage.
func (e *ThriftException) ThriftDescriptor() *descriptor.Descriptor {
	return exceptionDescriptor()
}
