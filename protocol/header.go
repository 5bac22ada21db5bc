// Package protocol implements the Thrift wire envelope: a frame-size
// prefix, a message header (function name, message type, sequence id),
// and a struct body wrapped in a single synthetic field(struct, id 0).
//
// This is the "message protocol object" layer: it knows how to frame and
// unframe a request or response, but nothing about what the struct body
// actually contains — that is the serializer's job (package
// serialization), operating on the bytes this package hands it.
package protocol

import (
	"trpc-thrift-go/buffer"
	"trpc-thrift-go/wire"
)

// envelopeFieldID is the synthetic field id the struct body is wrapped
// under inside the message envelope.
const envelopeFieldID = 0

// MessageHeader is the decoded form of a message-begin plus the frame
// size it travelled in.
type MessageHeader struct {
	FrameSize    int32
	FunctionName string
	MessageType  wire.MessageType
	SequenceID   int32
	Strict       bool
}

// decodeEnvelope reads the frame-size prefix, the message header, and the
// synthetic struct-body field-begin, leaving in positioned at the first
// byte of the actual struct body (with the trailing field-stop not yet
// consumed — callers hand the remainder to the serializer, which reads the
// struct's own field stream from its first field-begin up to the struct's
// own stop byte).
//
// decodeEnvelope trusts frame.Check to have already cut exactly one
// complete frame into in, so FrameSize itself is read only for the
// caller's bookkeeping, not to bound this read.
func decodeEnvelope(in *buffer.Buffer) (MessageHeader, *buffer.Buffer, error) {
	r := wire.NewReader(in)

	frameSize, err := r.ReadI32()
	if err != nil {
		return MessageHeader{}, nil, err
	}

	name, msgType, seqID, strict, err := r.ReadMessageBegin()
	if err != nil {
		return MessageHeader{}, nil, err
	}

	// Synthetic wrapper field(struct, 0) around the struct body.
	if _, _, err := r.ReadFieldBegin(); err != nil {
		return MessageHeader{}, nil, err
	}

	header := MessageHeader{
		FrameSize:    frameSize,
		FunctionName: name,
		MessageType:  msgType,
		SequenceID:   seqID,
		Strict:       strict,
	}
	return header, in, nil
}

// encodeEnvelope writes the message header and wraps body in the
// synthetic field(struct, 0) + field-stop, measuring the result before
// writing the frame-size prefix rather than precomputing it from a magic
// constant. The prefix always matches the produced bytes exactly.
func encodeEnvelope(header MessageHeader, body *buffer.Buffer) (*buffer.Buffer, error) {
	scratch := &buffer.Builder{}
	sw := wire.NewWriter(scratch)

	if _, err := sw.WriteMessageBegin(header.FunctionName, header.MessageType, header.SequenceID, header.Strict); err != nil {
		return nil, err
	}
	if _, err := sw.WriteFieldBegin(wire.TypeStruct, envelopeFieldID); err != nil {
		return nil, err
	}
	scratch.AppendBuffer(body)
	if _, err := sw.WriteFieldStop(); err != nil {
		return nil, err
	}

	framed := scratch.DestructiveGet()
	frameSize := framed.ByteSize()

	final := &buffer.Builder{}
	fw := wire.NewWriter(final)
	if _, err := fw.WriteI32(int32(frameSize)); err != nil {
		return nil, err
	}
	final.AppendBuffer(framed)
	return final.DestructiveGet(), nil
}
