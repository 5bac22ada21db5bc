package protocol

import "trpc-thrift-go/buffer"

// RequestProtocol is the envelope around one call/oneway invocation: the
// message header plus the still-undeserialized struct body bytes.
type RequestProtocol struct {
	Header     MessageHeader
	StructBody *buffer.Buffer
}

// Decode unframes in (already a single complete frame, as cut by
// package frame) into the message header and the raw struct body.
func (r *RequestProtocol) Decode(in *buffer.Buffer) error {
	header, body, err := decodeEnvelope(in)
	if err != nil {
		return err
	}
	r.Header = header
	r.StructBody = body
	return nil
}

// Encode frames the request's struct body under its message header.
func (r *RequestProtocol) Encode() (*buffer.Buffer, error) {
	return encodeEnvelope(r.Header, r.StructBody)
}

// FuncName returns the request's function name.
func (r *RequestProtocol) FuncName() string { return r.Header.FunctionName }

// SetFuncName sets the request's function name.
func (r *RequestProtocol) SetFuncName(name string) { r.Header.FunctionName = name }

// RequestID returns the request's sequence id.
func (r *RequestProtocol) RequestID() uint32 { return uint32(r.Header.SequenceID) }

// SetRequestID sets the request's sequence id.
func (r *RequestProtocol) SetRequestID(id uint32) { r.Header.SequenceID = int32(id) }
