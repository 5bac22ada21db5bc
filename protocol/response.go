package protocol

import "trpc-thrift-go/buffer"

// ResponseProtocol is the envelope around one reply/exception message.
type ResponseProtocol struct {
	Header     MessageHeader
	StructBody *buffer.Buffer
}

// Decode unframes in into the message header and the raw struct body.
func (r *ResponseProtocol) Decode(in *buffer.Buffer) error {
	header, body, err := decodeEnvelope(in)
	if err != nil {
		return err
	}
	r.Header = header
	r.StructBody = body
	return nil
}

// Encode frames the response's struct body under its message header.
func (r *ResponseProtocol) Encode() (*buffer.Buffer, error) {
	return encodeEnvelope(r.Header, r.StructBody)
}

// FuncName returns the response's function name.
func (r *ResponseProtocol) FuncName() string { return r.Header.FunctionName }

// SetFuncName sets the response's function name.
func (r *ResponseProtocol) SetFuncName(name string) { r.Header.FunctionName = name }

// RequestID returns the response's sequence id, matching the request it answers.
func (r *ResponseProtocol) RequestID() uint32 { return uint32(r.Header.SequenceID) }

// SetRequestID sets the response's sequence id.
func (r *ResponseProtocol) SetRequestID(id uint32) { r.Header.SequenceID = int32(id) }
