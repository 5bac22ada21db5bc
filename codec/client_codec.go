package codec

import (
	"fmt"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/frame"
	"trpc-thrift-go/protocol"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/serialization"
	"trpc-thrift-go/wire"
)

// ClientCodec is the caller-facing surface a transport uses to turn a
// user call into wire bytes and a wire response back into a user result:
// Check finds frame boundaries, Decode/Encode run the protocol envelope,
// FillRequest/FillResponse run the serializer.
type ClientCodec struct {
	Serializer serialization.Serializer
}

// NewClientCodec returns a ClientCodec backed by the Thrift serializer.
func NewClientCodec() *ClientCodec {
	return &ClientCodec{Serializer: serialization.Thrift{}}
}

// Name identifies this codec on the wire/registry.
func (c *ClientCodec) Name() string { return "thrift" }

// Check scans in for complete frames.
func (c *ClientCodec) Check(in *buffer.Buffer) ([]*buffer.Buffer, frame.Verdict, error) {
	return frame.Check(in)
}

// CreateRequestObject returns a fresh request envelope.
func (c *ClientCodec) CreateRequestObject() *protocol.RequestProtocol {
	return &protocol.RequestProtocol{}
}

// CreateResponseObject returns a fresh response envelope.
func (c *ClientCodec) CreateResponseObject() *protocol.ResponseProtocol {
	return &protocol.ResponseProtocol{}
}

// Decode unframes one complete frame into a response envelope.
func (c *ClientCodec) Decode(frameBuf *buffer.Buffer, out *protocol.ResponseProtocol) error {
	return out.Decode(frameBuf)
}

// Encode fills in the request envelope's header from the call context and
// frames it.
func (c *ClientCodec) Encode(ctx *rpcctx.ClientContext, req *protocol.RequestProtocol) (*buffer.Buffer, error) {
	req.Header.FunctionName = ctx.FuncName
	req.Header.MessageType = wire.MessageCall
	req.Header.SequenceID = int32(ctx.RequestID)
	req.Header.Strict = true
	return req.Encode()
}

// FillRequest serializes body into the request envelope's struct bytes.
func (c *ClientCodec) FillRequest(req *protocol.RequestProtocol, body descriptor.IDLMessage) error {
	builder := &buffer.Builder{}
	if err := c.Serializer.Serialize(body, builder); err != nil {
		return err
	}
	req.StructBody = builder.DestructiveGet()
	return nil
}

// FillResponse deserializes the response envelope's struct bytes into
// body, or — when the server replied with message_type=exception —
// deserializes the well-known ThriftException and surfaces it as a
// decode-error status on ctx carrying the exception's type and message.
func (c *ClientCodec) FillResponse(ctx *rpcctx.ClientContext, resp *protocol.ResponseProtocol, body descriptor.IDLMessage) error {
	if resp.Header.MessageType == wire.MessageException {
		var exc ThriftException
		if err := c.Serializer.Deserialize(resp.StructBody, &exc); err != nil {
			return err
		}
		ctx.Status = rpcctx.Status{
			FrameworkCode: rpcctx.ClientDecodeErr,
			FuncCode:      exc.Type,
			Message:       exc.Message,
		}
		return fmt.Errorf("thrift: remote exception (type=%d): %s", exc.Type, exc.Message)
	}

	if err := c.Serializer.Deserialize(resp.StructBody, body); err != nil {
		ctx.Status = rpcctx.Status{FrameworkCode: rpcctx.ClientDecodeErr, Message: err.Error()}
		return err
	}
	return nil
}
