package codec

import (
	"strings"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/frame"
	"trpc-thrift-go/protocol"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/serialization"
	"trpc-thrift-go/wire"
)

// ServerCodec is the server-side counterpart of ClientCodec: it decodes
// an incoming call, and encodes either the handler's result or a
// synthesized Thrift exception derived from the call's outcome.
type ServerCodec struct {
	Serializer serialization.Serializer
}

// NewServerCodec returns a ServerCodec backed by the Thrift serializer.
func NewServerCodec() *ServerCodec {
	return &ServerCodec{Serializer: serialization.Thrift{}}
}

// Name identifies this codec on the wire/registry.
func (c *ServerCodec) Name() string { return "thrift" }

// Check scans in for complete frames.
func (c *ServerCodec) Check(in *buffer.Buffer) ([]*buffer.Buffer, frame.Verdict, error) {
	return frame.Check(in)
}

// CreateRequestObject returns a fresh request envelope.
func (c *ServerCodec) CreateRequestObject() *protocol.RequestProtocol {
	return &protocol.RequestProtocol{}
}

// CreateResponseObject returns a fresh response envelope.
func (c *ServerCodec) CreateResponseObject() *protocol.ResponseProtocol {
	return &protocol.ResponseProtocol{}
}

// Decode unframes one complete frame into the request envelope. On
// failure it records a decode-error status on ctx — callers must check
// ctx.Status and suppress sending a reply, since a frame that failed to
// decode carries no usable sequence id to reply against.
func (c *ServerCodec) Decode(frameBuf *buffer.Buffer, req *protocol.RequestProtocol, ctx *rpcctx.ServerContext) error {
	if err := req.Decode(frameBuf); err != nil {
		ctx.Status = rpcctx.Status{FrameworkCode: rpcctx.ServerDecodeErr, Message: err.Error()}
		return err
	}
	ctx.FuncName = req.Header.FunctionName
	ctx.RequestID = uint32(req.Header.SequenceID)
	return nil
}

// FillRequest deserializes the request envelope's struct bytes into args.
func (c *ServerCodec) FillRequest(req *protocol.RequestProtocol, args descriptor.IDLMessage) error {
	return c.Serializer.Deserialize(req.StructBody, args)
}

// Encode builds the response envelope. The response function name is
// demultiplexed from the request's (the substring after the last ':'),
// matching the "Service:Method" multiplexing convention. If ctx.Status
// indicates success, replyBody (already serialized by the caller) is sent
// as-is; otherwise a ThriftException is synthesized and serialized in its
// place, with its type taken from the framework return code, or straight
// from the function's own return code when the framework itself
// succeeded but the handler returned a non-zero code.
func (c *ServerCodec) Encode(ctx *rpcctx.ServerContext, resp *protocol.ResponseProtocol, req *protocol.RequestProtocol, replyBody []byte) (*buffer.Buffer, error) {
	funcName := req.Header.FunctionName
	if idx := strings.LastIndex(funcName, ":"); idx >= 0 {
		funcName = funcName[idx+1:]
	}

	resp.Header.FunctionName = funcName
	resp.Header.SequenceID = req.Header.SequenceID
	resp.Header.Strict = req.Header.Strict

	if ctx.Status.OK() {
		resp.Header.MessageType = wire.MessageReply
		resp.StructBody = buffer.New(replyBody)
	} else {
		resp.Header.MessageType = wire.MessageException

		excType := ExceptionTypeFromRetCode(ctx.Status.FrameworkCode)
		if ctx.Status.FrameworkCode == rpcctx.Success && ctx.Status.FuncCode != 0 {
			excType = ExceptionType(ctx.Status.FuncCode)
		}
		exc := &ThriftException{Message: ctx.Status.Message, Type: int32(excType)}

		builder := &buffer.Builder{}
		if err := c.Serializer.Serialize(exc, builder); err != nil {
			return nil, err
		}
		resp.StructBody = builder.DestructiveGet()
	}

	return resp.Encode()
}
