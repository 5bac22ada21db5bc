// Package rpcctx defines the minimal request/response carrier types the
// codec façades are written against. It is a deliberately thin stand-in
// for a full tRPC ClientContext/ServerContext (out of scope for this
// codec): just enough surface — function name, request id, and a status
// the codec can set on decode/encode failure — for Check/Decode/Encode/
// FillRequest/FillResponse to do their job.
package rpcctx

// RetCode is the framework-level return code the codec maps to and from
// Thrift exception types.
type RetCode int32

const (
	Success RetCode = 0

	ServerDecodeErr       RetCode = 1
	ServerEncodeErr       RetCode = 2
	ServerNoServiceErr    RetCode = 3
	ServerNoFuncErr       RetCode = 4
	ServerTimeoutErr      RetCode = 5
	ServerFullLinkTimeout RetCode = 6
	ServerOverloadErr     RetCode = 7
	ServerLimitedErr      RetCode = 8

	ClientDecodeErr       RetCode = 9
	ClientEncodeErr       RetCode = 10
	ClientConnectErr      RetCode = 11
	ClientInvokeTimeout   RetCode = 12
	ClientFullLinkTimeout RetCode = 13
	ClientLimitedErr      RetCode = 14
	ClientOverloadErr     RetCode = 15
	ClientRouterErr       RetCode = 16

	InvokeUnknownErr RetCode = -1
)

// Status is the framework/function outcome of one call: framework-level
// return code, the user function's own return code, and a human message.
type Status struct {
	FrameworkCode RetCode
	FuncCode      int32
	Message       string
}

// OK reports whether both the framework and the function indicate success.
func (s Status) OK() bool {
	return s.FrameworkCode == Success && s.FuncCode == 0
}

// ClientContext carries what the client codec needs per outgoing call.
type ClientContext struct {
	FuncName  string
	RequestID uint32
	Status    Status
}

// ServerContext carries what the server codec needs per incoming call.
type ServerContext struct {
	FuncName  string
	RequestID uint32
	Status    Status
}
