package codec

import "trpc-thrift-go/rpcctx"

// ExceptionTypeFromRetCode maps a framework return code to the Thrift
// exception type carried in a synthesized exception response.
func ExceptionTypeFromRetCode(code rpcctx.RetCode) ExceptionType {
	switch code {
	case rpcctx.ServerDecodeErr, rpcctx.ServerEncodeErr, rpcctx.ClientEncodeErr, rpcctx.ClientDecodeErr:
		return ExceptionProtocolError
	case rpcctx.ServerNoServiceErr:
		return ExceptionUnknownMethod
	case rpcctx.ServerNoFuncErr:
		return ExceptionWrongMethodName
	}
	if isInternalError(code) {
		return ExceptionInternalError
	}
	return ExceptionUnknown
}

// isInternalError reports whether code is an infrastructure failure
// rather than a protocol/application error.
func isInternalError(code rpcctx.RetCode) bool {
	switch code {
	case rpcctx.ServerTimeoutErr, rpcctx.ServerFullLinkTimeout, rpcctx.ServerOverloadErr, rpcctx.ServerLimitedErr,
		rpcctx.ClientInvokeTimeout, rpcctx.ClientFullLinkTimeout, rpcctx.ClientLimitedErr, rpcctx.ClientOverloadErr,
		rpcctx.ClientConnectErr, rpcctx.ClientRouterErr:
		return true
	default:
		return false
	}
}

// RetCodeFromExceptionType maps a received Thrift exception type back to
// a framework return code. Exception types without a dedicated code fall
// through to unknown.
func RetCodeFromExceptionType(t ExceptionType) rpcctx.RetCode {
	switch t {
	case ExceptionUnknownMethod:
		return rpcctx.ServerNoServiceErr
	case ExceptionInvalidMessageType, ExceptionBadSequenceID, ExceptionProtocolError,
		ExceptionInvalidTransform, ExceptionInvalidProtocol:
		return rpcctx.ServerDecodeErr
	case ExceptionWrongMethodName:
		return rpcctx.ServerNoFuncErr
	case ExceptionMissingResult:
		return rpcctx.ServerEncodeErr
	case ExceptionUnsupportedClientType:
		return rpcctx.ClientConnectErr
	default:
		return rpcctx.InvokeUnknownErr
	}
}
