// Package message defines the business-layer envelope the server's
// middleware chain operates on. It sits below the wire protocol/codec
// layer (package protocol, package codec): by the time a request becomes
// an RPCMessage, framing and the Thrift message header are already gone,
// and Payload is just the struct body's serialized bytes — middleware
// that logs, rate-limits, retries, or times out a call never needs to
// know it's Thrift underneath.
package message

import "trpc-thrift-go/rpcctx"

// RPCMessage carries the data for a single RPC request or response as it
// passes through the middleware chain.
//
//   - On request:  ServiceMethod is set ("Service:Method"), Payload holds
//     the serialized args struct, Error is empty.
//   - On response: Payload holds the serialized reply struct (left empty
//     when dispatch or a middleware rejects the call; a handler that
//     returns an error still has its reply serialized), Error is non-empty
//     if the handler or dispatch itself failed, and Code records why (it
//     stays rpcctx.Success when the error comes from the handler itself).
type RPCMessage struct {
	ServiceMethod string         // Format: "ServiceName:MethodName", e.g., "Arith:Do"
	Error         string         // Non-empty if dispatch or the handler itself failed
	Code          rpcctx.RetCode // Framework-level outcome; rpcctx.Success when Error == ""
	Payload       []byte         // Serialized args (request) or reply (response) as Thrift struct bytes
}
