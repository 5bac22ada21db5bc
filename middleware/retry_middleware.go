package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"trpc-thrift-go/message"
	"trpc-thrift-go/rpcctx"
)

// retryable reports whether a failed call is worth re-issuing: transient
// infrastructure failures (timeout, overload, rate limited, connect) are;
// protocol and dispatch errors are not — re-sending the same malformed or
// unroutable request can never succeed.
func retryable(resp *message.RPCMessage) bool {
	switch resp.Code {
	case rpcctx.ServerTimeoutErr, rpcctx.ServerOverloadErr, rpcctx.ServerLimitedErr,
		rpcctx.ClientInvokeTimeout, rpcctx.ClientConnectErr:
		return true
	}
	// Transport-level failures arrive as plain error strings with no
	// framework code attached.
	return strings.Contains(resp.Error, "timeout") || strings.Contains(resp.Error, "connection refused")
}

// RetryMiddleware re-issues a failed call up to maxRetries times with
// exponential backoff, but only for failures that are transient (see
// retryable).
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			rpcMessage := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if rpcMessage.Error == "" {
					return rpcMessage // Success, return response
				}
				if !retryable(rpcMessage) {
					return rpcMessage // Non-retryable error, return immediately
				}
				log.Printf("Retry attempt %d for %s due to error: %s", i+1, req.ServiceMethod, rpcMessage.Error)
				time.Sleep(baseDelay * time.Duration(1<<i)) // Exponential backoff
				rpcMessage = next(ctx, req)                 // Retry the request
			}
			return rpcMessage // Return last response after retries
		}
	}
}
