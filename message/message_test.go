package message

import (
	"testing"

	"trpc-thrift-go/rpcctx"
)

func TestRequestResponse(t *testing.T) {
	req := &RPCMessage{
		ServiceMethod: "Arith:Do",
		Payload:       []byte{0x08, 0x00, 0x01, 0x00, 0x00, 0x00, 0x03}, // i32 field 1 = 3
	}
	if req.Error != "" {
		t.Fatalf("expected no error on a fresh request, got %q", req.Error)
	}
	if req.Code != rpcctx.Success {
		t.Fatalf("expected zero-value Code to be Success, got %v", req.Code)
	}

	resp := &RPCMessage{
		ServiceMethod: req.ServiceMethod,
		Error:         "unknown method",
		Code:          rpcctx.ServerNoFuncErr,
	}
	if resp.Code != rpcctx.ServerNoFuncErr {
		t.Fatalf("expected Code to round-trip, got %v", resp.Code)
	}
	if len(resp.Payload) != 0 {
		t.Fatalf("expected a failed response to carry no payload, got %d bytes", len(resp.Payload))
	}
}
