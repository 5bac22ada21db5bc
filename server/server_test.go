package server

import (
	"net"
	"testing"
	"time"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/codec"
	"trpc-thrift-go/idl/arith"
	"trpc-thrift-go/rpcctx"
)

// ArithService wraps the idl/arith demo package behind the reflection
// dispatch convention NewService expects.
type ArithService struct{}

func (s *ArithService) Do(args *arith.Args, reply *arith.Reply) error {
	*reply = *arith.Do(args)
	return nil
}

func TestServer(t *testing.T) {
	svr := NewServer()
	if err := svr.Register(&ArithService{}); err != nil {
		t.Fatalf("failed to register service: %v", err)
	}
	go svr.Serve("tcp", ":18888", "", nil)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18888")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cdc := codec.NewClientCodec()
	ctx := &rpcctx.ClientContext{FuncName: "ArithService:Do", RequestID: 42}
	req := cdc.CreateRequestObject()
	if err := cdc.FillRequest(req, &arith.Args{A: 1, B: 2}); err != nil {
		t.Fatal(err)
	}
	frameBuf, err := cdc.Encode(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write(frameBuf.Bytes()); err != nil {
		t.Fatal(err)
	}

	raw := make([]byte, 4096)
	n, err := conn.Read(raw)
	if err != nil {
		t.Fatal(err)
	}

	resp := cdc.CreateResponseObject()
	if err := resp.Decode(buffer.New(raw[:n])); err != nil {
		t.Fatalf("failed to decode response frame: %v", err)
	}
	if resp.Header.SequenceID != int32(ctx.RequestID) {
		t.Fatalf("expect sequence id %d, got %d", ctx.RequestID, resp.Header.SequenceID)
	}

	var reply arith.Reply
	if err := cdc.FillResponse(ctx, resp, &reply); err != nil {
		t.Fatalf("unexpected remote exception: %v", err)
	}
	if reply.Value != 3 {
		t.Fatalf("expect result 3, got %d", reply.Value)
	}
}
