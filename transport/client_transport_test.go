package transport

import (
	"net"
	"sync"
	"testing"
	"time"

	"trpc-thrift-go/idl/arith"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/server"
)

type ArithService struct{}

func (s *ArithService) Do(args *arith.Args, reply *arith.Reply) error {
	*reply = *arith.Do(args)
	return nil
}

// TestClientTransportSerial sends several requests one after another over a
// single connection.
func TestClientTransportSerial(t *testing.T) {
	svr := server.NewServer()
	if err := svr.Register(&ArithService{}); err != nil {
		t.Fatal(err)
	}
	go svr.Serve("tcp", ":19001", "", nil)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":19001")
	if err != nil {
		t.Fatal(err)
	}

	ct := NewClientTransport(conn, 0)

	cases := []struct {
		a, b, expect int32
	}{
		{1, 2, 3},
		{10, 20, 30},
		{100, 200, 300},
	}

	for _, tc := range cases {
		_, ch, err := ct.Send("ArithService:Do", &arith.Args{A: tc.a, B: tc.b})
		if err != nil {
			t.Fatal(err)
		}

		result := <-ch
		if result.Err != nil {
			t.Fatalf("transport error: %v", result.Err)
		}

		var reply arith.Reply
		ctx := &rpcctx.ClientContext{FuncName: "ArithService:Do"}
		if err := ct.codec.FillResponse(ctx, result.Resp, &reply); err != nil {
			t.Fatal(err)
		}

		if reply.Value != tc.expect {
			t.Fatalf("expect %d, got %d", tc.expect, reply.Value)
		}
	}
}

// TestClientTransportConcurrent exercises multiplexing: many concurrent
// calls over one connection, each routed back to its own caller.
func TestClientTransportConcurrent(t *testing.T) {
	svr := server.NewServer()
	if err := svr.Register(&ArithService{}); err != nil {
		t.Fatal(err)
	}
	go svr.Serve("tcp", ":19002", "", nil)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":19002")
	if err != nil {
		t.Fatal(err)
	}

	ct := NewClientTransport(conn, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()

			_, ch, err := ct.Send("ArithService:Do", &arith.Args{A: n, B: n})
			if err != nil {
				t.Errorf("send failed: %v", err)
				return
			}

			result := <-ch
			if result.Err != nil {
				t.Errorf("transport error: %v", result.Err)
				return
			}

			var reply arith.Reply
			ctx := &rpcctx.ClientContext{FuncName: "ArithService:Do"}
			if err := ct.codec.FillResponse(ctx, result.Resp, &reply); err != nil {
				t.Errorf("fill response failed: %v", err)
				return
			}

			if reply.Value != n*2 {
				t.Errorf("expect %d, got %d", n*2, reply.Value)
			}
		}(int32(i))
	}

	wg.Wait()
}
