package client

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/codec"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/frame"
	"trpc-thrift-go/loadbalance"
	"trpc-thrift-go/protocol"
	"trpc-thrift-go/registry"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/transport"
)

// readChunkSize is the size of each net.Conn.Read call while waiting for
// a call's response frame in exclusive mode.
const readChunkSize = 4096

// ExclusiveClient is the one-request-per-connection counterpart of Client:
// each call borrows a connection from a transport.ConnPool, holds it
// exclusively until the response frame arrives, and returns it. Because
// the connection carries exactly one call at a time, the next complete
// frame on it is necessarily this call's response — no sequence-id
// routing, no background receive goroutine.
//
// Prefer the default multiplexed Client for high-concurrency workloads;
// exclusive mode trades throughput for per-call connection isolation
// (e.g. talking to servers or proxies that can't interleave responses).
type ExclusiveClient struct {
	registry registry.Registry              // Service discovery (etcd or mock)
	balancer loadbalance.Balancer           // Load balancing strategy
	pools    map[string]*transport.ConnPool // Per-address borrow/return pools
	codec    *codec.ClientCodec             // Protocol envelope + serializer façade
	mu       sync.Mutex                     // Protects the pools map
	maxConns int                            // Connections per address
	seq      uint32                         // Atomic sequence counter across all calls
}

// NewExclusiveClient creates a client whose calls each hold a pooled
// connection exclusively. maxConns bounds the connections per server
// address; a call blocks when all of them are borrowed.
func NewExclusiveClient(reg registry.Registry, bal loadbalance.Balancer, maxConns int) *ExclusiveClient {
	return &ExclusiveClient{
		registry: reg,
		balancer: bal,
		pools:    make(map[string]*transport.ConnPool),
		codec:    codec.NewClientCodec(),
		maxConns: maxConns,
	}
}

// getPool returns the connection pool for addr, creating it on first use.
func (c *ExclusiveClient) getPool(addr string) *transport.ConnPool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, ok := c.pools[addr]
	if !ok {
		pool = transport.NewConnPool(addr, c.maxConns, func() (net.Conn, error) {
			return net.Dial("tcp", addr)
		})
		c.pools[addr] = pool
	}
	return pool
}

// Call performs a synchronous RPC over a borrowed connection.
//
// Steps mirror Client.Call (discover → pick → send → fill response), with
// the transport stage replaced by borrow → write frame → read one frame →
// return. A connection that saw a read/write error is marked unusable so
// the pool discards it instead of handing leftover stream bytes to the
// next caller.
func (c *ExclusiveClient) Call(serviceMethod string, args, reply descriptor.IDLMessage) error {
	split := strings.SplitN(serviceMethod, ".", 2)
	if len(split) != 2 {
		return fmt.Errorf("invalid serviceMethod format: %v", serviceMethod)
	}
	serviceName, methodName := split[0], split[1]
	wireFuncName := serviceName + ":" + methodName

	instances, err := c.registry.Discover(serviceName)
	if err != nil {
		return err
	}
	instance, err := c.balancer.Pick(instances)
	if err != nil {
		return err
	}

	conn, err := c.getPool(instance.Addr).Get()
	if err != nil {
		return err
	}
	defer conn.ReturnToPool()

	ctx := &rpcctx.ClientContext{FuncName: wireFuncName, RequestID: atomic.AddUint32(&c.seq, 1)}
	req := c.codec.CreateRequestObject()
	if err := c.codec.FillRequest(req, args); err != nil {
		return err
	}
	frameBuf, err := c.codec.Encode(ctx, req)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frameBuf.Bytes()); err != nil {
		conn.MarkUnusable()
		return err
	}

	resp, err := c.readResponse(conn)
	if err != nil {
		conn.MarkUnusable()
		return err
	}
	return c.codec.FillResponse(ctx, resp, reply)
}

// readResponse reads from conn until the frame checker yields one complete
// frame, then decodes it. The connection is held exclusively for the whole
// call, so that frame is this call's response.
func (c *ExclusiveClient) readResponse(conn net.Conn) (*protocol.ResponseProtocol, error) {
	pending := &buffer.Buffer{}
	chunk := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, chunk[:n])
			pending.Append(cp)

			frames, verdict, cerr := c.codec.Check(pending)
			if verdict == frame.Err || cerr != nil {
				return nil, fmt.Errorf("thrift: malformed response stream")
			}
			if len(frames) > 0 {
				resp := c.codec.CreateResponseObject()
				if derr := c.codec.Decode(frames[0], resp); derr != nil {
					return nil, derr
				}
				return resp, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// Close shuts down every per-address pool and its connections.
func (c *ExclusiveClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pool := range c.pools {
		pool.Close()
	}
	c.pools = make(map[string]*transport.ConnPool)
	return nil
}
