// Package transport implements the client-side transport layer with multiplexing and heartbeat.
//
// ClientTransport enables multiple concurrent RPC calls over a single TCP connection.
// The key insight: each request gets a unique sequence ID, and a background goroutine (recvLoop)
// continuously reads responses and routes them to the correct caller via pending channels.
//
//	goroutine-1 ──Send(seq=1)──┐
//	goroutine-2 ──Send(seq=2)──┼──→ single TCP conn ──→ Server
//	goroutine-3 ──Send(seq=3)──┘
//
//	recvLoop:  ←── response(seq=2) → pending[2] chan ← response → goroutine-2 wakes up
package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/codec"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/frame"
	"trpc-thrift-go/protocol"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/wire"
)

// readChunkSize is the size of each net.Conn.Read call feeding the
// per-connection frame accumulator.
const readChunkSize = 4096

// PendingResult is what recvLoop hands back to the goroutine blocked on a Send's
// response channel: the decoded response envelope, still with its struct body
// undeserialized (deserializing into the caller's reply type happens in Call,
// which is the only place that knows that type), or an error if the connection
// broke before a response arrived.
type PendingResult struct {
	Resp *protocol.ResponseProtocol
	Err  error
}

// ClientTransport manages a single multiplexed TCP connection.
type ClientTransport struct {
	conn    net.Conn // Underlying TCP connection
	codec   *codec.ClientCodec
	seq     uint32     // Monotonically increasing sequence number (protected by sending mutex)
	pending sync.Map   // map[uint32]chan *PendingResult — each request waits on its own channel
	sending sync.Mutex // Write lock — multiple goroutines share one conn, writes must be serialized
	//                        to prevent frame interleaving (req A's header + req B's body = corruption)
}

// NewClientTransport creates a transport for the given connection and starts two background goroutines:
//   - recvLoop: continuously reads responses from the connection and dispatches to pending callers
//   - heartbeatLoop: sends periodic heartbeat frames to detect dead connections
//
// The codec argument is accepted for compatibility with callers that still
// thread a wire-format selector through; this transport only speaks Thrift.
func NewClientTransport(conn net.Conn, _ byte) *ClientTransport {
	t := &ClientTransport{
		conn:  conn,
		codec: codec.NewClientCodec(),
	}
	go t.recvLoop()
	go t.heartbeatLoop(30 * time.Second)
	return t
}

// Send serializes args via the client codec and sends the framed request over
// the connection. Returns the sequence number and a channel that will receive
// the decoded response envelope — FillResponse still needs to run against the
// caller's own reply type, so that happens in Call, not here.
//
// Thread safety: the sending mutex ensures that the entire frame (header + body)
// is written atomically. Without this lock, concurrent writes would interleave
// bytes from different requests, corrupting the TCP stream.
func (t *ClientTransport) Send(serviceMethod string, args descriptor.IDLMessage) (uint32, <-chan *PendingResult, error) {
	t.sending.Lock()
	defer t.sending.Unlock()

	// Assign a unique sequence number for this request (protected by sending mutex)
	t.seq++
	seq := t.seq

	ctx := &rpcctx.ClientContext{FuncName: serviceMethod, RequestID: seq}
	req := t.codec.CreateRequestObject()
	if err := t.codec.FillRequest(req, args); err != nil {
		return 0, nil, err
	}

	frameBuf, err := t.codec.Encode(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	// Register a response channel BEFORE sending (avoid race with recvLoop)
	respChan := make(chan *PendingResult, 1) // Buffered to prevent recvLoop from blocking
	t.pending.Store(seq, respChan)

	if _, err := t.conn.Write(frameBuf.Bytes()); err != nil {
		t.pending.Delete(seq) // Clean up on failure
		return 0, nil, err
	}

	return seq, respChan, nil
}

// recvLoop runs in a dedicated goroutine, continuously reading responses from the connection.
// For each response, it looks up the sequence number in the pending map, finds the caller's
// channel, and sends the response. This is the core of multiplexing — responses can arrive
// in any order, and each one is routed to the correct waiting goroutine.
//
// Why a single goroutine for reading? TCP is a byte stream — reads must be sequential
// to correctly parse frame boundaries. Multiple readers would corrupt the stream.
func (t *ClientTransport) recvLoop() {
	pending := &buffer.Buffer{}
	chunk := make([]byte, readChunkSize)

	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, chunk[:n])
			pending.Append(cp)

			frames, verdict, cerr := t.codec.Check(pending)
			if verdict == frame.Err || cerr != nil {
				t.closeAllPending(fmt.Errorf("thrift: malformed response stream"))
				return
			}
			for _, f := range frames {
				t.deliver(f)
			}
		}
		if err != nil {
			t.closeAllPending(err)
			return
		}
	}
}

// deliver decodes one complete frame and routes it to the caller waiting on
// its sequence id.
func (t *ClientTransport) deliver(frameBuf *buffer.Buffer) {
	resp := t.codec.CreateResponseObject()
	err := t.codec.Decode(frameBuf, resp)

	seqID := int32(0)
	if err == nil {
		seqID = resp.Header.SequenceID
	}
	channel, ok := t.pending.LoadAndDelete(uint32(seqID))
	if !ok {
		return // no caller waiting (already timed out, or a decode failure with an unusable seq)
	}
	channel.(chan *PendingResult) <- &PendingResult{Resp: resp, Err: err}
}

// closeAllPending is called when the connection breaks. It sends an error message
// to every pending caller so they don't block forever waiting for a response.
func (t *ClientTransport) closeAllPending(err error) {
	t.pending.Range(func(key, value any) bool {
		channel := value.(chan *PendingResult)
		channel <- &PendingResult{Err: err}
		t.pending.Delete(key)
		return true
	})
}

// Conn returns the underlying TCP connection.
func (t *ClientTransport) Conn() net.Conn {
	return t.conn
}

// heartbeatLoop sends periodic heartbeat frames to keep the connection alive.
// A heartbeat is an empty-body, sequence-zero oneway call under a reserved
// function name that no registered service answers to; servers harmlessly
// reply with an unknown-method exception that no one is listening for.
func (t *ClientTransport) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		req := t.codec.CreateRequestObject()
		req.StructBody = &buffer.Buffer{}
		req.Header.FunctionName = heartbeatFuncName
		req.Header.MessageType = wire.MessageOneway
		req.Header.Strict = true

		frameBuf, err := req.Encode()
		if err != nil {
			return
		}

		t.sending.Lock()
		_, err = t.conn.Write(frameBuf.Bytes())
		t.sending.Unlock()
		if err != nil {
			return // Connection broken, exit heartbeat loop
		}
	}
}

// heartbeatFuncName is never registered as a real service method — servers
// reply with ExceptionUnknownMethod, which the heartbeat loop doesn't read.
const heartbeatFuncName = "$heartbeat:ping"
