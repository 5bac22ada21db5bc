// Package server implements the RPC server with service registration, middleware chain,
// parallel request processing, and graceful shutdown.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each frame: go handleRequest (parallel processing)
//	    → ServerCodec.Decode → Middleware Chain → businessHandler (reflect.Call) → ServerCodec.Encode → write response
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"trpc-thrift-go/buffer"
	"trpc-thrift-go/codec"
	"trpc-thrift-go/descriptor"
	"trpc-thrift-go/frame"
	"trpc-thrift-go/message"
	"trpc-thrift-go/middleware"
	"trpc-thrift-go/registry"
	"trpc-thrift-go/rpcctx"
	"trpc-thrift-go/serialization"
)

// readChunkSize is the size of each net.Conn.Read call feeding the
// per-connection frame accumulator.
const readChunkSize = 4096

// Server is the RPC server that registers services and handles incoming requests.
type Server struct {
	serviceMap    map[string]*service     // Registered services: "Arith" → *service
	listener      net.Listener            // TCP listener
	wg            sync.WaitGroup          // Tracks in-flight requests for graceful shutdown
	shutdown      atomic.Bool             // Set to true during shutdown to suppress Accept errors
	middlewares   []middleware.Middleware // Registered middlewares (applied in order)
	handler       middleware.HandlerFunc  // The final handler chain: middleware(middleware(...(businessHandler)))
	registry      registry.Registry       // Service registry (etcd), nil if not using discovery
	advertiseAddr string                  // Address registered in etcd (e.g., "127.0.0.1:8080")
	// Different from listen address (":8080") because etcd needs a routable IP

	codec      *codec.ServerCodec
	serializer serialization.Serializer
}

// NewServer creates a new RPC server with an empty service map.
func NewServer() *Server {
	s := new(Server)
	s.serviceMap = make(map[string]*service)
	s.codec = codec.NewServerCodec()
	s.serializer = s.codec.Serializer
	return s
}

// Register registers a service receiver (e.g., &Arith{}) with the server.
// The struct's exported methods that match the RPC signature will be available for remote calls.
func (svr *Server) Register(rcvr any) error {
	svc, err := NewService(rcvr)
	if err != nil {
		return err
	}
	svr.serviceMap[svc.name] = svc
	return nil
}

// Serve starts the server: listens on the given address, optionally registers with etcd,
// and enters the Accept loop to handle incoming connections.
//
// Parameters:
//   - advertiseAddr: the address to register in etcd (e.g., "127.0.0.1:8080").
//     This differs from the listen address because ":8080" resolves to "[::]:8080" locally.
//   - reg: the registry implementation. Pass nil to skip service discovery.
func (svr *Server) Serve(network, address string, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen(network, address)
	svr.listener = listener

	// Build the middleware chain once at startup (not per-request)
	// Chain wraps middlewares in reverse order to create the onion model:
	//   Chain(A, B, C)(handler) → A(B(C(handler)))
	//   Execution order: A.before → B.before → C.before → handler → C.after → B.after → A.after
	svr.handler = middleware.Chain(svr.middlewares...)(svr.businessHandler)

	if err != nil {
		return err
	}

	// Register all services to etcd (if registry is provided)
	svr.advertiseAddr = advertiseAddr
	if reg != nil {
		svr.registry = reg
		for serviceName := range svr.serviceMap {
			svr.registry.Register(serviceName, registry.ServiceInstance{
				Addr: advertiseAddr,
			}, 10) // TTL = 10 seconds, KeepAlive renews automatically
		}
	}

	// Accept loop: one goroutine per connection
	for {
		conn, err := listener.Accept()
		if err != nil {
			// During shutdown, listener.Close() causes Accept to return an error.
			// Check the shutdown flag to distinguish intentional close from real errors.
			if svr.shutdown.Load() {
				return nil
			} else {
				return err
			}
		}
		go svr.handleConn(conn)
	}
}

// Use registers a middleware. Middlewares are applied in the order they are added.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// handleConn processes a single TCP connection.
// It runs a read loop in a single goroutine (reads must be sequential to accumulate
// the byte stream the frame checker scans), but dispatches each complete frame to
// its own goroutine for parallel processing.
//
// A per-connection write mutex (writeMu) is shared among all request goroutines on this connection.
// This prevents frame interleaving when multiple goroutines write responses concurrently.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	writeMu := &sync.Mutex{} // Per-connection write lock, shared by all requests on this conn
	pending := &buffer.Buffer{}
	chunk := make([]byte, readChunkSize)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, chunk[:n])
			pending.Append(cp)

			frames, verdict, cerr := svr.codec.Check(pending)
			if verdict == frame.Err || cerr != nil {
				return // malformed stream, tear down the connection
			}
			for _, f := range frames {
				go svr.handleRequest(f, conn, writeMu)
			}
		}
		if err != nil {
			return // connection closed or read error
		}
	}
}

// handleRequest processes a single RPC frame: decode → middleware → business logic → encode → write.
//
// The protocol layer (codec encode/decode, frame write) is separated from the business layer
// (service lookup, reflection call) to allow middleware to wrap only the business logic.
func (svr *Server) handleRequest(frameBuf *buffer.Buffer, conn net.Conn, writeMu *sync.Mutex) {
	// Track this request for graceful shutdown (wg.Wait ensures all in-flight requests complete)
	svr.wg.Add(1)
	defer svr.wg.Done()

	req := svr.codec.CreateRequestObject()
	ctx := &rpcctx.ServerContext{}
	if err := svr.codec.Decode(frameBuf, req, ctx); err != nil {
		// Decode failure carries no usable sequence id to reply against.
		log.Println("thrift: failed to decode request frame:", err)
		return
	}

	// Step 1: build the business envelope from the undeserialized struct bytes
	msg := &message.RPCMessage{
		ServiceMethod: req.Header.FunctionName,
		Payload:       req.StructBody.Bytes(),
	}

	// Step 2: run through the middleware chain → business handler
	rpcMessage := svr.handler(context.Background(), msg)

	// Step 3: translate the business outcome into a framework status
	if rpcMessage.Error == "" {
		ctx.Status = rpcctx.Status{FrameworkCode: rpcctx.Success}
	} else {
		code := rpcMessage.Code
		if code == rpcctx.Success {
			code = rpcctx.InvokeUnknownErr
		}
		ctx.Status = rpcctx.Status{FrameworkCode: code, Message: rpcMessage.Error}
	}

	// Step 4: encode and write the response (protected by per-connection write lock)
	writeMu.Lock()
	defer writeMu.Unlock()

	resp := svr.codec.CreateResponseObject()
	out, err := svr.codec.Encode(ctx, resp, req, rpcMessage.Payload)
	if err != nil {
		log.Println("thrift: failed to encode response:", err)
		return
	}
	if _, err := conn.Write(out.Bytes()); err != nil {
		log.Println("thrift: failed to write response:", err)
	}
}

// Shutdown performs graceful shutdown:
//  1. Deregister all services from etcd (clients stop routing to this server)
//  2. Set shutdown flag (so Accept error is recognized as intentional)
//  3. Close the listener (stop accepting new connections)
//  4. Wait for in-flight requests to finish (with timeout)
func (svr *Server) Shutdown(timeout time.Duration) error {
	// Step 1: Deregister from etcd FIRST — so clients stop sending new requests
	for serviceName := range svr.serviceMap {
		if svr.registry != nil {
			svr.registry.Deregister(serviceName, svr.advertiseAddr)
		}
	}

	// Step 2: Set shutdown flag BEFORE closing listener
	// If we close first, the Accept error fires before the flag is set,
	// and Serve() would return a real error instead of nil
	svr.shutdown.Store(true)
	svr.listener.Close()

	// Step 3: Wait for in-flight requests with timeout
	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil // All requests completed
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}

// businessHandler is the core handler that dispatches RPC requests to registered services.
// It is wrapped by the middleware chain and has the HandlerFunc signature.
//
// Flow: parse "Service:Method" → find service → find method → reflect.New(args) →
// deserialize(payload, args) → reflect.Call → serialize(reply) → return RPCMessage
func (svr *Server) businessHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	// Parse "ServiceName:MethodName" (the same convention used for response demuxing)
	idx := strings.LastIndex(req.ServiceMethod, ":")
	if idx < 0 {
		return &message.RPCMessage{Error: "invalid service method format", Code: rpcctx.ServerDecodeErr}
	}
	serviceName := req.ServiceMethod[:idx]
	methodName := req.ServiceMethod[idx+1:]

	// Look up the service and method in the registry
	svc, ok := svr.serviceMap[serviceName]
	if !ok {
		return &message.RPCMessage{Error: fmt.Sprintf("unknown service %q", serviceName), Code: rpcctx.ServerNoServiceErr}
	}
	method, ok := svc.method[methodName]
	if !ok {
		return &message.RPCMessage{Error: fmt.Sprintf("unknown method %q", methodName), Code: rpcctx.ServerNoFuncErr}
	}

	// Create new instances of args and reply types via reflection
	argv := reflect.New(method.ArgType)     // e.g., reflect.New(Args) → *Args
	replyv := reflect.New(method.ReplyType) // e.g., reflect.New(Reply) → *Reply

	// Deserialize the request payload into the args struct
	args := argv.Interface().(descriptor.IDLMessage)
	if err := svr.serializer.Deserialize(buffer.New(req.Payload), args); err != nil {
		return &message.RPCMessage{Error: err.Error(), Code: rpcctx.ServerDecodeErr}
	}

	// Invoke the method via reflection: receiver.Method(args, reply)
	methodErr := svc.Call(method, argv, replyv)

	// Serialize the reply struct
	reply := replyv.Interface().(descriptor.IDLMessage)
	builder := &buffer.Builder{}
	if err := svr.serializer.Serialize(reply, builder); err != nil {
		return &message.RPCMessage{Error: err.Error(), Code: rpcctx.ServerEncodeErr}
	}

	// Build the response RPCMessage
	rpcMessage := &message.RPCMessage{
		ServiceMethod: req.ServiceMethod,
		Payload:       builder.DestructiveGet().Bytes(),
	}
	if methodErr != nil {
		rpcMessage.Error = methodErr.Error()
	}
	return rpcMessage
}
