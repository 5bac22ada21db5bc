package client

import (
	"testing"
	"time"

	"trpc-thrift-go/idl/arith"
	"trpc-thrift-go/loadbalance"
	"trpc-thrift-go/middleware"
	"trpc-thrift-go/registry"
	"trpc-thrift-go/server"
)

// ---- test service ----

type ArithService struct{}

func (s *ArithService) Do(args *arith.Args, reply *arith.Reply) error {
	*reply = *arith.Do(args)
	return nil
}

// ---- mock registry (no etcd dependency) ----

type MockRegistry struct {
	instances map[string][]registry.ServiceInstance
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{instances: make(map[string][]registry.ServiceInstance)}
}

func (m *MockRegistry) Register(serviceName string, inst registry.ServiceInstance, ttl int64) error {
	m.instances[serviceName] = append(m.instances[serviceName], inst)
	return nil
}

func (m *MockRegistry) Deregister(serviceName string, addr string) error {
	insts := m.instances[serviceName]
	for i, inst := range insts {
		if inst.Addr == addr {
			m.instances[serviceName] = append(insts[:i], insts[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRegistry) Discover(serviceName string) ([]registry.ServiceInstance, error) {
	return m.instances[serviceName], nil
}

func (m *MockRegistry) Watch(serviceName string) <-chan []registry.ServiceInstance {
	return nil
}

func TestClientWithRegistryAndLB(t *testing.T) {
	svr := server.NewServer()
	svr.Use(middleware.LoggingMiddleware())
	if err := svr.Register(&ArithService{}); err != nil {
		t.Fatal(err)
	}
	go svr.Serve("tcp", ":18080", "", nil)
	time.Sleep(100 * time.Millisecond)

	reg := NewMockRegistry()
	reg.Register("ArithService", registry.ServiceInstance{Addr: "127.0.0.1:18080", Weight: 1}, 10)

	bal := &loadbalance.RoundRobinBalancer{}
	cli := NewClient(reg, bal, 4)

	reply := &arith.Reply{}
	if err := cli.Call("ArithService.Do", &arith.Args{A: 1, B: 2}, reply); err != nil {
		t.Fatal(err)
	}
	if reply.Value != 3 {
		t.Fatalf("expect 3, got %v", reply.Value)
	}

	reply2 := &arith.Reply{}
	if err := cli.Call("ArithService.Do", &arith.Args{A: 10, B: 20}, reply2); err != nil {
		t.Fatal(err)
	}
	if reply2.Value != 30 {
		t.Fatalf("expect 30, got %v", reply2.Value)
	}

	// An optional label set on the request makes the optional breakdown map
	// come back on the reply, exercising both optional paths over the wire.
	args3 := &arith.Args{A: 2, B: 3, Terms: []int32{4}}
	args3.SetLabel("calc")
	reply3 := &arith.Reply{}
	if err := cli.Call("ArithService.Do", args3, reply3); err != nil {
		t.Fatal(err)
	}
	if reply3.Value != 9 {
		t.Fatalf("expect 9, got %v", reply3.Value)
	}
	if !reply3.IsSetBreakdown() {
		t.Fatal("expect the breakdown map to be present when a label was sent")
	}
	if reply3.Breakdown["calc:base"] != 5 || reply3.Breakdown["calc:terms"] != 4 {
		t.Fatalf("unexpected breakdown: %v", reply3.Breakdown)
	}
}

func TestClientMultipleInstances(t *testing.T) {
	svr1 := server.NewServer()
	svr1.Register(&ArithService{})
	go svr1.Serve("tcp", ":18081", "", nil)

	svr2 := server.NewServer()
	svr2.Register(&ArithService{})
	go svr2.Serve("tcp", ":18082", "", nil)

	time.Sleep(100 * time.Millisecond)

	reg := NewMockRegistry()
	reg.Register("ArithService", registry.ServiceInstance{Addr: "127.0.0.1:18081", Weight: 1}, 10)
	reg.Register("ArithService", registry.ServiceInstance{Addr: "127.0.0.1:18082", Weight: 1}, 10)

	bal := &loadbalance.RoundRobinBalancer{}
	cli := NewClient(reg, bal, 4)

	// 10 requests should land on both servers under round robin
	for i := 0; i < 10; i++ {
		reply := &arith.Reply{}
		if err := cli.Call("ArithService.Do", &arith.Args{A: int32(i), B: int32(i)}, reply); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if reply.Value != int32(i*2) {
			t.Fatalf("request %d: expect %d, got %d", i, i*2, reply.Value)
		}
	}
}
