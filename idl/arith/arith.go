// Package arith is a hand-written "generated" IDL service: a small
// arithmetic service whose Args/Reply structs exercise every descriptor
// kind (required, optional, default, list, map) against the descriptor
// and serialization packages, the way a real Thrift code generator's
// output would.
package arith

import (
	"sync"
	"unsafe"

	"trpc-thrift-go/descriptor"
)

// Args is the request struct for Arith.Do: two required operands, an
// optional label, and a list of extra terms folded in after the base
// operation.
type Args struct {
	A     int32
	B     int32
	Label string
	Terms []int32

	issetLabel bool
	issetTerms bool
}

var argsDescriptor = sync.OnceValue(func() *descriptor.Descriptor {
	return descriptor.Struct[Args](func() []descriptor.StructElement {
		return []descriptor.StructElement{
			{
				Desc:       descriptor.I32(),
				Name:       "a",
				FieldID:    1,
				Required:   descriptor.Required,
				DataOffset: unsafe.Offsetof(Args{}.A),
			},
			{
				Desc:       descriptor.I32(),
				Name:       "b",
				FieldID:    2,
				Required:   descriptor.Required,
				DataOffset: unsafe.Offsetof(Args{}.B),
			},
			{
				Desc:        descriptor.String(),
				Name:        "label",
				FieldID:     3,
				Required:    descriptor.Optional,
				DataOffset:  unsafe.Offsetof(Args{}.Label),
				IssetOffset: unsafe.Offsetof(Args{}.issetLabel),
			},
			{
				Desc:        descriptor.List[int32](descriptor.I32()),
				Name:        "terms",
				FieldID:     4,
				Required:    descriptor.Default,
				DataOffset:  unsafe.Offsetof(Args{}.Terms),
				IssetOffset: unsafe.Offsetof(Args{}.issetTerms),
			},
		}
	})
})

// ThriftDescriptor implements descriptor.IDLMessage.
func (a *Args) ThriftDescriptor() *descriptor.Descriptor { return argsDescriptor() }

// SetLabel sets the optional label and marks it present, so it is emitted
// on the wire.
func (a *Args) SetLabel(label string) {
	a.Label = label
	a.issetLabel = true
}

// IsSetLabel reports whether the optional label is present.
func (a *Args) IsSetLabel() bool { return a.issetLabel }

// Reply is the response struct for Arith.Do: the result, plus a breakdown
// map of named sub-results (e.g. intermediate terms), present only when
// the caller asked for Label.
type Reply struct {
	Value     int32
	Breakdown map[string]int32

	issetBreakdown bool
}

var replyDescriptor = sync.OnceValue(func() *descriptor.Descriptor {
	return descriptor.Struct[Reply](func() []descriptor.StructElement {
		return []descriptor.StructElement{
			{
				Desc:       descriptor.I32(),
				Name:       "value",
				FieldID:    1,
				Required:   descriptor.Required,
				DataOffset: unsafe.Offsetof(Reply{}.Value),
			},
			{
				Desc:        descriptor.Map[string, int32](descriptor.String(), descriptor.I32()),
				Name:        "breakdown",
				FieldID:     2,
				Required:    descriptor.Optional,
				DataOffset:  unsafe.Offsetof(Reply{}.Breakdown),
				IssetOffset: unsafe.Offsetof(Reply{}.issetBreakdown),
			},
		}
	})
})

// ThriftDescriptor implements descriptor.IDLMessage.
func (r *Reply) ThriftDescriptor() *descriptor.Descriptor { return replyDescriptor() }

// IsSetBreakdown reports whether the optional breakdown map is present.
func (r *Reply) IsSetBreakdown() bool { return r.issetBreakdown }

// Do computes A + B plus the sum of Terms, and — if Label is set and
// non-empty — fills in Breakdown with "<Label>:base" (A + B) and, when
// Terms is non-empty, "<Label>:terms" (the sum of all Terms).
func Do(args *Args) *Reply {
	sum := args.A + args.B
	reply := &Reply{Value: sum}
	for _, t := range args.Terms {
		reply.Value += t
	}
	if args.issetLabel && args.Label != "" {
		reply.Breakdown = make(map[string]int32, len(args.Terms)+1)
		reply.Breakdown[args.Label+":base"] = sum
		for _, t := range args.Terms {
			reply.Breakdown[args.Label+":terms"] += t
		}
		reply.issetBreakdown = true
	}
	return reply
}
