package frame

import (
	"encoding/binary"
	"testing"

	"trpc-thrift-go/buffer"
)

func i32Bytes(v int32) []byte {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, uint32(v))
	return p
}

// Empty buffer.
func TestCheckEmptyBuffer(t *testing.T) {
	in := &buffer.Buffer{}
	out, verdict, err := Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != Less {
		t.Fatalf("expect Less, got %v", verdict)
	}
	if len(out) != 0 {
		t.Fatalf("expect no frames, got %d", len(out))
	}
	if in.ByteSize() != 0 {
		t.Fatalf("expect input untouched, got %d bytes", in.ByteSize())
	}
}

// Single-byte stub, not even a full length prefix.
func TestCheckSingleByteStub(t *testing.T) {
	in := buffer.New([]byte{0x01})
	out, verdict, err := Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != Less {
		t.Fatalf("expect Less, got %v", verdict)
	}
	if len(out) != 0 {
		t.Fatalf("expect no frames, got %d", len(out))
	}
	if in.ByteSize() != 1 {
		t.Fatalf("expect 1 byte still buffered, got %d", in.ByteSize())
	}
}

// Oversize prefix.
func TestCheckOversizePrefix(t *testing.T) {
	in := buffer.New(i32Bytes(268435457)) // MaxFrameSize + 1
	out, verdict, err := Check(in)
	if err == nil {
		t.Fatal("expect an error for an oversize frame")
	}
	if verdict != Err {
		t.Fatalf("expect Err, got %v", verdict)
	}
	if len(out) != 0 {
		t.Fatalf("expect no frames, got %d", len(out))
	}
}

// Partial frame: declared length 4, only 1 body byte available.
func TestCheckPartialFrame(t *testing.T) {
	in := buffer.New(i32Bytes(4))
	in.Append([]byte{0x01})
	_, verdict, err := Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != Less {
		t.Fatalf("expect Less, got %v", verdict)
	}
}

// Single complete frame.
func TestCheckSingleCompleteFrame(t *testing.T) {
	in := buffer.New(i32Bytes(4))
	in.Append(i32Bytes(1))
	out, verdict, err := Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != Full {
		t.Fatalf("expect Full, got %v", verdict)
	}
	if len(out) != 1 {
		t.Fatalf("expect 1 frame, got %d", len(out))
	}
	if in.ByteSize() != 0 {
		t.Fatalf("expect input buffer drained, got %d bytes left", in.ByteSize())
	}
	if out[0].ByteSize() != 8 {
		t.Fatalf("expect emitted frame to carry the 4-byte prefix plus 4-byte body, got %d", out[0].ByteSize())
	}
}

// N pipelined complete frames in one buffer yield exactly N frames and an
// empty input buffer.
func TestCheckMultipleFramesInOneBuffer(t *testing.T) {
	in := &buffer.Buffer{}
	const n = 3
	for i := int32(0); i < n; i++ {
		in.Append(i32Bytes(4))
		in.Append(i32Bytes(i))
	}

	out, verdict, err := Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != Full {
		t.Fatalf("expect Full, got %v", verdict)
	}
	if len(out) != n {
		t.Fatalf("expect %d frames, got %d", n, len(out))
	}
	if in.ByteSize() != 0 {
		t.Fatalf("expect input buffer drained, got %d bytes left", in.ByteSize())
	}
}
