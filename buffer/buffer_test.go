package buffer

import "testing"

func TestSkipAndFlatten(t *testing.T) {
	b := New([]byte("hello"))
	b.Append([]byte("world"))

	if b.ByteSize() != 10 {
		t.Fatalf("expect 10 bytes, got %d", b.ByteSize())
	}

	dst := make([]byte, 5)
	if err := b.FlattenTo(dst); err != nil {
		t.Fatal(err)
	}
	if string(dst) != "hello" {
		t.Fatalf("expect 'hello', got %q", dst)
	}
	if b.ByteSize() != 10 {
		t.Fatalf("FlattenTo must not consume bytes, size now %d", b.ByteSize())
	}

	if err := b.Skip(5); err != nil {
		t.Fatal(err)
	}
	if b.ByteSize() != 5 {
		t.Fatalf("expect 5 bytes left after skip, got %d", b.ByteSize())
	}
	if string(b.Bytes()) != "world" {
		t.Fatalf("expect 'world' left, got %q", b.Bytes())
	}
}

func TestSkipPastEndFails(t *testing.T) {
	b := New([]byte("ab"))
	if err := b.Skip(3); err != ErrShortBuffer {
		t.Fatalf("expect ErrShortBuffer, got %v", err)
	}
}

// TestCutEquivalence verifies that flatten_to followed by skip of the same
// n is equivalent to a cut whose contents are discarded.
func TestCutEquivalence(t *testing.T) {
	a := New([]byte("abcdef"))
	dst := make([]byte, 3)
	if err := a.FlattenTo(dst); err != nil {
		t.Fatal(err)
	}
	if err := a.Skip(3); err != nil {
		t.Fatal(err)
	}

	b := New([]byte("abcdef"))
	cut, err := b.Cut(3)
	if err != nil {
		t.Fatal(err)
	}

	if string(dst) != string(cut.Bytes()) {
		t.Fatalf("flatten+skip content %q != cut content %q", dst, cut.Bytes())
	}
	if a.ByteSize() != b.ByteSize() {
		t.Fatalf("remaining size mismatch: %d vs %d", a.ByteSize(), b.ByteSize())
	}
	if string(a.Bytes()) != string(b.Bytes()) {
		t.Fatalf("remaining content mismatch: %q vs %q", a.Bytes(), b.Bytes())
	}
}

func TestCutAcrossChunkBoundary(t *testing.T) {
	b := New([]byte("ab"))
	b.Append([]byte("cde"))
	b.Append([]byte("fg"))

	cut, err := b.Cut(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(cut.Bytes()) != "abcd" {
		t.Fatalf("expect 'abcd', got %q", cut.Bytes())
	}
	if string(b.Bytes()) != "efg" {
		t.Fatalf("expect 'efg' left, got %q", b.Bytes())
	}
}

func TestBuilderDestructiveGet(t *testing.T) {
	var bd Builder
	bd.Append([]byte("foo"))
	bd.AppendBuffer(New([]byte("bar")))

	if bd.ByteSize() != 6 {
		t.Fatalf("expect 6 bytes, got %d", bd.ByteSize())
	}

	out := bd.DestructiveGet()
	if string(out.Bytes()) != "foobar" {
		t.Fatalf("expect 'foobar', got %q", out.Bytes())
	}
	if bd.ByteSize() != 0 {
		t.Fatalf("builder should be empty after DestructiveGet, got %d bytes", bd.ByteSize())
	}
}
