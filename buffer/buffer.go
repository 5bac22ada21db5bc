// Package buffer implements a non-contiguous byte queue: a sequence of
// independently-owned []byte chunks that behaves like one logical stream
// without ever copying a chunk into a bigger contiguous slice unless asked.
//
// Chunks are handed over by slice header only (Skip, Cut): ownership of the
// underlying array moves from the source Buffer to the caller, it is never
// duplicated. Builder plays the write-side counterpart: it accumulates
// chunks and, once full, is destructively converted into a Buffer.
package buffer

import "errors"

// ErrShortBuffer is returned when an operation asks for more bytes than the
// buffer currently holds.
var ErrShortBuffer = errors.New("buffer: short buffer")

// Buffer is a queue of byte chunks read front-to-back.
type Buffer struct {
	chunks [][]byte
	size   int
}

// New wraps a single chunk as a Buffer. The chunk is not copied.
func New(p []byte) *Buffer {
	b := &Buffer{}
	b.Append(p)
	return b
}

// ByteSize returns the number of unread bytes.
func (b *Buffer) ByteSize() int {
	return b.size
}

// Empty reports whether there are no unread bytes left.
func (b *Buffer) Empty() bool {
	return b.size == 0
}

// Append adds p to the back of the queue without copying it. Used by
// connection read loops to feed newly-arrived network bytes into the same
// queue the frame checker and wire decoder scan.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.chunks = append(b.chunks, p)
	b.size += len(p)
}

// AppendBuffer moves all chunks of other onto the back of b, draining other.
func (b *Buffer) AppendBuffer(other *Buffer) {
	if other == nil || other.size == 0 {
		return
	}
	b.chunks = append(b.chunks, other.chunks...)
	b.size += other.size
	other.chunks = nil
	other.size = 0
}

// Skip discards the first n bytes, splitting the boundary chunk in place.
func (b *Buffer) Skip(n int) error {
	if n < 0 || n > b.size {
		return ErrShortBuffer
	}
	remaining := n
	for remaining > 0 {
		c := b.chunks[0]
		if len(c) <= remaining {
			remaining -= len(c)
			b.chunks = b.chunks[1:]
		} else {
			b.chunks[0] = c[remaining:]
			remaining = 0
		}
	}
	b.size -= n
	return nil
}

// FlattenTo copies len(dst) bytes from the front of the queue into dst
// without consuming them.
func (b *Buffer) FlattenTo(dst []byte) error {
	n := len(dst)
	if n > b.size {
		return ErrShortBuffer
	}
	off := 0
	for _, c := range b.chunks {
		if off >= n {
			break
		}
		off += copy(dst[off:], c)
	}
	return nil
}

// FlattenAndSkip is the common Read pattern: copy the next len(dst) bytes
// into dst, then discard them.
func (b *Buffer) FlattenAndSkip(dst []byte) error {
	if err := b.FlattenTo(dst); err != nil {
		return err
	}
	return b.Skip(len(dst))
}

// Cut removes and returns the first n bytes as an independent Buffer,
// splitting the boundary chunk in place. No bytes are copied.
func (b *Buffer) Cut(n int) (*Buffer, error) {
	if n < 0 || n > b.size {
		return nil, ErrShortBuffer
	}
	out := &Buffer{}
	remaining := n
	for remaining > 0 {
		c := b.chunks[0]
		if len(c) <= remaining {
			out.chunks = append(out.chunks, c)
			out.size += len(c)
			remaining -= len(c)
			b.chunks = b.chunks[1:]
		} else {
			out.chunks = append(out.chunks, c[:remaining])
			out.size += remaining
			b.chunks[0] = c[remaining:]
			remaining = 0
		}
	}
	b.size -= n
	return out, nil
}

// Bytes flattens the whole buffer into one contiguous slice. Only use this
// where a contiguous view is actually required (e.g. handing a complete
// frame to something outside this package) — prefer FlattenTo/Cut on the
// hot decode path.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.size)
	off := 0
	for _, c := range b.chunks {
		off += copy(out[off:], c)
	}
	return out
}

// Builder accumulates chunks for an outgoing message. It is write-only;
// call DestructiveGet to obtain the finished Buffer, which empties the
// Builder.
type Builder struct {
	chunks [][]byte
	size   int
}

// Append adds a chunk to the builder without copying it.
func (bd *Builder) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	bd.chunks = append(bd.chunks, p)
	bd.size += len(p)
}

// AppendBuffer moves all chunks of b onto the builder, draining b.
func (bd *Builder) AppendBuffer(b *Buffer) {
	if b == nil || b.size == 0 {
		return
	}
	bd.chunks = append(bd.chunks, b.chunks...)
	bd.size += b.size
	b.chunks = nil
	b.size = 0
}

// ByteSize returns the number of bytes appended so far.
func (bd *Builder) ByteSize() int {
	return bd.size
}

// DestructiveGet finalises the builder into a Buffer and empties it.
func (bd *Builder) DestructiveGet() *Buffer {
	out := &Buffer{chunks: bd.chunks, size: bd.size}
	bd.chunks = nil
	bd.size = 0
	return out
}
