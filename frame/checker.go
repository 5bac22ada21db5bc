// Package frame detects complete Thrift frame boundaries on a byte stream.
//
// Wire format: a 4-byte big-endian signed length prefix, followed by that
// many bytes of frame body (message header + struct body). The checker
// never partially consumes a frame: bytes are only cut off the front of
// the input buffer once a full frame is present.
package frame

import (
	"encoding/binary"
	"errors"

	"trpc-thrift-go/buffer"
)

// PrefixLength is the size of the length prefix itself.
const PrefixLength = 4

// MaxFrameSize bounds a single frame body to guard against a corrupt or
// hostile length prefix forcing unbounded buffering.
const MaxFrameSize = 256 * 1024 * 1024 // 256 MiB

// Verdict is the checker's outcome for the current buffer contents.
type Verdict int

const (
	// Full means at least one complete frame was cut from in.
	Full Verdict = iota
	// Less means in holds no complete frame yet; the caller should read
	// more bytes and check again.
	Less
	// Err means the buffer is malformed (frame size out of bounds) and
	// the connection should be torn down.
	Err
)

// ErrFrameTooLarge is returned alongside Err when a length prefix exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame: frame size exceeds maximum")

// Check scans in for complete frames, cutting each one (prefix included)
// off the front and appending it to out. It loops until in no longer holds
// a full frame, so a single read that delivered several pipelined frames
// yields all of them in one call.
func Check(in *buffer.Buffer) (out []*buffer.Buffer, verdict Verdict, err error) {
	for {
		if in.ByteSize() < PrefixLength {
			break
		}

		prefix := make([]byte, PrefixLength)
		if ferr := in.FlattenTo(prefix); ferr != nil {
			return out, Err, ferr
		}
		frameSize := int32(binary.BigEndian.Uint32(prefix))

		if frameSize < 0 || frameSize > MaxFrameSize {
			return out, Err, ErrFrameTooLarge
		}

		total := PrefixLength + int(frameSize)
		if in.ByteSize() < total {
			break
		}

		frame, cerr := in.Cut(total)
		if cerr != nil {
			return out, Err, cerr
		}
		out = append(out, frame)
	}

	if len(out) == 0 {
		return out, Less, nil
	}
	return out, Full, nil
}
