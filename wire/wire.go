// Package wire implements the Thrift binary protocol primitives: the
// wire-level type/message enumerations, and a Buffer that reads and writes
// them against a non-contiguous byte queue (package buffer).
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"trpc-thrift-go/buffer"

	"go.uber.org/zap"
)

// Type is the Thrift wire type tag written before every field and list/
// set/map element.
type Type int8

const (
	TypeStop   Type = 0
	TypeVoid   Type = 1
	TypeBool   Type = 2
	TypeI08    Type = 3
	TypeDouble Type = 4
	TypeI16    Type = 6
	TypeI32    Type = 8
	TypeU64    Type = 9
	TypeI64    Type = 10
	TypeString Type = 11
	TypeStruct Type = 12
	TypeMap    Type = 13
	TypeSet    Type = 14
	TypeList   Type = 15
	TypeUtf8   Type = 16
	TypeUtf16  Type = 17
)

func (t Type) String() string {
	switch t {
	case TypeStop:
		return "stop"
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeI08:
		return "i08"
	case TypeDouble:
		return "double"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeU64:
		return "u64"
	case TypeI64:
		return "i64"
	case TypeString:
		return "string"
	case TypeStruct:
		return "struct"
	case TypeMap:
		return "map"
	case TypeSet:
		return "set"
	case TypeList:
		return "list"
	case TypeUtf8:
		return "utf8"
	case TypeUtf16:
		return "utf16"
	default:
		return fmt.Sprintf("type(%d)", int8(t))
	}
}

// MessageType identifies the kind of RPC envelope: call, reply, exception
// or oneway.
type MessageType int8

const (
	MessageCall      MessageType = 1
	MessageReply     MessageType = 2
	MessageException MessageType = 3
	MessageOneway    MessageType = 4
)

// thriftVersion1/thriftVersionMask encode 0x80010000 / 0xffff0000. These
// cannot be Go integer constants (0x80010000 does not fit in a signed
// int32 constant expression) so they are computed once at init time via an
// unsigned-to-signed bit reinterpretation, which is what the runtime
// conversion actually does.
var (
	thriftVersion1Unsigned    uint32 = 0x80010000
	thriftVersionMaskUnsigned uint32 = 0xffff0000
	thriftVersion1                  = int32(thriftVersion1Unsigned)
	thriftVersionMask               = int32(thriftVersionMaskUnsigned)
)

var log = zap.NewNop()

// SetLogger installs the zap logger used for the tolerated-but-logged
// version mismatch in ReadMessageBegin.
func SetLogger(l *zap.Logger) {
	if l != nil {
		log = l
	}
}

// Buffer reads and writes Thrift binary primitives against a non-contiguous
// byte queue. A Buffer used only for reading needs only In; one used only
// for writing needs only Out.
type Buffer struct {
	In  *buffer.Buffer
	Out *buffer.Builder
}

// NewReader wraps an existing Buffer for decoding.
func NewReader(in *buffer.Buffer) *Buffer {
	return &Buffer{In: in}
}

// NewWriter wraps a fresh Builder for encoding.
func NewWriter(out *buffer.Builder) *Buffer {
	return &Buffer{Out: out}
}

func (b *Buffer) read(n int) ([]byte, error) {
	tmp := make([]byte, n)
	if err := b.In.FlattenAndSkip(tmp); err != nil {
		return nil, err
	}
	return tmp, nil
}

func (b *Buffer) write(p []byte) (uint32, error) {
	b.Out.Append(p)
	return uint32(len(p)), nil
}

// ReadBool reads a single byte and normalises it to a boolean: any
// non-zero byte is true.
func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadI08()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// WriteBool writes a normalised 0/1 byte regardless of the bit pattern the
// caller's bool happens to carry.
func (b *Buffer) WriteBool(v bool) (uint32, error) {
	var x int8
	if v {
		x = 1
	}
	return b.WriteI08(x)
}

func (b *Buffer) ReadI08() (int8, error) {
	p, err := b.read(1)
	if err != nil {
		return 0, err
	}
	return int8(p[0]), nil
}

func (b *Buffer) WriteI08(val int8) (uint32, error) {
	return b.write([]byte{byte(val)})
}

func (b *Buffer) ReadI16() (int16, error) {
	p, err := b.read(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(p)), nil
}

func (b *Buffer) WriteI16(val int16) (uint32, error) {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, uint16(val))
	return b.write(p)
}

func (b *Buffer) ReadI32() (int32, error) {
	p, err := b.read(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p)), nil
}

func (b *Buffer) WriteI32(val int32) (uint32, error) {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, uint32(val))
	return b.write(p)
}

func (b *Buffer) ReadI64() (int64, error) {
	p, err := b.read(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(p)), nil
}

func (b *Buffer) WriteI64(val int64) (uint32, error) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, uint64(val))
	return b.write(p)
}

func (b *Buffer) ReadU64() (uint64, error) {
	p, err := b.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

func (b *Buffer) WriteU64(val uint64) (uint32, error) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, val)
	return b.write(p)
}

func (b *Buffer) ReadDouble() (float64, error) {
	bits, err := b.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (b *Buffer) WriteDouble(val float64) (uint32, error) {
	return b.WriteU64(math.Float64bits(val))
}

// ReadStringBody reads slen raw bytes as a string. A negative slen is a
// protocol error; a zero slen yields the empty string without touching the
// buffer.
func (b *Buffer) ReadStringBody(slen int32) (string, error) {
	if slen < 0 {
		return "", fmt.Errorf("wire: negative string length %d", slen)
	}
	if slen == 0 {
		return "", nil
	}
	p, err := b.read(int(slen))
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func (b *Buffer) ReadString() (string, error) {
	slen, err := b.ReadI32()
	if err != nil {
		return "", err
	}
	return b.ReadStringBody(slen)
}

func (b *Buffer) WriteString(s string) (uint32, error) {
	n, err := b.WriteI32(int32(len(s)))
	if err != nil {
		return n, err
	}
	m, err := b.write([]byte(s))
	return n + m, err
}

// ReadFieldBegin reads a field's wire type and, unless it is the struct
// terminator, its field id.
func (b *Buffer) ReadFieldBegin() (Type, int16, error) {
	t, err := b.ReadI08()
	if err != nil {
		return 0, 0, err
	}
	ft := Type(t)
	if ft == TypeStop {
		return ft, 0, nil
	}
	id, err := b.ReadI16()
	if err != nil {
		return 0, 0, err
	}
	return ft, id, nil
}

func (b *Buffer) WriteFieldBegin(t Type, id int16) (uint32, error) {
	n, err := b.WriteI08(int8(t))
	if err != nil {
		return n, err
	}
	m, err := b.WriteI16(id)
	return n + m, err
}

func (b *Buffer) WriteFieldStop() (uint32, error) {
	return b.WriteI08(int8(TypeStop))
}

// ReadMessageBegin reads a message header in either strict (negative i32
// header, high bits carry 0x8001) or non-strict (i32 header is the method
// name length) form. A version mismatch in strict mode is logged and
// tolerated: the low byte still carries a usable message type.
func (b *Buffer) ReadMessageBegin() (name string, msgType MessageType, seqID int32, strict bool, err error) {
	var header int32
	header, err = b.ReadI32()
	if err != nil {
		return
	}
	if header < 0 {
		strict = true
		version := header & thriftVersionMask
		if version != thriftVersion1 {
			log.Warn("thrift: message version mismatch, tolerating",
				zap.Int32("want", thriftVersion1), zap.Int32("got", version))
		}
		if name, err = b.ReadString(); err != nil {
			return
		}
		msgType = MessageType(header & 0xFF)
		seqID, err = b.ReadI32()
		return
	}

	strict = false
	if name, err = b.ReadStringBody(header); err != nil {
		return
	}
	var mt int8
	if mt, err = b.ReadI08(); err != nil {
		return
	}
	msgType = MessageType(mt)
	seqID, err = b.ReadI32()
	return
}

// WriteMessageBegin writes the message header in the requested form.
func (b *Buffer) WriteMessageBegin(name string, msgType MessageType, seqID int32, strict bool) (uint32, error) {
	var total uint32
	if strict {
		version := thriftVersion1 | int32(msgType)
		n, err := b.WriteI32(version)
		total += n
		if err != nil {
			return total, err
		}
		n, err = b.WriteString(name)
		total += n
		if err != nil {
			return total, err
		}
		n, err = b.WriteI32(seqID)
		total += n
		return total, err
	}

	n, err := b.WriteString(name)
	total += n
	if err != nil {
		return total, err
	}
	n, err = b.WriteI08(int8(msgType))
	total += n
	if err != nil {
		return total, err
	}
	n, err = b.WriteI32(seqID)
	total += n
	return total, err
}

// Skip consumes and discards one value of the given wire type, recursing
// into structs, maps, sets and lists the same way the decoder would if it
// actually cared about the value. Used both for protocol-evolution
// (unknown field ids) and for unknown-typed fields inside known structs.
func (b *Buffer) Skip(t Type) error {
	switch t {
	case TypeBool, TypeI08:
		_, err := b.ReadI08()
		return err
	case TypeI16:
		_, err := b.ReadI16()
		return err
	case TypeI32:
		_, err := b.ReadI32()
		return err
	case TypeI64, TypeU64, TypeDouble:
		_, err := b.ReadI64()
		return err
	case TypeString:
		_, err := b.ReadString()
		return err
	case TypeStruct:
		for {
			ft, _, err := b.ReadFieldBegin()
			if err != nil {
				return err
			}
			if ft == TypeStop {
				return nil
			}
			if err := b.Skip(ft); err != nil {
				return err
			}
		}
	case TypeMap:
		keyType, err := b.ReadI08()
		if err != nil {
			return err
		}
		valType, err := b.ReadI08()
		if err != nil {
			return err
		}
		size, err := b.ReadI32()
		if err != nil {
			return err
		}
		for i := int32(0); i < size; i++ {
			if err := b.Skip(Type(keyType)); err != nil {
				return err
			}
			if err := b.Skip(Type(valType)); err != nil {
				return err
			}
		}
		return nil
	case TypeSet, TypeList:
		valType, err := b.ReadI08()
		if err != nil {
			return err
		}
		size, err := b.ReadI32()
		if err != nil {
			return err
		}
		for i := int32(0); i < size; i++ {
			if err := b.Skip(Type(valType)); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
