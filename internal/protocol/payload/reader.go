package payload

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"obscuraproto/internal/protocol/protoerr"
)

// Reader holds a cursor into a Payload's parameter list and decodes one
// record at a time.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of p's parameters.
func NewReader(p Payload) *Reader {
	return &Reader{data: p.Parameters}
}

// HasMore reports whether the cursor has not yet reached the end.
func (r *Reader) HasMore() bool {
	return r.pos < len(r.data)
}

// PeekNextParamSize returns the length field of the next record without
// advancing the cursor. It fails with ErrTruncated if fewer than 4 bytes
// remain.
func (r *Reader) PeekNextParamSize() (uint32, error) {
	if len(r.data)-r.pos < paramHeaderSize {
		return 0, fmt.Errorf("peek param size: %w", protoerr.ErrTruncated)
	}
	return binary.BigEndian.Uint32(r.data[r.pos : r.pos+paramHeaderSize]), nil
}

// next reads and advances past one full record, returning its raw value
// bytes.
func (r *Reader) next() ([]byte, error) {
	length, err := r.PeekNextParamSize()
	if err != nil {
		return nil, err
	}
	start := r.pos + paramHeaderSize
	end := start + int(length)
	if end > len(r.data) {
		return nil, fmt.Errorf("read param: %w", protoerr.ErrTruncated)
	}
	r.pos = end
	return r.data[start:end], nil
}

// ReadBytes reads one record as raw bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v...), nil
}

// ReadString reads one record as a UTF-8 string. Fails with
// ErrInvalidUTF8 if the bytes are not valid UTF-8.
func (r *Reader) ReadString() (string, error) {
	v, err := r.next()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v) {
		return "", fmt.Errorf("read string: %w", protoerr.ErrInvalidUTF8)
	}
	return string(v), nil
}

// ReadBool reads one record as a boolean. The record must be exactly one
// byte (ErrWidthMismatch otherwise) whose value is 0x00 or 0x01
// (ErrInvalidBool otherwise).
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.next()
	if err != nil {
		return false, err
	}
	if len(v) != 1 {
		return false, fmt.Errorf("read bool: %w", protoerr.ErrWidthMismatch)
	}
	switch v[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("read bool: %w", protoerr.ErrInvalidBool)
	}
}

// ReadInt8 reads a strict 1-byte signed integer.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("read int8: %w", protoerr.ErrWidthMismatch)
	}
	return int8(v[0]), nil
}

// ReadUint8 reads a strict 1-byte unsigned integer.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("read uint8: %w", protoerr.ErrWidthMismatch)
	}
	return v[0], nil
}

// ReadInt16 reads a strict 2-byte little-endian signed integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 2 {
		return 0, fmt.Errorf("read int16: %w", protoerr.ErrWidthMismatch)
	}
	return int16(binary.LittleEndian.Uint16(v)), nil
}

// ReadUint16 reads a strict 2-byte little-endian unsigned integer.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 2 {
		return 0, fmt.Errorf("read uint16: %w", protoerr.ErrWidthMismatch)
	}
	return binary.LittleEndian.Uint16(v), nil
}

// ReadInt32 reads a strict 4-byte little-endian signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 4 {
		return 0, fmt.Errorf("read int32: %w", protoerr.ErrWidthMismatch)
	}
	return int32(binary.LittleEndian.Uint32(v)), nil
}

// ReadUint32 reads a strict 4-byte little-endian unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 4 {
		return 0, fmt.Errorf("read uint32: %w", protoerr.ErrWidthMismatch)
	}
	return binary.LittleEndian.Uint32(v), nil
}

// ReadInt64 reads a strict 8-byte little-endian signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("read int64: %w", protoerr.ErrWidthMismatch)
	}
	return int64(binary.LittleEndian.Uint64(v)), nil
}

// ReadUint64 reads a strict 8-byte little-endian unsigned integer.
func (r *Reader) ReadUint64() (uint64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("read uint64: %w", protoerr.ErrWidthMismatch)
	}
	return binary.LittleEndian.Uint64(v), nil
}

// ReadFloat32 reads a strict IEEE-754 binary32 little-endian value.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 4 {
		return 0, fmt.Errorf("read float32: %w", protoerr.ErrWidthMismatch)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v)), nil
}

// ReadFloat64 reads a strict IEEE-754 binary64 little-endian value.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("read float64: %w", protoerr.ErrWidthMismatch)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v)), nil
}

// ReadInt is a width-sniffing signed-integer read: it dispatches on
// PeekNextParamSize to {1,2,4,8} and sign-extends into an int64. Any
// other length fails with ErrWidthMismatch.
func (r *Reader) ReadInt() (int64, error) {
	size, err := r.PeekNextParamSize()
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		v, err := r.ReadInt8()
		return int64(v), err
	case 2:
		v, err := r.ReadInt16()
		return int64(v), err
	case 4:
		v, err := r.ReadInt32()
		return int64(v), err
	case 8:
		return r.ReadInt64()
	default:
		return 0, fmt.Errorf("read int: %w", protoerr.ErrWidthMismatch)
	}
}

// ReadUint is a width-sniffing unsigned-integer read: it dispatches on
// PeekNextParamSize to {1,2,4,8} into a uint64 whose upper bits are zero
// for narrower widths. Any other length fails with ErrWidthMismatch.
func (r *Reader) ReadUint() (uint64, error) {
	size, err := r.PeekNextParamSize()
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		v, err := r.ReadUint8()
		return uint64(v), err
	case 2:
		v, err := r.ReadUint16()
		return uint64(v), err
	case 4:
		v, err := r.ReadUint32()
		return uint64(v), err
	case 8:
		return r.ReadUint64()
	default:
		return 0, fmt.Errorf("read uint: %w", protoerr.ErrWidthMismatch)
	}
}

// ReadFloat is a width-sniffing float read: it dispatches on
// PeekNextParamSize to {4,8}. Any other length fails with
// ErrWidthMismatch.
func (r *Reader) ReadFloat() (float64, error) {
	size, err := r.PeekNextParamSize()
	if err != nil {
		return 0, err
	}
	switch size {
	case 4:
		v, err := r.ReadFloat32()
		return float64(v), err
	case 8:
		return r.ReadFloat64()
	default:
		return 0, fmt.Errorf("read float: %w", protoerr.ErrWidthMismatch)
	}
}

// ReadParam performs a strict typed read: T fixes the expected width and
// interpretation, matching the wire's length field or failing with
// ErrWidthMismatch.
func ReadParam[T Paramable](r *Reader) (T, error) {
	var zero T
	switch any(zero).(type) {
	case bool:
		v, err := r.ReadBool()
		return any(v).(T), err
	case int8:
		v, err := r.ReadInt8()
		return any(v).(T), err
	case uint8:
		v, err := r.ReadUint8()
		return any(v).(T), err
	case int16:
		v, err := r.ReadInt16()
		return any(v).(T), err
	case uint16:
		v, err := r.ReadUint16()
		return any(v).(T), err
	case int32:
		v, err := r.ReadInt32()
		return any(v).(T), err
	case uint32:
		v, err := r.ReadUint32()
		return any(v).(T), err
	case int64:
		v, err := r.ReadInt64()
		return any(v).(T), err
	case uint64:
		v, err := r.ReadUint64()
		return any(v).(T), err
	case float32:
		v, err := r.ReadFloat32()
		return any(v).(T), err
	case float64:
		v, err := r.ReadFloat64()
		return any(v).(T), err
	case string:
		v, err := r.ReadString()
		return any(v).(T), err
	case []byte:
		v, err := r.ReadBytes()
		return any(v).(T), err
	default:
		return zero, fmt.Errorf("read param: unsupported type")
	}
}
