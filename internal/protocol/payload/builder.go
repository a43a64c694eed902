package payload

import (
	"encoding/binary"
	"math"
)

// Builder constructs a Payload imperatively, one parameter at a time.
// Each Add<Type> call appends one length-prefixed parameter record and
// returns the receiver so calls can be chained. A Builder is single-use:
// call Build once to obtain the finished Payload.
type Builder struct {
	opCode uint16
	params []byte
}

// NewBuilder starts a Builder for the given opcode.
func NewBuilder(opCode uint16) *Builder {
	return &Builder{opCode: opCode}
}

// AddBytes appends a raw bytes parameter.
func (b *Builder) AddBytes(v []byte) *Builder {
	b.params = appendParam(b.params, v)
	return b
}

// AddString appends a UTF-8 string parameter, no NUL terminator.
func (b *Builder) AddString(v string) *Builder {
	b.params = appendParam(b.params, []byte(v))
	return b
}

// AddBool appends a one-byte boolean parameter.
func (b *Builder) AddBool(v bool) *Builder {
	var raw [1]byte
	if v {
		raw[0] = 0x01
	}
	b.params = appendParam(b.params, raw[:])
	return b
}

// AddInt8 appends a 1-byte signed integer parameter.
func (b *Builder) AddInt8(v int8) *Builder {
	b.params = appendParam(b.params, []byte{byte(v)})
	return b
}

// AddUint8 appends a 1-byte unsigned integer parameter.
func (b *Builder) AddUint8(v uint8) *Builder {
	b.params = appendParam(b.params, []byte{v})
	return b
}

// AddInt16 appends a 2-byte little-endian signed integer parameter.
func (b *Builder) AddInt16(v int16) *Builder {
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, uint16(v))
	b.params = appendParam(b.params, raw)
	return b
}

// AddUint16 appends a 2-byte little-endian unsigned integer parameter.
func (b *Builder) AddUint16(v uint16) *Builder {
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, v)
	b.params = appendParam(b.params, raw)
	return b
}

// AddInt32 appends a 4-byte little-endian signed integer parameter.
func (b *Builder) AddInt32(v int32) *Builder {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(v))
	b.params = appendParam(b.params, raw)
	return b
}

// AddUint32 appends a 4-byte little-endian unsigned integer parameter.
func (b *Builder) AddUint32(v uint32) *Builder {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	b.params = appendParam(b.params, raw)
	return b
}

// AddInt64 appends an 8-byte little-endian signed integer parameter.
func (b *Builder) AddInt64(v int64) *Builder {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, uint64(v))
	b.params = appendParam(b.params, raw)
	return b
}

// AddUint64 appends an 8-byte little-endian unsigned integer parameter.
func (b *Builder) AddUint64(v uint64) *Builder {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, v)
	b.params = appendParam(b.params, raw)
	return b
}

// AddFloat32 appends an IEEE-754 binary32 little-endian parameter.
func (b *Builder) AddFloat32(v float32) *Builder {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, math.Float32bits(v))
	b.params = appendParam(b.params, raw)
	return b
}

// AddFloat64 appends an IEEE-754 binary64 little-endian parameter.
func (b *Builder) AddFloat64(v float64) *Builder {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(v))
	b.params = appendParam(b.params, raw)
	return b
}

// Build returns the finished Payload.
func (b *Builder) Build() Payload {
	return Payload{OpCode: b.opCode, Parameters: b.params}
}

// AddParam appends v as a parameter, dispatching on its concrete type at
// the call site the way a generic add_param<T> would. It is an ergonomic
// alternative to the monomorphic Add<Type> methods above; both compile
// down to the same wire record.
func AddParam[T Paramable](b *Builder, v T) *Builder {
	switch x := any(v).(type) {
	case bool:
		return b.AddBool(x)
	case int8:
		return b.AddInt8(x)
	case uint8:
		return b.AddUint8(x)
	case int16:
		return b.AddInt16(x)
	case uint16:
		return b.AddUint16(x)
	case int32:
		return b.AddInt32(x)
	case uint32:
		return b.AddUint32(x)
	case int64:
		return b.AddInt64(x)
	case uint64:
		return b.AddUint64(x)
	case float32:
		return b.AddFloat32(x)
	case float64:
		return b.AddFloat64(x)
	case string:
		return b.AddString(x)
	case []byte:
		return b.AddBytes(x)
	default:
		panic("payload: unsupported AddParam type")
	}
}

// Paramable enumerates the concrete types AddParam and ReadParam accept.
type Paramable interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | string | []byte
}
