// Package payload implements the self-describing, length-prefixed,
// typed parameter list carried inside every session record: Payload,
// Builder, and Reader. The wire format carries no type tag — only a
// length — so signed/unsigned width and float/integer distinctions are
// resolved entirely by the call site, both when writing (a monomorphic
// Add<Type> method) and when reading (a strict typed ReadParam[T], or a
// width-sniffing ReadInt/ReadUint/ReadFloat).
package payload

import (
	"encoding/binary"
	"fmt"

	"obscuraproto/internal/protocol/protoerr"
)

// Payload is the plaintext carried inside one record: an application
// opcode plus a self-describing parameter list.
//
// Wire layout:
//
//	u16  op_code         // big-endian
//	byte parameters[...] // remainder of the message
type Payload struct {
	OpCode     uint16
	Parameters []byte
}

// Serialize emits the Payload wire layout.
func (p Payload) Serialize() []byte {
	buf := make([]byte, 2+len(p.Parameters))
	binary.BigEndian.PutUint16(buf[0:2], p.OpCode)
	copy(buf[2:], p.Parameters)
	return buf
}

// Deserialize is the inverse of Serialize. The parameters tail is
// captured opaque; its own records are validated lazily by Reader.
func Deserialize(data []byte) (Payload, error) {
	if len(data) < 2 {
		return Payload{}, fmt.Errorf("deserialize payload: %w", protoerr.ErrMalformedMessage)
	}
	return Payload{
		OpCode:     binary.BigEndian.Uint16(data[0:2]),
		Parameters: append([]byte(nil), data[2:]...),
	}, nil
}

// paramHeaderSize is the width of the u32 length prefix on every
// parameter record.
const paramHeaderSize = 4

// appendParam appends one parameter record (u32 big-endian length,
// followed by value) to buf.
func appendParam(buf []byte, value []byte) []byte {
	header := make([]byte, paramHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(value)))
	buf = append(buf, header...)
	buf = append(buf, value...)
	return buf
}
