// Package handshake defines the two wire messages exchanged before any
// record traffic: ClientHello and ServerHello. Both use a compact
// big-endian length-prefixed serialization; see Serialize/Deserialize on
// each type for the exact byte layout.
package handshake

import (
	"encoding/binary"
	"fmt"

	"obscuraproto/internal/keys"
	"obscuraproto/internal/protocol/protoerr"
	"obscuraproto/internal/protocol/version"
)

// ClientHello is the client's opening handshake message.
//
// Wire layout:
//
//	u16  n = len(supported_versions)
//	u16  versions[n]             // big-endian
//	byte ephemeral_pk[32]
type ClientHello struct {
	SupportedVersions []version.Version
	EphemeralPK       keys.PublicKey
}

// Serialize emits the ClientHello wire layout.
func (c ClientHello) Serialize() []byte {
	n := len(c.SupportedVersions)
	buf := make([]byte, 2+2*n+keys.PublicKeySize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(n))
	for i, v := range c.SupportedVersions {
		off := 2 + 2*i
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(v))
	}
	copy(buf[2+2*n:], c.EphemeralPK[:])
	return buf
}

// DeserializeClientHello is the inverse of Serialize. It fails with
// ErrMalformedMessage if the input is truncated, has a trailing tail, or
// the version count is zero.
func DeserializeClientHello(data []byte) (ClientHello, error) {
	var ch ClientHello
	if len(data) < 2 {
		return ch, fmt.Errorf("deserialize client hello: %w", protoerr.ErrMalformedMessage)
	}
	n := int(binary.BigEndian.Uint16(data[0:2]))
	if n == 0 {
		return ch, fmt.Errorf("deserialize client hello: empty version list: %w", protoerr.ErrMalformedMessage)
	}
	want := 2 + 2*n + keys.PublicKeySize
	if len(data) != want {
		return ch, fmt.Errorf("deserialize client hello: %w", protoerr.ErrMalformedMessage)
	}

	versions := make([]version.Version, n)
	for i := 0; i < n; i++ {
		off := 2 + 2*i
		versions[i] = version.Version(binary.BigEndian.Uint16(data[off : off+2]))
	}

	var pk keys.PublicKey
	copy(pk[:], data[2+2*n:])

	ch.SupportedVersions = versions
	ch.EphemeralPK = pk
	return ch, nil
}

// ServerHello is the server's handshake response.
//
// Wire layout:
//
//	u16  selected_version
//	byte ephemeral_pk[32]
//	byte signature[64]
type ServerHello struct {
	SelectedVersion version.Version
	EphemeralPK     keys.PublicKey
	Signature       keys.Signature
}

const serverHelloWireLen = 2 + keys.PublicKeySize + keys.SignatureSize

// Serialize emits the ServerHello wire layout.
func (s ServerHello) Serialize() []byte {
	buf := make([]byte, serverHelloWireLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(s.SelectedVersion))
	copy(buf[2:2+keys.PublicKeySize], s.EphemeralPK[:])
	copy(buf[2+keys.PublicKeySize:], s.Signature[:])
	return buf
}

// DeserializeServerHello is the inverse of Serialize. It fails with
// ErrMalformedMessage if the input length does not match exactly.
func DeserializeServerHello(data []byte) (ServerHello, error) {
	var sh ServerHello
	if len(data) != serverHelloWireLen {
		return sh, fmt.Errorf("deserialize server hello: %w", protoerr.ErrMalformedMessage)
	}
	sh.SelectedVersion = version.Version(binary.BigEndian.Uint16(data[0:2]))
	copy(sh.EphemeralPK[:], data[2:2+keys.PublicKeySize])
	copy(sh.Signature[:], data[2+keys.PublicKeySize:])
	return sh, nil
}

// Transcript returns the 64-byte string signed by the server to bind the
// handshake to its long-term identity: client_ephemeral_pk ||
// server_ephemeral_pk, client first.
func Transcript(clientEphemeralPK, serverEphemeralPK keys.PublicKey) []byte {
	out := make([]byte, 0, keys.PublicKeySize*2)
	out = append(out, clientEphemeralPK[:]...)
	out = append(out, serverEphemeralPK[:]...)
	return out
}
