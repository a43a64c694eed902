// Package keys defines the fixed-width byte containers shared by the
// crypto façade, the handshake messages, and the session state machine.
package keys

import "crypto/subtle"

const (
	// PublicKeySize is the width of both KX and signing public keys.
	PublicKeySize = 32
	// KXPrivateKeySize is the width of an X25519 private scalar.
	KXPrivateKeySize = 32
	// SignPrivateKeySize is the width of an Ed25519 private key, including
	// its public tail.
	SignPrivateKeySize = 64
	// SignatureSize is the width of an Ed25519 signature.
	SignatureSize = 64
	// SessionKeySize is the width of one directional AEAD key.
	SessionKeySize = 32
)

// PublicKey is a 32-byte public key, shared shape for both KX and signing
// keys.
type PublicKey [PublicKeySize]byte

// PrivateKey is a private key. Its meaningful length depends on the flavor
// (KX: 32 bytes, Sign: 64 bytes); unused trailing bytes are zero.
type PrivateKey [SignPrivateKeySize]byte

// KXBytes returns the private key's leading 32 bytes, the X25519 scalar.
func (k PrivateKey) KXBytes() [KXPrivateKeySize]byte {
	var out [KXPrivateKeySize]byte
	copy(out[:], k[:KXPrivateKeySize])
	return out
}

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

// KeyPair pairs a public and private key. For a CLIENT-role session, only
// PublicKey is meaningful (it holds the trusted server signing key); for a
// SERVER-role session, both halves hold the server's own long-term signing
// pair.
type KeyPair struct {
	PublicKey  PublicKey
	PrivateKey PrivateKey
}

// SessionKey is one directional 32-byte AEAD key.
type SessionKey [SessionKeySize]byte

// SessionKeys is a direction-split pair derived once at handshake
// completion. Rx decrypts inbound records, Tx encrypts outbound records.
type SessionKeys struct {
	Rx SessionKey
	Tx SessionKey
}

// Zero overwrites the receiver's bytes with zeros in a way the compiler
// cannot optimize away, per the design requirement that key material be
// wiped on session destruction.
func (k *PrivateKey) Zero() {
	zero := make([]byte, len(k))
	subtle.ConstantTimeCopy(1, k[:], zero)
}

// Zero overwrites both directional keys.
func (s *SessionKeys) Zero() {
	zeroRx := make([]byte, len(s.Rx))
	subtle.ConstantTimeCopy(1, s.Rx[:], zeroRx)
	zeroTx := make([]byte, len(s.Tx))
	subtle.ConstantTimeCopy(1, s.Tx[:], zeroTx)
}
