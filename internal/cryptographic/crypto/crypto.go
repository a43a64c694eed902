// Package crypto is the stateless façade over the primitive suite: X25519
// key exchange, Ed25519 signing, a BLAKE2b session-key KDF, and
// XChaCha20-Poly1305 record encryption. Every exported function is safe
// to call from any goroutine; none of them hold state between calls.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"sync"

	"golang.org/x/crypto/curve25519"

	"obscuraproto/internal/keys"
)

var initOnce sync.Once

// Init performs idempotent global initialization of the underlying
// primitive library. The Go primitives used here (crypto/ed25519,
// golang.org/x/crypto/curve25519, golang.org/x/crypto/chacha20poly1305)
// have no process-global state to warm, but the hook is kept so bindings
// that expect an init call, and callers migrating from a libsodium-backed
// implementation, keep working unmodified.
func Init() {
	initOnce.Do(func() {})
}

// GenerateKXKeyPair returns a fresh X25519 ephemeral key pair.
func GenerateKXKeyPair() (keys.KeyPair, error) {
	var kp keys.KeyPair
	if _, err := rand.Read(kp.PrivateKey[:keys.KXPrivateKeySize]); err != nil {
		return kp, fmt.Errorf("generate kx keypair: %w", err)
	}
	pub, err := curve25519.X25519(kp.PrivateKey[:keys.KXPrivateKeySize], curve25519.Basepoint)
	if err != nil {
		return kp, fmt.Errorf("generate kx keypair: %w", err)
	}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}

// GenerateSignKeyPair returns a fresh Ed25519 long-term signing pair.
func GenerateSignKeyPair() (keys.KeyPair, error) {
	var kp keys.KeyPair
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return kp, fmt.Errorf("generate sign keypair: %w", err)
	}
	copy(kp.PublicKey[:], pub)
	copy(kp.PrivateKey[:], priv)
	return kp, nil
}

// Sign signs message with an Ed25519 private key.
func Sign(message []byte, sk keys.PrivateKey) keys.Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(sk[:]), message)
	var out keys.Signature
	copy(out[:], sig)
	return out
}

// Verify checks an Ed25519 signature in constant time.
func Verify(signature keys.Signature, message []byte, pk keys.PublicKey) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, signature[:])
}

// x25519SharedSecret performs the raw X25519 scalar multiplication
// priv * pub.
func x25519SharedSecret(priv [keys.KXPrivateKeySize]byte, pub keys.PublicKey) ([]byte, error) {
	shared, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return nil, fmt.Errorf("x25519 shared secret: %w", err)
	}
	return shared, nil
}

// ClientComputeSessionKeys derives the client's session keys from its
// ephemeral KX pair and the server's ephemeral public key. The client's
// tx equals the server's rx, and vice versa.
func ClientComputeSessionKeys(clientKX keys.KeyPair, serverEphemeralPK keys.PublicKey) (keys.SessionKeys, error) {
	shared, err := x25519SharedSecret(clientKX.PrivateKey.KXBytes(), serverEphemeralPK)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	defer zeroBytes(shared)

	rx, err := deriveSessionKey(shared, labelServerToClient)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	tx, err := deriveSessionKey(shared, labelClientToServer)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	return keys.SessionKeys{Rx: rx, Tx: tx}, nil
}

// ServerComputeSessionKeys derives the server's session keys from its
// ephemeral KX pair and the client's ephemeral public key. The server
// labels them inversely from the client: rx = client→server,
// tx = server→client.
func ServerComputeSessionKeys(serverKX keys.KeyPair, clientEphemeralPK keys.PublicKey) (keys.SessionKeys, error) {
	shared, err := x25519SharedSecret(serverKX.PrivateKey.KXBytes(), clientEphemeralPK)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	defer zeroBytes(shared)

	rx, err := deriveSessionKey(shared, labelClientToServer)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	tx, err := deriveSessionKey(shared, labelServerToClient)
	if err != nil {
		return keys.SessionKeys{}, err
	}
	return keys.SessionKeys{Rx: rx, Tx: tx}, nil
}

func zeroBytes(b []byte) {
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}
