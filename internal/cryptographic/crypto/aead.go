package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"obscuraproto/internal/keys"
)

// counterNonce little-endian-encodes counter into the low 8 bytes of a
// 24-byte XChaCha20-Poly1305 nonce, leaving the remaining bytes zero. Nonce
// derivation is fully determined by counter: fresh session keys plus a
// strictly monotonic per-direction counter make this safe without a random
// component.
func counterNonce(counter uint64) [chacha20poly1305.NonceSizeX]byte {
	var nonce [chacha20poly1305.NonceSizeX]byte
	binary.LittleEndian.PutUint64(nonce[:8], counter)
	return nonce
}

// Encrypt seals plaintext under key using the nonce derived from counter.
// The wire representation is ciphertext || tag.
func Encrypt(plaintext []byte, counter uint64, key keys.SessionKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	nonce := counterNonce(counter)
	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Decrypt opens ciphertext (which is ciphertext || tag) under key using the
// nonce derived from counter. Any tampering surfaces as an error; callers
// must map that to the protocol's AuthFailure.
func Decrypt(ciphertext []byte, counter uint64, key keys.SessionKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	nonce := counterNonce(counter)
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
