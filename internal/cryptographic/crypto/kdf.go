package crypto

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"obscuraproto/internal/keys"
)

// Direction labels domain-separate the two session keys derived from one
// DH shared secret. They must be agreed on by both roles: whichever label
// the server computes as "rx" the client must compute as "tx".
var (
	labelClientToServer = []byte("obscura-c2s")
	labelServerToClient = []byte("obscura-s2c")
)

// deriveSessionKey reproduces the behavioral contract spec'd for
// crypto_kx_*_session_keys: a keyed BLAKE2b-256 hash of the shared secret,
// domain-separated by direction label, deterministic on its inputs.
func deriveSessionKey(sharedSecret, label []byte) (keys.SessionKey, error) {
	var out keys.SessionKey
	h, err := blake2b.New256(sharedSecret)
	if err != nil {
		return out, fmt.Errorf("derive session key: %w", err)
	}
	if _, err := h.Write(label); err != nil {
		return out, fmt.Errorf("derive session key: %w", err)
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}
