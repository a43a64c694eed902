// Package session drives the two-message handshake and enforces nonce
// discipline on the duplex AEAD record stream that results from it. A
// Session is owned by one goroutine tree. An internal
// mutex is held for the whole of each exported call, so concurrent
// calls are serialized one at a time; the mutex is not re-entrant.
package session

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"obscuraproto/internal/cryptographic/crypto"
	"obscuraproto/internal/keys"
	"obscuraproto/internal/protocol/handshake"
	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/protocol/protoerr"
	"obscuraproto/internal/protocol/version"
)

// Role identifies which side of the handshake a Session plays.
type Role int

const (
	// RoleClient is the handshake initiator. Its KeyPair holds only the
	// trusted server signing public key.
	RoleClient Role = iota
	// RoleServer is the handshake responder. Its KeyPair holds the
	// server's own long-term signing pair.
	RoleServer
)

// state is the internal handshake state machine.
type state int

const (
	stateInit state = iota
	stateAwaitServerHello
	stateEstablished
	stateFailed
)

// Session is a stateful handshake driver plus duplex AEAD record layer.
// Zero value is not usable; construct with New.
type Session struct {
	mu sync.Mutex

	role       Role
	identity   keys.KeyPair
	ephemeral  keys.KeyPair
	haveEphem  bool
	st         state
	selVersion version.Version
	haveVer    bool
	sessKeys   keys.SessionKeys
	txCounter  uint64
	rxCounter  uint64
}

// New constructs a Session. For RoleClient, keyPair.PublicKey must hold
// the trusted server signing public key (the private half is unused).
// For RoleServer, keyPair must be the server's own long-term signing
// pair.
func New(role Role, keyPair keys.KeyPair) *Session {
	return &Session{
		role:     role,
		identity: keyPair,
		st:       stateInit,
	}
}

// IsHandshakeComplete is the boolean view of the state machine.
func (s *Session) IsHandshakeComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st == stateEstablished
}

// GetSelectedVersion returns the negotiated version after handshake
// completion, or ok=false before that.
func (s *Session) GetSelectedVersion() (version.Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selVersion, s.haveVer
}

// RxCounter is a read-only accessor for the next expected inbound
// counter, for integrators that need counter inspection without
// changing decrypt_packet's return shape.
func (s *Session) RxCounter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rxCounter
}

// Close zeroes session key material and identity private-key bytes. A
// Session must not be used after Close.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessKeys.Zero()
	s.identity.PrivateKey.Zero()
	s.ephemeral.PrivateKey.Zero()
}

// fail transitions the session to FAILED. Once failed, every operation
// refuses with ErrInvalidState.
func (s *Session) fail() {
	s.st = stateFailed
}

// ClientInitiateHandshake asserts state INIT, generates the client's
// ephemeral KX pair, and returns the ClientHello to send to the server.
func (s *Session) ClientInitiateHandshake() (handshake.ClientHello, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != RoleClient {
		s.fail()
		return handshake.ClientHello{}, fmt.Errorf("client_initiate_handshake: wrong role: %w", protoerr.ErrInvalidState)
	}
	if s.st != stateInit {
		s.fail()
		return handshake.ClientHello{}, fmt.Errorf("client_initiate_handshake: %w", protoerr.ErrInvalidState)
	}

	ephem, err := crypto.GenerateKXKeyPair()
	if err != nil {
		s.fail()
		return handshake.ClientHello{}, fmt.Errorf("client_initiate_handshake: %w", err)
	}
	s.ephemeral = ephem
	s.haveEphem = true
	s.st = stateAwaitServerHello

	return handshake.ClientHello{
		SupportedVersions: append([]version.Version(nil), version.SupportedVersions...),
		EphemeralPK:       ephem.PublicKey,
	}, nil
}

// ServerRespondToHandshake asserts state INIT, negotiates a version,
// generates the server's ephemeral KX pair, derives session keys, and
// signs the transcript. On success it marks the handshake complete and
// zeroes both counters.
func (s *Session) ServerRespondToHandshake(clientHello handshake.ClientHello) (handshake.ServerHello, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != RoleServer {
		s.fail()
		return handshake.ServerHello{}, fmt.Errorf("server_respond_to_handshake: wrong role: %w", protoerr.ErrInvalidState)
	}
	if s.st != stateInit {
		s.fail()
		return handshake.ServerHello{}, fmt.Errorf("server_respond_to_handshake: %w", protoerr.ErrInvalidState)
	}

	selected, ok := version.Negotiate(clientHello.SupportedVersions, version.SupportedVersions)
	if !ok {
		s.fail()
		return handshake.ServerHello{}, fmt.Errorf("server_respond_to_handshake: %w", protoerr.ErrVersionMismatch)
	}

	ephem, err := crypto.GenerateKXKeyPair()
	if err != nil {
		s.fail()
		return handshake.ServerHello{}, fmt.Errorf("server_respond_to_handshake: %w", err)
	}

	sessKeys, err := crypto.ServerComputeSessionKeys(ephem, clientHello.EphemeralPK)
	if err != nil {
		s.fail()
		return handshake.ServerHello{}, fmt.Errorf("server_respond_to_handshake: %w", err)
	}

	transcript := handshake.Transcript(clientHello.EphemeralPK, ephem.PublicKey)
	sig := crypto.Sign(transcript, s.identity.PrivateKey)

	s.ephemeral = ephem
	s.haveEphem = true
	s.sessKeys = sessKeys
	s.selVersion = selected
	s.haveVer = true
	s.txCounter = 0
	s.rxCounter = 0
	s.st = stateEstablished

	return handshake.ServerHello{
		SelectedVersion: selected,
		EphemeralPK:     ephem.PublicKey,
		Signature:       sig,
	}, nil
}

// ClientFinalizeHandshake asserts state AWAIT_SERVER_HELLO, verifies the
// server's signature over the transcript against the trusted server
// signing public key, and derives session keys. On success it marks the
// handshake complete and zeroes both counters.
func (s *Session) ClientFinalizeHandshake(serverHello handshake.ServerHello) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != RoleClient {
		s.fail()
		return fmt.Errorf("client_finalize_handshake: wrong role: %w", protoerr.ErrInvalidState)
	}
	if s.st != stateAwaitServerHello {
		s.fail()
		return fmt.Errorf("client_finalize_handshake: %w", protoerr.ErrInvalidState)
	}

	if !version.Supports(serverHello.SelectedVersion) {
		s.fail()
		return fmt.Errorf("client_finalize_handshake: %w", protoerr.ErrVersionMismatch)
	}

	transcript := handshake.Transcript(s.ephemeral.PublicKey, serverHello.EphemeralPK)
	if !crypto.Verify(serverHello.Signature, transcript, s.identity.PublicKey) {
		s.fail()
		return fmt.Errorf("client_finalize_handshake: %w", protoerr.ErrAuthFailure)
	}

	sessKeys, err := crypto.ClientComputeSessionKeys(s.ephemeral, serverHello.EphemeralPK)
	if err != nil {
		s.fail()
		return fmt.Errorf("client_finalize_handshake: %w", err)
	}

	s.sessKeys = sessKeys
	s.selVersion = serverHello.SelectedVersion
	s.haveVer = true
	s.txCounter = 0
	s.rxCounter = 0
	s.st = stateEstablished
	return nil
}

// EncryptPayload requires the handshake be complete. It serializes
// payload, encrypts it under (tx key, tx_counter), emits
// u64_be(counter) || ciphertext || tag, and increments tx_counter. If
// tx_counter would overflow, it fails with ErrCounterExhausted before
// emitting anything, per the propagation policy that every record-layer
// failure moves the session to FAILED.
func (s *Session) EncryptPayload(p payload.Payload) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateEstablished {
		return nil, fmt.Errorf("encrypt_payload: %w", protoerr.ErrInvalidState)
	}
	if s.txCounter == math.MaxUint64 {
		s.fail()
		return nil, fmt.Errorf("encrypt_payload: %w", protoerr.ErrCounterExhausted)
	}

	plaintext := p.Serialize()
	ciphertext, err := crypto.Encrypt(plaintext, s.txCounter, s.sessKeys.Tx)
	if err != nil {
		s.fail()
		return nil, fmt.Errorf("encrypt_payload: %w", err)
	}

	frame := make([]byte, 8+len(ciphertext))
	binary.BigEndian.PutUint64(frame[:8], s.txCounter)
	copy(frame[8:], ciphertext)

	s.txCounter++
	return frame, nil
}

// DecryptPacket requires the handshake be complete. It parses the
// counter prefix, requires it equal rx_counter exactly (strict, in
// order — no windowing), decrypts, deserializes the plaintext into a
// Payload, and increments rx_counter. Any failure transitions the
// session to FAILED.
func (s *Session) DecryptPacket(frame []byte) (payload.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateEstablished {
		return payload.Payload{}, fmt.Errorf("decrypt_packet: %w", protoerr.ErrInvalidState)
	}
	if len(frame) < 8 {
		s.fail()
		return payload.Payload{}, fmt.Errorf("decrypt_packet: %w", protoerr.ErrMalformedMessage)
	}

	counter := binary.BigEndian.Uint64(frame[:8])
	if counter != s.rxCounter {
		s.fail()
		return payload.Payload{}, fmt.Errorf("decrypt_packet: %w", protoerr.ErrReplayOrReorder)
	}

	plaintext, err := crypto.Decrypt(frame[8:], counter, s.sessKeys.Rx)
	if err != nil {
		s.fail()
		return payload.Payload{}, fmt.Errorf("decrypt_packet: %w", protoerr.ErrAuthFailure)
	}

	p, err := payload.Deserialize(plaintext)
	if err != nil {
		s.fail()
		return payload.Payload{}, err
	}

	s.rxCounter++
	return p, nil
}
