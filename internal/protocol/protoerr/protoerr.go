// Package protoerr defines the sentinel errors every fallible ObscuraProto
// operation reports through. Call sites wrap these with fmt.Errorf's %w so
// errors.Is keeps working after context is added.
package protoerr

import "errors"

var (
	// ErrMalformedMessage marks truncated/over-long handshake or payload
	// bytes, or a zero-length version list.
	ErrMalformedMessage = errors.New("obscuraproto: malformed message")
	// ErrVersionMismatch marks an empty version intersection, or a server
	// selecting a version the client does not support.
	ErrVersionMismatch = errors.New("obscuraproto: version mismatch")
	// ErrAuthFailure marks a failed signature verification or AEAD tag
	// mismatch.
	ErrAuthFailure = errors.New("obscuraproto: authentication failure")
	// ErrReplayOrReorder marks an incoming frame whose counter does not
	// equal the expected rx_counter.
	ErrReplayOrReorder = errors.New("obscuraproto: replayed or reordered frame")
	// ErrCounterExhausted marks tx_counter at its maximum value.
	ErrCounterExhausted = errors.New("obscuraproto: counter exhausted")
	// ErrTruncated marks a PayloadReader short read.
	ErrTruncated = errors.New("obscuraproto: truncated parameter")
	// ErrWidthMismatch marks a PayloadReader width/type disagreement.
	ErrWidthMismatch = errors.New("obscuraproto: width mismatch")
	// ErrInvalidBool marks a bool record whose byte is not 0x00 or 0x01.
	ErrInvalidBool = errors.New("obscuraproto: invalid bool encoding")
	// ErrInvalidUTF8 marks a string record that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("obscuraproto: invalid utf-8 encoding")
	// ErrInvalidState marks a handshake call made out of sequence, or a
	// record-layer call before the handshake completes or after failure.
	ErrInvalidState = errors.New("obscuraproto: invalid session state")
)
