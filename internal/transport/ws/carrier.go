// Package ws adapts a *session.Session to a Gorilla WebSocket connection.
// It is peripheral to the core: it only calls the session's public API,
// and it only relies on gorilla/websocket delivering whole ciphertext
// frames in order on a given connection, per the core's transport
// boundary.
package ws

import (
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"obscuraproto/internal/keys"
	"obscuraproto/internal/obslog"
	"obscuraproto/internal/protocol/handshake"
	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/protocol/session"
)

// Carrier binds one Session to one live WebSocket connection, turning
// the session's handshake/record API into whole-message send/receive
// calls.
type Carrier struct {
	conn *websocket.Conn
	sess *session.Session
}

// New wraps an already-upgraded/dialed connection with a fresh Session
// for the given role and key material. Call ClientHandshake or
// ServerHandshake (matching role) before Send/Recv.
func New(conn *websocket.Conn, role session.Role, keyPair keys.KeyPair) *Carrier {
	return &Carrier{
		conn: conn,
		sess: session.New(role, keyPair),
	}
}

// Session exposes the underlying Session, e.g. for RxCounter inspection.
func (c *Carrier) Session() *session.Session {
	return c.sess
}

// ClientHandshake drives the client side of the handshake over the
// WebSocket connection: send ClientHello, receive ServerHello, finalize.
func (c *Carrier) ClientHandshake() error {
	hello, err := c.sess.ClientInitiateHandshake()
	if err != nil {
		return fmt.Errorf("ws client handshake: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, hello.Serialize()); err != nil {
		return fmt.Errorf("ws client handshake: write client hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("ws client handshake: read server hello: %w", err)
	}
	serverHello, err := handshake.DeserializeServerHello(data)
	if err != nil {
		return fmt.Errorf("ws client handshake: %w", err)
	}

	if err := c.sess.ClientFinalizeHandshake(serverHello); err != nil {
		return fmt.Errorf("ws client handshake: %w", err)
	}
	obslog.Debug("client handshake complete")
	return nil
}

// ServerHandshake drives the server side of the handshake over the
// WebSocket connection: receive ClientHello, send ServerHello. It
// returns the received ClientHello so a caller can run further checks
// against it (e.g. an ephemeral-key replay guard); on success those
// checks run after the handshake has completed.
func (c *Carrier) ServerHandshake() (handshake.ClientHello, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return handshake.ClientHello{}, fmt.Errorf("ws server handshake: read client hello: %w", err)
	}
	clientHello, err := handshake.DeserializeClientHello(data)
	if err != nil {
		return handshake.ClientHello{}, fmt.Errorf("ws server handshake: %w", err)
	}

	serverHello, err := c.sess.ServerRespondToHandshake(clientHello)
	if err != nil {
		return clientHello, fmt.Errorf("ws server handshake: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, serverHello.Serialize()); err != nil {
		return clientHello, fmt.Errorf("ws server handshake: write server hello: %w", err)
	}
	obslog.Debug("server handshake complete")
	return clientHello, nil
}

// Send encrypts p under the session's record layer and writes it as one
// WebSocket binary message.
func (c *Carrier) Send(p payload.Payload) error {
	frame, err := c.sess.EncryptPayload(p)
	if err != nil {
		obslog.Error("carrier send failed", zap.Error(err))
		return fmt.Errorf("ws send: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("ws send: %w", err)
	}
	return nil
}

// Recv reads one whole WebSocket binary message and decrypts it through
// the session's record layer.
func (c *Carrier) Recv() (payload.Payload, error) {
	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		return payload.Payload{}, fmt.Errorf("ws recv: %w", err)
	}
	p, err := c.sess.DecryptPacket(frame)
	if err != nil {
		obslog.Error("carrier recv failed", zap.Error(err))
		return payload.Payload{}, fmt.Errorf("ws recv: %w", err)
	}
	return p, nil
}

// Close closes the underlying connection and wipes session key
// material.
func (c *Carrier) Close() error {
	c.sess.Close()
	return c.conn.Close()
}
