package session_test

import (
	"errors"
	"testing"

	"obscuraproto/internal/cryptographic/crypto"
	"obscuraproto/internal/keys"
	"obscuraproto/internal/protocol/handshake"
	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/protocol/protoerr"
	"obscuraproto/internal/protocol/session"
	"obscuraproto/internal/protocol/version"
)

// establish drives a full client/server handshake and returns both
// established sessions.
func establish(t *testing.T) (client, server *session.Session, serverSigning keys.KeyPair) {
	t.Helper()

	serverSigning, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}

	client = session.New(session.RoleClient, keys.KeyPair{PublicKey: serverSigning.PublicKey})
	server = session.New(session.RoleServer, serverSigning)

	hello, err := client.ClientInitiateHandshake()
	if err != nil {
		t.Fatalf("ClientInitiateHandshake: %v", err)
	}
	serverHello, err := server.ServerRespondToHandshake(hello)
	if err != nil {
		t.Fatalf("ServerRespondToHandshake: %v", err)
	}
	if err := client.ClientFinalizeHandshake(serverHello); err != nil {
		t.Fatalf("ClientFinalizeHandshake: %v", err)
	}
	return client, server, serverSigning
}

func TestHandshakeHappyPathEstablishesBothSides(t *testing.T) {
	client, server, _ := establish(t)
	if !client.IsHandshakeComplete() || !server.IsHandshakeComplete() {
		t.Fatal("both sides must report handshake complete")
	}
	cv, ok := client.GetSelectedVersion()
	if !ok {
		t.Fatal("client must report a selected version")
	}
	sv, ok := server.GetSelectedVersion()
	if !ok || sv != cv {
		t.Fatalf("selected versions differ: client=%v server=%v", cv, sv)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	client, server, _ := establish(t)

	p := payload.NewBuilder(payload.OpChatText).AddString("bob").AddString("hi").Build()
	frame, err := client.EncryptPayload(p)
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	got, err := server.DecryptPacket(frame)
	if err != nil {
		t.Fatalf("DecryptPacket: %v", err)
	}
	if got.OpCode != p.OpCode {
		t.Fatalf("op code mismatch: got %d, want %d", got.OpCode, p.OpCode)
	}
	if server.RxCounter() != 1 {
		t.Fatalf("rx counter = %d, want 1", server.RxCounter())
	}
}

func TestVersionMismatchFailsHandshake(t *testing.T) {
	serverSigning, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}
	server := session.New(session.RoleServer, serverSigning)

	badHello := handshake.ClientHello{SupportedVersions: []version.Version{9999}}
	_, err = server.ServerRespondToHandshake(badHello)
	if !errors.Is(err, protoerr.ErrVersionMismatch) {
		t.Fatalf("got %v, want ErrVersionMismatch", err)
	}
}

func TestClientRejectsBadSignature(t *testing.T) {
	serverSigning, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}
	impostor, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}

	client := session.New(session.RoleClient, keys.KeyPair{PublicKey: serverSigning.PublicKey})
	server := session.New(session.RoleServer, impostor)

	hello, err := client.ClientInitiateHandshake()
	if err != nil {
		t.Fatalf("ClientInitiateHandshake: %v", err)
	}
	serverHello, err := server.ServerRespondToHandshake(hello)
	if err != nil {
		t.Fatalf("ServerRespondToHandshake: %v", err)
	}
	err = client.ClientFinalizeHandshake(serverHello)
	if !errors.Is(err, protoerr.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure", err)
	}
	if client.IsHandshakeComplete() {
		t.Fatal("client must not report handshake complete after auth failure")
	}
}

func TestDecryptPacketRejectsReplay(t *testing.T) {
	client, server, _ := establish(t)

	p := payload.NewBuilder(1).AddString("x").Build()
	frame, err := client.EncryptPayload(p)
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	if _, err := server.DecryptPacket(frame); err != nil {
		t.Fatalf("first DecryptPacket: %v", err)
	}
	if _, err := server.DecryptPacket(frame); !errors.Is(err, protoerr.ErrReplayOrReorder) {
		t.Fatalf("got %v, want ErrReplayOrReorder on replay", err)
	}
}

func TestDecryptPacketRejectsTamperedCiphertext(t *testing.T) {
	client, server, _ := establish(t)

	p := payload.NewBuilder(1).AddString("x").Build()
	frame, err := client.EncryptPayload(p)
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF

	_, err = server.DecryptPacket(frame)
	if !errors.Is(err, protoerr.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure", err)
	}
	if server.IsHandshakeComplete() {
		t.Fatal("session must transition to FAILED after a record-layer auth failure")
	}
}

func TestOperationsFailAfterSessionFailed(t *testing.T) {
	client, server, _ := establish(t)

	p := payload.NewBuilder(1).AddString("x").Build()
	frame, err := client.EncryptPayload(p)
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF
	if _, err := server.DecryptPacket(frame); !errors.Is(err, protoerr.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure", err)
	}

	if _, err := server.EncryptPayload(p); !errors.Is(err, protoerr.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState once FAILED", err)
	}
}

func TestClosedSessionCannotProduceUsableCiphertext(t *testing.T) {
	client, server, _ := establish(t)
	client.Close()

	p := payload.NewBuilder(1).AddString("x").Build()
	frame, err := client.EncryptPayload(p)
	if err != nil {
		t.Fatalf("EncryptPayload after Close: %v", err)
	}
	if _, err := server.DecryptPacket(frame); !errors.Is(err, protoerr.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure once tx key is wiped", err)
	}
}
