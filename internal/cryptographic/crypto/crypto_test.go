package crypto_test

import (
	"bytes"
	"testing"

	"obscuraproto/internal/cryptographic/crypto"
	"obscuraproto/internal/keys"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}
	msg := []byte("obscura transcript")
	sig := crypto.Sign(msg, kp.PrivateKey)
	if !crypto.Verify(sig, msg, kp.PublicKey) {
		t.Fatal("verify failed on a genuine signature")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := crypto.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignKeyPair: %v", err)
	}
	sig := crypto.Sign([]byte("original"), kp.PrivateKey)
	if crypto.Verify(sig, []byte("tampered"), kp.PublicKey) {
		t.Fatal("verify accepted a signature over the wrong message")
	}
}

func TestClientServerSessionKeysAgree(t *testing.T) {
	clientKX, err := crypto.GenerateKXKeyPair()
	if err != nil {
		t.Fatalf("client GenerateKXKeyPair: %v", err)
	}
	serverKX, err := crypto.GenerateKXKeyPair()
	if err != nil {
		t.Fatalf("server GenerateKXKeyPair: %v", err)
	}

	clientKeys, err := crypto.ClientComputeSessionKeys(clientKX, serverKX.PublicKey)
	if err != nil {
		t.Fatalf("ClientComputeSessionKeys: %v", err)
	}
	serverKeys, err := crypto.ServerComputeSessionKeys(serverKX, clientKX.PublicKey)
	if err != nil {
		t.Fatalf("ServerComputeSessionKeys: %v", err)
	}

	if clientKeys.Tx != serverKeys.Rx {
		t.Fatal("client tx must equal server rx")
	}
	if clientKeys.Rx != serverKeys.Tx {
		t.Fatal("client rx must equal server tx")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var key keys.SessionKey
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte("hello obscura")
	ciphertext, err := crypto.Encrypt(plaintext, 42, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := crypto.Decrypt(ciphertext, 42, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptFailsOnWrongCounter(t *testing.T) {
	var key keys.SessionKey
	ciphertext, err := crypto.Encrypt([]byte("hi"), 0, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := crypto.Decrypt(ciphertext, 1, key); err == nil {
		t.Fatal("expected decrypt under the wrong counter-derived nonce to fail")
	}
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	var key keys.SessionKey
	ciphertext, err := crypto.Encrypt([]byte("hi"), 0, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ciphertext[0] ^= 0xFF
	if _, err := crypto.Decrypt(ciphertext, 0, key); err == nil {
		t.Fatal("expected decrypt of tampered ciphertext to fail")
	}
}
