// Command obscura-client is the demo terminal chat client: it fetches
// the server's trusted signing public key over HTTP, opens a
// WebSocket session to the gateway, and drives a tview chat UI over
// it. Grounded on the teacher's cmd/client/main.go wiring shape.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"obscuraproto/internal/keys"
	"obscuraproto/internal/obslog"
	"obscuraproto/internal/protocol/session"
	"obscuraproto/internal/service/chatapp"
	"obscuraproto/internal/transport/ws"
)

type identityDoc struct {
	Name             string `json:"name"`
	SigningPublicKey string `json:"signing_public_key_hex"`
}

func main() {
	var (
		serverAddr = flag.String("server", "localhost:8080", "obscura-server address")
		serverName = flag.String("server-name", "obscura-server", "server's identity directory name")
		selfName   = flag.String("name", "", "this user's name")
		peerName   = flag.String("peer", "", "peer to chat with")
	)
	flag.Parse()

	if *selfName == "" || *peerName == "" {
		log.Fatal("usage: obscura-client -name <you> -peer <them> [-server host:port]")
	}

	serverPubKey, err := fetchServerIdentity(*serverAddr, *serverName)
	if err != nil {
		log.Fatalf("fetch server identity: %v", err)
	}

	wsURL := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/session", RawQuery: "userID=" + *selfName}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("dial gateway: %v", err)
	}

	carrier := ws.New(conn, session.RoleClient, keys.KeyPair{PublicKey: serverPubKey})
	if err := carrier.ClientHandshake(); err != nil {
		log.Fatalf("handshake with gateway failed: %v", err)
	}
	obslog.Info("handshake established", zap.String("selfName", *selfName))

	app := chatapp.New(carrier, *selfName, *peerName)
	defer app.Stop()
	if err := app.Run(); err != nil {
		log.Fatalf("chat app exited: %v", err)
	}
}

func fetchServerIdentity(serverAddr, serverName string) (keys.PublicKey, error) {
	var pk keys.PublicKey

	u := url.URL{Scheme: "http", Host: serverAddr, Path: "/identity/" + serverName}
	resp, err := http.Get(u.String())
	if err != nil {
		return pk, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pk, fmt.Errorf("gateway returned %s", resp.Status)
	}

	var doc identityDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return pk, err
	}

	raw, err := hex.DecodeString(doc.SigningPublicKey)
	if err != nil {
		return pk, fmt.Errorf("decode signing key: %w", err)
	}
	if len(raw) != keys.PublicKeySize {
		return pk, fmt.Errorf("signing key has wrong width: got %d bytes", len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}
