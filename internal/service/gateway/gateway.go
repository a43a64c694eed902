// Package gateway is the demo server's HTTP surface: identity directory
// lookup and the WebSocket handshake/relay endpoint. Grounded on the
// teacher's internal/service/server package (mux.NewRouter,
// GetSharedKeysOfUser, HandleInitWS, processWSMessage).
package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"obscuraproto/internal/keys"
	"obscuraproto/internal/obslog"
	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/protocol/session"
	"obscuraproto/internal/repository/identity"
	"obscuraproto/internal/service/relay"
	"obscuraproto/internal/transport/ws"
)

// identityDoc is the wire shape of a GET /identity/{name} response.
type identityDoc struct {
	Name             string `json:"name"`
	SigningPublicKey string `json:"signing_public_key_hex"`
}

// Gateway wires the identity directory, the relay mailbox, and the
// server's own signing key pair into an HTTP router.
type Gateway struct {
	identities *identity.Store
	mailbox    *relay.Mailbox
	signingKey keys.KeyPair
	serverName string

	mu      sync.Mutex
	sockets map[string]*ws.Carrier
}

// New constructs a Gateway. signingKey is the server's own long-term
// signing pair; serverName is the directory entry name clients look it
// up under.
func New(identities *identity.Store, mailbox *relay.Mailbox, signingKey keys.KeyPair, serverName string) *Gateway {
	return &Gateway{
		identities: identities,
		mailbox:    mailbox,
		signingKey: signingKey,
		serverName: serverName,
		sockets:    make(map[string]*ws.Carrier),
	}
}

// Router builds the mux.Router the demo server listens with.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/identity/{name}", g.handleIdentity()).Methods(http.MethodGet)
	r.HandleFunc("/session", g.handleSession()).Methods(http.MethodGet)
	return r
}

// RegisterSelf publishes the server's own signing public key under
// serverName so clients can bootstrap trust by fetching it once.
func (g *Gateway) RegisterSelf(ctx context.Context) error {
	return g.identities.Register(ctx, g.serverName, g.signingKey.PublicKey)
}

func (g *Gateway) handleIdentity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]

		pk, ok, err := g.identities.Lookup(r.Context(), name)
		if err != nil {
			obslog.Error("identity lookup failed", zap.Error(err), zap.String("name", name))
			http.Error(w, "identity lookup failed", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "identity not found", http.StatusNotFound)
			return
		}

		doc := identityDoc{Name: name, SigningPublicKey: hex.EncodeToString(pk[:])}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			obslog.Error("identity encode failed", zap.Error(err))
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// replayGuardTTL bounds how long a client ephemeral key is remembered
// for replay rejection. It only needs to outlast one handshake's
// round-trip time by a wide margin.
const replayGuardTTL = 10 * time.Minute

func (g *Gateway) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "userID cannot be empty", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "failed to upgrade", http.StatusInternalServerError)
			return
		}

		carrier := ws.New(conn, session.RoleServer, g.signingKey)
		clientHello, err := carrier.ServerHandshake()
		if err != nil {
			obslog.Error("server handshake failed", zap.Error(err), zap.String("userID", userID))
			conn.Close()
			return
		}

		seen, err := g.mailbox.SeenEphemeral(r.Context(), clientHello.EphemeralPK)
		if err != nil {
			obslog.Error("replay guard check failed", zap.Error(err))
		} else if seen {
			obslog.Warn("rejecting reused client ephemeral key", zap.String("userID", userID))
			carrier.Close()
			return
		}
		if err := g.mailbox.MarkEphemeral(r.Context(), clientHello.EphemeralPK, replayGuardTTL); err != nil {
			obslog.Error("replay guard mark failed", zap.Error(err))
		}

		g.mu.Lock()
		g.sockets[userID] = carrier
		g.mu.Unlock()

		go g.deliverMailbox(context.Background(), userID, carrier)
		go g.pump(userID, carrier)
	}
}

// deliverMailbox flushes userID's queued messages into the just-opened
// session. Queued entries are plaintext-Payload JSON, not raw wire
// frames: the no-resumption non-goal means the frame that was
// encrypted under the sender's session at enqueue time can never be
// decrypted by this brand-new session, so route stores the decrypted
// Payload and this method re-encrypts it fresh under carrier's own
// session keys.
func (g *Gateway) deliverMailbox(ctx context.Context, userID string, carrier *ws.Carrier) {
	frames, err := g.mailbox.Drain(ctx, userID)
	if err != nil {
		obslog.Error("mailbox drain failed", zap.Error(err), zap.String("userID", userID))
		return
	}
	for _, raw := range frames {
		var p payload.Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			obslog.Error("mailbox decode failed", zap.Error(err), zap.String("userID", userID))
			continue
		}
		if err := carrier.Send(p); err != nil {
			obslog.Error("mailbox redeliver failed", zap.Error(err), zap.String("userID", userID))
			return
		}
	}
}

func (g *Gateway) pump(userID string, carrier *ws.Carrier) {
	defer func() {
		g.mu.Lock()
		delete(g.sockets, userID)
		g.mu.Unlock()
		carrier.Close()
	}()

	for {
		p, err := carrier.Recv()
		if err != nil {
			obslog.Debug("session closed", zap.String("userID", userID), zap.Error(err))
			return
		}
		g.route(userID, p)
	}
}

// route reads p's addressed recipient (its first string parameter),
// replaces that parameter with the sender's name, and forwards the
// result to the recipient's live socket if connected, or queues it in
// the mailbox otherwise. It
// never forwards a raw wire frame, since each session's keys are unique
// to its own peer.
func (g *Gateway) route(from string, p payload.Payload) {
	reader := payload.NewReader(p)
	to, err := reader.ReadString()
	if err != nil {
		obslog.Error("route: missing recipient", zap.String("from", from), zap.Error(err))
		return
	}

	g.mu.Lock()
	recipient, connected := g.sockets[to]
	g.mu.Unlock()

	builder := payload.NewBuilder(p.OpCode)
	builder.AddString(from)
	for reader.HasMore() {
		v, err := reader.ReadBytes()
		if err != nil {
			break
		}
		builder.AddBytes(v)
	}
	relayed := builder.Build()

	if !connected {
		frame, err := json.Marshal(relayed)
		if err != nil {
			obslog.Error("route: marshal for mailbox failed", zap.Error(err))
			return
		}
		if err := g.mailbox.Enqueue(context.Background(), to, frame); err != nil {
			obslog.Error("route: enqueue failed", zap.Error(err))
		}
		return
	}

	if err := recipient.Send(relayed); err != nil {
		obslog.Error("route: send failed", zap.String("to", to), zap.Error(err))
	}
}
