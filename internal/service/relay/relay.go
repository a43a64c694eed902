// Package relay is the server-side store-and-forward mailbox and
// ephemeral-key replay guard, mirroring the teacher's
// RedisService-backed PutMessagesToCache/GetMessagesFromCache pattern.
// It is an ops hardening layer, not a core protocol feature: it never
// resumes protocol state, and it never affects a Session's own strict
// rx_counter check.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"obscuraproto/internal/keys"
)

// Mailbox wraps a Redis client for queuing opaque message blobs
// addressed to an offline peer, and for rejecting a replayed
// ClientHello ephemeral key within a TTL window. It stores the bytes it
// is given as they are; the gateway queues JSON-encoded plaintext
// Payloads, not encrypted record frames.
type Mailbox struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Mailbox {
	return &Mailbox{rdb: rdb}
}

func mailboxKey(to string) string {
	return fmt.Sprintf("obscuraproto:mailbox:%s", to)
}

func ephemeralKey(pk keys.PublicKey) string {
	return fmt.Sprintf("obscuraproto:seen-ephemeral:%x", pk[:])
}

// Enqueue appends one message blob to to's mailbox.
func (m *Mailbox) Enqueue(ctx context.Context, to string, frame []byte) error {
	if err := m.rdb.RPush(ctx, mailboxKey(to), frame).Err(); err != nil {
		return fmt.Errorf("relay enqueue: %w", err)
	}
	return nil
}

// Drain returns and clears all queued message blobs for to.
func (m *Mailbox) Drain(ctx context.Context, to string) ([][]byte, error) {
	key := mailboxKey(to)
	vals, err := m.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("relay drain: %w", err)
	}
	if err := m.rdb.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("relay drain: %w", err)
	}

	frames := make([][]byte, len(vals))
	for i, v := range vals {
		frames[i] = []byte(v)
	}
	return frames, nil
}

// SeenEphemeral reports whether pk was already recorded as a client
// handshake ephemeral key within the guard window.
func (m *Mailbox) SeenEphemeral(ctx context.Context, pk keys.PublicKey) (bool, error) {
	n, err := m.rdb.Exists(ctx, ephemeralKey(pk)).Result()
	if err != nil {
		return false, fmt.Errorf("relay seen ephemeral: %w", err)
	}
	return n > 0, nil
}

// MarkEphemeral records pk as seen for ttl, so a subsequent
// ClientHello replaying the same ephemeral key can be detected and its
// connection closed.
func (m *Mailbox) MarkEphemeral(ctx context.Context, pk keys.PublicKey, ttl time.Duration) error {
	if err := m.rdb.Set(ctx, ephemeralKey(pk), 1, ttl).Err(); err != nil {
		return fmt.Errorf("relay mark ephemeral: %w", err)
	}
	return nil
}
