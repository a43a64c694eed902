// Package identity is the server-side durable directory of registered
// peers' long-term signing public keys. It is a host/binding concern,
// never imported by the core protocol packages: spec.md places key
// persistence outside the core.
package identity

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"obscuraproto/internal/keys"
)

// Record is one registered peer's directory entry.
type Record struct {
	Name          string `bson:"name"`
	SigningPubKey []byte `bson:"signing_public_key"`
}

// Store wraps a MongoDB collection holding peer identity records,
// mirroring the teacher's UserRepo shape (a thin collection wrapper).
type Store struct {
	collection *mongo.Collection
}

// New wraps db's "identities" collection.
func New(db *mongo.Database) *Store {
	return &Store{collection: db.Collection("identities")}
}

// Register upserts name's trusted signing public key.
func (s *Store) Register(ctx context.Context, name string, signingPubKey keys.PublicKey) error {
	filter := bson.M{"name": name}
	update := bson.M{"$set": bson.M{
		"name":               name,
		"signing_public_key": signingPubKey[:],
	}}
	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("register identity: %w", err)
	}
	return nil
}

// Lookup returns name's trusted signing public key, or ok=false if the
// peer is not registered.
func (s *Store) Lookup(ctx context.Context, name string) (keys.PublicKey, bool, error) {
	var pk keys.PublicKey

	var rec Record
	err := s.collection.FindOne(ctx, bson.M{"name": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return pk, false, nil
	}
	if err != nil {
		return pk, false, fmt.Errorf("lookup identity: %w", err)
	}

	if len(rec.SigningPubKey) != keys.PublicKeySize {
		return pk, false, fmt.Errorf("lookup identity: stored key has wrong width")
	}
	copy(pk[:], rec.SigningPubKey)
	return pk, true, nil
}
