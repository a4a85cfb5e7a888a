// Package firestore implements the keyvalue.Store port on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds one document per cache key.
const DefaultCollection = "cart_entries"

// entryDoc is the stored document shape.
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
// - Firestore reaps expired docs with a delay (up to ~72h), so reads also
//   check expiresAt and treat stale docs as absent.
type entryDoc struct {
	Value     []byte    `firestore:"value"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// Store is a TTL key-value store with one doc per key.
type Store struct {
	Client     *firestore.Client
	Collection string
}

func New(client *firestore.Client) *Store {
	return &Store{Client: client, Collection: DefaultCollection}
}

func (s *Store) col() *firestore.CollectionRef {
	col := s.Collection
	if col == "" {
		col = DefaultCollection
	}
	return s.Client.Collection(col)
}

func (s *Store) check(key string) error {
	if s == nil || s.Client == nil {
		return errors.New("kv_firestore: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("kv_firestore: key is empty")
	}
	return nil
}

// Get returns (nil, false, nil) for absent, reaped or expired-but-unreaped keys.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(key); err != nil {
		return nil, false, err
	}

	snap, err := s.col().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv_firestore: get %s: %w", key, err)
	}

	var doc entryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, fmt.Errorf("kv_firestore: decode %s: %w", key, err)
	}
	if !time.Now().Before(doc.ExpiresAt) {
		return nil, false, nil
	}
	return doc.Value, true, nil
}

// Put overwrites the full doc and restarts its TTL window.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.check(key); err != nil {
		return err
	}

	_, err := s.col().Doc(key).Set(ctx, entryDoc{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("kv_firestore: put %s: %w", key, err)
	}
	return nil
}

// Forget deletes the doc. Deleting a missing doc succeeds.
func (s *Store) Forget(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}

	if _, err := s.col().Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("kv_firestore: forget %s: %w", key, err)
	}
	return nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}
