// Package firestorestore backs the cache store with Firestore for
// hosted deployments where the process has no durable disk.
package firestorestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/store"
)

type cacheDoc struct {
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// Store is a Firestore-backed key-value store. Each key maps to one
// document in the configured collection.
type Store struct {
	client     *firestore.Client
	collection string
}

// New wraps an existing Firestore client. The caller owns the client's
// lifecycle.
func New(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = "cache"
	}
	return &Store{client: client, collection: collection}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.client.Collection(s.collection).Doc(docID(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %q: %w", key, err)
	}
	var doc cacheDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore decode %q: %w", key, err)
	}
	return doc.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.Collection(s.collection).Doc(docID(key)).Set(ctx, cacheDoc{
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("firestore set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.Collection(s.collection).Doc(docID(key)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("firestore delete %q: %w", key, err)
	}
	return nil
}

// docID flattens cache keys into valid Firestore document ids (slashes
// would otherwise denote subcollections).
func docID(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			out[i] = ':'
		} else {
			out[i] = key[i]
		}
	}
	return string(out)
}
