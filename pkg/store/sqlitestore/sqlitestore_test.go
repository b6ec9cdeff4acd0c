package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "corpus/v1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "corpus/v1", []byte(`{"activities":[]}`)))
	got, err := s.Get(ctx, "corpus/v1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"activities":[]}`), got)

	// Upsert replaces in place.
	require.NoError(t, s.Set(ctx, "corpus/v1", []byte(`{"activities":[1]}`)))
	got, err = s.Get(ctx, "corpus/v1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"activities":[1]}`), got)

	require.NoError(t, s.Delete(ctx, "corpus/v1"))
	_, err = s.Get(ctx, "corpus/v1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "sync/meta", []byte(`{"cache_key":"corpus/v1"}`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "sync/meta")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"cache_key":"corpus/v1"}`), got)
}

func TestStore_DeleteMissingKeyIsNoop(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "never-set"))
}
