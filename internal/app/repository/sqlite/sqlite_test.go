package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/app/repository/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.ResultStore {
		path := filepath.Join(t.TempDir(), "data", "records.db")
		store, err := Open(context.Background(), path)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
