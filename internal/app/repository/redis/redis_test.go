package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/app/repository/storetest"
)

// Runs against the server at REDIS_ADDR using a per-test key prefix.
func TestStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) repository.ResultStore {
		n++
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		require.NoError(t, client.Ping(context.Background()).Err())

		prefix := fmt.Sprintf("reeltest:%d:%d", time.Now().UnixNano(), n)
		store := New(client, prefix)
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := client.Keys(ctx, prefix+":*").Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
			store.Close()
		})
		return store
	})
}

func TestEncodeDecode(t *testing.T) {
	rec := storetest.NewRecord("abc", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	rec.Summary = &model.StructuredSummary{Type: model.TypeGeneral, Title: "t", Summary: "One. Two."}

	data, err := encode(rec)
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec.Key(), got.Key())
	assert.Equal(t, []string{}, got.Summary.Tags)
	assert.Equal(t, []string{}, got.Summary.Companies)

	_, err = decode([]byte("{"))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestOpenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	s := New(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), "")
	defer s.Close()
	assert.Equal(t, "reel:record:instagram:abc", s.recordKey("instagram:abc"))
	assert.Equal(t, "reel:records", s.indexKey())
}

func TestInsertIfAbsentWritesRecordAndIndexTogether(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())

	prefix := fmt.Sprintf("reeltest:insert:%d", time.Now().UnixNano())
	store := New(client, prefix)
	t.Cleanup(func() {
		client.Del(context.Background(), store.recordKey("instagram:abc"), store.indexKey())
		store.Close()
	})

	rec := storetest.NewRecord("abc", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	inserted, err := store.InsertIfAbsent(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	later := storetest.NewRecord("abc", rec.CreatedAt.Add(time.Hour))
	inserted, err = store.InsertIfAbsent(ctx, later)
	require.NoError(t, err)
	assert.False(t, inserted)

	score, err := client.ZScore(ctx, store.indexKey(), rec.Key()).Result()
	require.NoError(t, err)
	assert.Equal(t, float64(rec.CreatedAt.UnixNano()), score, "a losing insert keeps the original index entry")
	assert.Equal(t, int64(1), client.ZCard(ctx, store.indexKey()).Val())
}
