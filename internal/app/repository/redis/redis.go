// Package redis implements repository.ResultStore on Redis. Each record is
// a JSON value; a sorted set indexes keys by creation time for listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

const maxTxRetries = 5

var _ repository.ResultStore = (*Store)(nil)

// Options configures the connection and key namespace.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Store struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client. prefix defaults to "reel".
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "reel"
	}
	return &Store{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) recordKey(key string) string {
	return s.prefix + ":record:" + key
}

func (s *Store) indexKey() string {
	return s.prefix + ":records"
}

func (s *Store) Get(ctx context.Context, key string) (*model.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err, "get record")
	}
	return decode(data)
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec *model.Record) (bool, error) {
	data, err := encode(rec)
	if err != nil {
		return false, err
	}
	// SETNX and the index write commit together; ZADD NX leaves an existing
	// member's score alone when the record was already there.
	var setnx *goredis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		setnx = pipe.SetNX(ctx, s.recordKey(rec.Key()), data, 0)
		pipe.ZAddNX(ctx, s.indexKey(), goredis.Z{Score: float64(rec.CreatedAt.UnixNano()), Member: rec.Key()})
		return nil
	})
	if err != nil {
		return false, apperrors.StoreUnavailable(err, "insert record")
	}
	return setnx.Val(), nil
}

func (s *Store) CompareAndSwapStatus(ctx context.Context, key string, from, to model.Status) (bool, error) {
	swapped := false
	err := s.modify(ctx, "compare and swap status", key, func(rec *model.Record) (bool, error) {
		swapped = false
		if rec.Status != from {
			return false, nil
		}
		rec.Status = to
		if to == model.StatusPending {
			rec.Attempts++
		}
		swapped = true
		return true, nil
	})
	if errors.Is(err, apperrors.ErrRecordNotFound) {
		return false, nil
	}
	return swapped, err
}

func (s *Store) SetStatus(ctx context.Context, key string, status model.Status, lastErr string) error {
	return s.modify(ctx, "set status", key, func(rec *model.Record) (bool, error) {
		rec.Status = status
		rec.LastError = lastErr
		return true, nil
	})
}

func (s *Store) SaveTranscript(ctx context.Context, key, transcript, caption string) error {
	return s.modify(ctx, "save transcript", key, func(rec *model.Record) (bool, error) {
		rec.Transcript = transcript
		rec.Caption = caption
		return true, nil
	})
}

func (s *Store) SaveSummary(ctx context.Context, key string, category model.Category, summary *model.StructuredSummary, status model.Status) error {
	return s.modify(ctx, "save summary", key, func(rec *model.Record) (bool, error) {
		rec.Category = category
		rec.Summary = summary
		rec.Status = status
		rec.LastError = ""
		return true, nil
	})
}

func (s *Store) List(ctx context.Context, filter repository.ListFilter) ([]*model.Record, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, apperrors.StoreUnavailable(err, "list records")
	}
	if len(keys) == 0 {
		return nil, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = s.recordKey(k)
	}
	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, apperrors.StoreUnavailable(err, "list records")
	}

	var records []*model.Record
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		if !filter.Match(rec) {
			continue
		}
		records = append(records, rec)
		if filter.Limit > 0 && len(records) == filter.Limit {
			break
		}
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// modify applies fn to the stored record inside WATCH/MULTI so concurrent
// writers never lose updates. fn reports whether the record changed.
func (s *Store) modify(ctx context.Context, op, key string, fn func(rec *model.Record) (bool, error)) error {
	redisKey := s.recordKey(key)
	txf := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, redisKey).Bytes()
		if errors.Is(err, goredis.Nil) {
			return apperrors.ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		rec, err := decode(data)
		if err != nil {
			return err
		}
		changed, err := fn(rec)
		if err != nil || !changed {
			return err
		}
		rec.UpdatedAt = s.now()
		out, err := encode(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, redisKey, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, redisKey)
		var apperr *apperrors.Error
		switch {
		case err == nil:
			return nil
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.As(err, &apperr):
			return err
		default:
			return apperrors.StoreUnavailable(err, op)
		}
	}
	return apperrors.StoreUnavailable(fmt.Errorf("%d conflicting writers on %s", maxTxRetries, key), op)
}

func encode(rec *model.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "encode record")
	}
	return data, nil
}

func decode(data []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "decode record")
	}
	if rec.Summary != nil {
		rec.Summary.Normalize()
	}
	return &rec, nil
}
