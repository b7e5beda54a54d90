// Package sqlstore implements repository.ResultStore on database/sql. The
// same queries serve SQLite and PostgreSQL; only placeholders differ.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS reel_records (
	record_key  TEXT PRIMARY KEY,
	platform    TEXT NOT NULL,
	content_id  TEXT NOT NULL,
	recipient   TEXT NOT NULL,
	source_url  TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	summary     TEXT,
	transcript  TEXT NOT NULL DEFAULT '',
	caption     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	last_error  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reel_records_status ON reel_records (status);
`

const columns = `record_key, platform, content_id, recipient, source_url, category, summary,
	transcript, caption, status, attempts, last_error, created_at, updated_at`

var _ repository.ResultStore = (*Store)(nil)

// Store is a SQL-backed ResultStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the records table and its index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.StoreUnavailable(err, "migrate")
		}
	}
	return nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Get(ctx context.Context, key string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+columns+` FROM reel_records WHERE record_key = ?`), key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err, "get record")
	}
	return rec, nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec *model.Record) (bool, error) {
	summary, err := encodeSummary(rec.Summary)
	if err != nil {
		return false, err
	}
	query := s.rebind(`INSERT INTO reel_records (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (record_key) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query,
		rec.Key(), rec.Identity.Platform, rec.Identity.ContentID, rec.Recipient, rec.SourceURL,
		string(rec.Category), summary, rec.Transcript, rec.Caption, string(rec.Status),
		rec.Attempts, rec.LastError, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return false, apperrors.StoreUnavailable(err, "insert record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.StoreUnavailable(err, "insert record")
	}
	return n == 1, nil
}

func (s *Store) CompareAndSwapStatus(ctx context.Context, key string, from, to model.Status) (bool, error) {
	increment := 0
	if to == model.StatusPending {
		increment = 1
	}
	query := s.rebind(`UPDATE reel_records
		SET status = ?, attempts = attempts + ?, updated_at = ?
		WHERE record_key = ? AND status = ?`)
	res, err := s.db.ExecContext(ctx, query, string(to), increment, s.now(), key, string(from))
	if err != nil {
		return false, apperrors.StoreUnavailable(err, "compare and swap status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.StoreUnavailable(err, "compare and swap status")
	}
	return n == 1, nil
}

func (s *Store) SetStatus(ctx context.Context, key string, status model.Status, lastErr string) error {
	return s.update(ctx, "set status",
		`UPDATE reel_records SET status = ?, last_error = ?, updated_at = ? WHERE record_key = ?`,
		string(status), lastErr, s.now(), key)
}

func (s *Store) SaveTranscript(ctx context.Context, key, transcript, caption string) error {
	return s.update(ctx, "save transcript",
		`UPDATE reel_records SET transcript = ?, caption = ?, updated_at = ? WHERE record_key = ?`,
		transcript, caption, s.now(), key)
}

func (s *Store) SaveSummary(ctx context.Context, key string, category model.Category, summary *model.StructuredSummary, status model.Status) error {
	encoded, err := encodeSummary(summary)
	if err != nil {
		return err
	}
	return s.update(ctx, "save summary",
		`UPDATE reel_records SET category = ?, summary = ?, status = ?, last_error = '', updated_at = ? WHERE record_key = ?`,
		string(category), encoded, string(status), s.now(), key)
}

func (s *Store) List(ctx context.Context, filter repository.ListFilter) ([]*model.Record, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Recipient != "" {
		where = append(where, "recipient = ?")
		args = append(args, filter.Recipient)
	}

	query := `SELECT ` + columns + ` FROM reel_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, record_key ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err, "list records")
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.StoreUnavailable(err, "scan record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreUnavailable(err, "list records")
	}
	return records, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) update(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return apperrors.StoreUnavailable(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.StoreUnavailable(err, op)
	}
	if n == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*model.Record, error) {
	var (
		rec      model.Record
		key      string
		category string
		status   string
		summary  sql.NullString
	)
	err := row.Scan(
		&key, &rec.Identity.Platform, &rec.Identity.ContentID, &rec.Recipient, &rec.SourceURL,
		&category, &summary, &rec.Transcript, &rec.Caption, &status,
		&rec.Attempts, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = model.Category(category)
	rec.Status = model.Status(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if summary.Valid && summary.String != "" {
		var s model.StructuredSummary
		if err := json.Unmarshal([]byte(summary.String), &s); err != nil {
			return nil, fmt.Errorf("decode summary of %s: %w", key, err)
		}
		s.Normalize()
		rec.Summary = &s
	}
	return &rec, nil
}

func encodeSummary(s *model.StructuredSummary) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, apperrors.Wrap(err, apperrors.KindInternal, "encode summary")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
