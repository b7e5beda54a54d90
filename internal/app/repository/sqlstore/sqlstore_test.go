package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/app/repository/storetest"
)

func newMockStore(t *testing.T, dialect Dialect) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, dialect)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, mock
}

func TestRebind(t *testing.T) {
	pg := New(nil, DialectPostgres)
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2 AND c = $3", pg.rebind("UPDATE t SET a = ? WHERE b = ? AND c = ?"))

	lite := New(nil, DialectSQLite)
	assert.Equal(t, "SELECT ? FROM t", lite.rebind("SELECT ? FROM t"))
}

func TestInsertIfAbsent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "inserted", affected: 1, want: true},
		{name: "conflict", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t, DialectPostgres)
			rec := storetest.NewRecord("abc", time.Now())

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reel_records")).
				WithArgs("instagram:abc", "instagram", "abc", "chat-1", rec.SourceURL, "", sqlmock.AnyArg(),
					"", "", "pending", 1, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := s.InsertIfAbsent(context.Background(), rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertIfAbsentStoreUnavailable(t *testing.T) {
	s, mock := newMockStore(t, DialectSQLite)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reel_records")).
		WillReturnError(errors.New("connection refused"))

	_, err := s.InsertIfAbsent(context.Background(), storetest.NewRecord("abc", time.Now()))

	require.Error(t, err)
	assert.Equal(t, apperrors.KindStoreUnavailable, apperrors.KindOf(err))
	assert.True(t, apperrors.IsRetriable(err))
}

func TestCompareAndSwapStatus(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reel_records")).
		WithArgs("pending", 1, sqlmock.AnyArg(), "instagram:abc", "failed-transient").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reel_records")).
		WithArgs("notifying", 0, sqlmock.AnyArg(), "instagram:abc", "succeeded-not-notified").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.CompareAndSwapStatus(context.Background(), "instagram:abc", model.StatusFailedTransient, model.StatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwapStatus(context.Background(), "instagram:abc", model.StatusSucceededNotNotified, model.StatusNotifying)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusMissingRecord(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reel_records SET status = $1, last_error = $2, updated_at = $3 WHERE record_key = $4")).
		WithArgs("succeeded", "", sqlmock.AnyArg(), "instagram:ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SetStatus(context.Background(), "instagram:ghost", model.StatusSucceeded, "")

	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"record_key", "platform", "content_id", "recipient", "source_url", "category", "summary",
		"transcript", "caption", "status", "attempts", "last_error", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM reel_records WHERE record_key = $1")).
		WithArgs("instagram:abc").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"instagram:abc", "instagram", "abc", "chat-1", "", "technology",
			`{"type":"technology","title":"t","summary":"s","tags":["go"]}`,
			"transcript", "", "succeeded", 1, "", created, created,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reel_records WHERE record_key = $1")).
		WithArgs("instagram:none").
		WillReturnError(sql.ErrNoRows)

	rec, err := s.Get(context.Background(), "instagram:abc")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.CategoryTechnology, rec.Category)
	assert.Equal(t, model.StatusSucceeded, rec.Status)
	require.NotNil(t, rec.Summary)
	assert.Equal(t, []string{"go"}, rec.Summary.Tags)
	assert.NotNil(t, rec.Summary.Companies)

	rec, err = s.Get(context.Background(), "instagram:none")
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFilter(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	cols := []string{"record_key"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM reel_records WHERE status = $1 AND recipient = $2 ORDER BY created_at ASC, record_key ASC LIMIT $3")).
		WithArgs("pending", "chat-1", 10).
		WillReturnRows(sqlmock.NewRows(cols))

	records, err := s.List(context.Background(), repository.ListFilter{Status: model.StatusPending, Recipient: "chat-1", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t, DialectSQLite)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS reel_records")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_reel_records_status")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
