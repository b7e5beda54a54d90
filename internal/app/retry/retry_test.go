package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "reel-digest/internal/app/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestRetrier_Do(t *testing.T) {
	transient := apperrors.Transient(errors.New("503"), "call")
	permanent := apperrors.Permanent(errors.New("401"), "call")

	tests := []struct {
		name          string
		attempts      int
		results       []error
		expectedCalls int
		expectedErr   error
	}{
		{"first try success", 3, []error{nil}, 1, nil},
		{"transient then success", 3, []error{transient, nil}, 2, nil},
		{"transient exhausted", 3, []error{transient, transient, transient, nil}, 3, transient},
		{"permanent not retried", 3, []error{permanent, nil}, 1, permanent},
		{"store unavailable retried", 2, []error{apperrors.StoreUnavailable(errors.New("down"), "get"), nil}, 2, nil},
		{"schema violation not retried", 3, []error{apperrors.SchemaViolation("type", "mismatch")}, 1, nil},
		{"single attempt", 1, []error{transient, nil}, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			retried := 0
			r := New(fastPolicy(tt.attempts), nil).WithObserver(func(op string, attempt int, err error) {
				retried++
				assert.Equal(t, "call", op)
			})

			err := r.Do(context.Background(), "call", func(ctx context.Context) error {
				res := tt.results[calls]
				calls++
				return res
			})

			assert.Equal(t, tt.expectedCalls, calls)
			assert.Equal(t, tt.expectedCalls-1, retried)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
			}
			if tt.results[tt.expectedCalls-1] == nil {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRetrier_ContextCancelledKeepsClassification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(Policy{MaxAttempts: 5, InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 1}, nil)

	transient := apperrors.Transient(errors.New("timeout"), "call")
	err := r.Do(ctx, "call", func(ctx context.Context) error {
		cancel()
		return transient
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransientProvider, apperrors.KindOf(err))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialInterval)
}
