package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.err)
			if c.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, c.transient, errors.Is(got, ErrStorageUnavailable))
			assert.ErrorIs(t, got, c.err)
		})
	}
}

func TestClassify_AlreadyWrapped(t *testing.T) {
	err := fmt.Errorf("append: %w", ErrStorageUnavailable)
	assert.Same(t, err, Classify(err))
}
