package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/reposicion-api/internal/domain"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("get product", pgx.ErrNoRows), domain.ErrNotFound)

	serialization := &pgconn.PgError{Code: codeSerializationFailure}
	err := mapError("update order", serialization)
	assert.ErrorIs(t, err, domain.ErrConcurrentWrite)
	assert.ErrorAs(t, err, new(*pgconn.PgError))

	other := errors.New("connection reset")
	assert.ErrorIs(t, mapError("x", other), other)
	assert.NotErrorIs(t, mapError("x", other), domain.ErrNotFound)
}

func TestMapWriteAndRaceErrors(t *testing.T) {
	unique := &pgconn.PgError{Code: codeUniqueViolation}

	assert.ErrorIs(t, mapWriteError("create product", unique), domain.ErrDuplicate)
	assert.ErrorIs(t, mapRaceError("set default", unique), domain.ErrConcurrentWrite)
	assert.NotErrorIs(t, mapRaceError("set default", unique), domain.ErrDuplicate)
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialización", &pgconn.PgError{Code: codeSerializationFailure}, true},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, true},
		{"carrera mapeada", mapRaceError("x", &pgconn.PgError{Code: codeUniqueViolation}), true},
		{"duplicado", mapWriteError("x", &pgconn.PgError{Code: codeUniqueViolation}), false},
		{"no encontrado", domain.ErrNotFound, false},
		{"otro", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestSortedUnique(t *testing.T) {
	in := []string{"p-3", "", "p-1", "p-3", "p-2"}
	assert.Equal(t, []string{"p-1", "p-2", "p-3"}, sortedUnique(in))
	assert.Equal(t, []string{"p-3", "", "p-1", "p-3", "p-2"}, in, "no modifica la entrada")
	assert.Empty(t, sortedUnique(nil))
}
