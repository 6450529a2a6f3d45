package postgres

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/reposicion-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// IsRetryable indica si la transacción puede repetirse completa: conflicto de serialización,
// deadlock o la carrera por una restricción única entre dos escritores.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrConcurrentWrite) {
		return true
	}
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// mapError traduce errores del driver a errores de dominio. op describe la operación para el mensaje.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case pgCode(err) == codeSerializationFailure, pgCode(err) == codeDeadlockDetected:
		return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrConcurrentWrite, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapWriteError como mapError, pero una violación de unicidad es ErrDuplicate.
func mapWriteError(op string, err error) error {
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	}
	return mapError(op, err)
}

// mapRaceError para escrituras donde la unicidad solo se viola si otra transacción ganó la
// carrera (vínculo predeterminado, upsert de órdenes): 23505 se vuelve ErrConcurrentWrite.
func mapRaceError(op string, err error) error {
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrConcurrentWrite, err))
	}
	return mapError(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// sortedUnique copia de ids ordenada y sin repetidos ni vacíos; fija el orden de los candados.
func sortedUnique(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return out
}
