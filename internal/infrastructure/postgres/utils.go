package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Cotizador-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// mapImmutability traduce el error del trigger de approval_events
// (BEFORE UPDATE OR DELETE ... RAISE EXCEPTION, ERRCODE P0001 con marca
// "immutable") a la violación de dominio. Cualquier otro error pasa igual.
func mapImmutability(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "P0001" && strings.Contains(pgErr.Message, "immutable") {
		return &domain.ImmutabilityViolation{Table: "approval_events", Detail: pgErr.Message}
	}
	return err
}

// nullIfEmpty convierte "" en NULL para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefStr des-referencia punteros de columnas NULLables.
func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}
