package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/actas/internal/acta"
)

// Get returns the record with the given id, or an *Error wrapping
// ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (acta.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM actas WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return acta.Record{}, wrap("get", id, ErrNotFound)
	}
	if err != nil {
		return acta.Record{}, wrap("get", id, err)
	}

	rec, err := unmarshalRecord(body)
	if err != nil {
		return acta.Record{}, wrap("get", id, err)
	}
	return rec, nil
}

// GetAll returns every record, newest first by UTC timestamp with the id
// as tie-breaker. Returns an empty slice (not nil) for an empty store.
func (s *Store) GetAll(ctx context.Context) ([]acta.Record, error) {
	return s.query(ctx, "get all", `
		SELECT id, body FROM actas
		ORDER BY fecha_utc DESC, id COLLATE BINARY DESC
	`)
}

// FindByContent returns records sharing the given content identity.
func (s *Store) FindByContent(ctx context.Context, contract, taxID, localTime string) ([]acta.Record, error) {
	return s.query(ctx, "find by content", `
		SELECT id, body FROM actas
		WHERE numero_contrato = ? AND nit = ? AND fecha_local = ?
		ORDER BY fecha_utc DESC, id COLLATE BINARY DESC
	`, contract, taxID, localTime)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actas`).Scan(&n); err != nil {
		return 0, wrap("count", "", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]acta.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, "", err)
	}
	defer rows.Close()

	records := []acta.Record{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, wrap(op, "", fmt.Errorf("scan: %w", err))
		}
		rec, err := unmarshalRecord(body)
		if err != nil {
			return nil, wrap(op, id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, "", fmt.Errorf("iterate: %w", err))
	}
	return records, nil
}
