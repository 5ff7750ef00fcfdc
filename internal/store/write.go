package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/actas/internal/acta"
)

// Upsert writes rec, replacing any stored record with the same id.
//
// Writing a body identical to the stored one leaves the row untouched,
// updated_at included, so repeated upserts are a no-op in effect.
func (s *Store) Upsert(ctx context.Context, rec acta.Record) error {
	if rec.ID == "" {
		return wrap("upsert", "", errors.New("record has no id"))
	}
	r, err := marshalRecord(rec)
	if err != nil {
		return wrap("upsert", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actas (id, numero_contrato, nit, fecha_local, fecha_utc, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			numero_contrato = excluded.numero_contrato,
			nit             = excluded.nit,
			fecha_local     = excluded.fecha_local,
			fecha_utc       = excluded.fecha_utc,
			body            = excluded.body,
			updated_at      = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE actas.body IS NOT excluded.body
	`, r.id, r.contract, r.taxID, r.local, r.utc, r.body)
	return wrap("upsert", rec.ID, err)
}

// Insert writes rec only if its id is not already stored. An existing id
// yields an *Error wrapping ErrIDCollision and the stored record is left
// as it was.
func (s *Store) Insert(ctx context.Context, rec acta.Record) error {
	if rec.ID == "" {
		return wrap("insert", "", errors.New("record has no id"))
	}
	r, err := marshalRecord(rec)
	if err != nil {
		return wrap("insert", rec.ID, err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO actas (id, numero_contrato, nit, fecha_local, fecha_utc, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.id, r.contract, r.taxID, r.local, r.utc, r.body)
	if err != nil {
		return wrap("insert", rec.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return wrap("insert", rec.ID, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return wrap("insert", rec.ID, ErrIDCollision)
	}
	return nil
}

// DeleteByID removes the record with the given id. Deleting an absent id
// is not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM actas WHERE id = ?`, id)
	return wrap("delete", id, err)
}

// Clear removes every record. Slots and meta are kept, so a backup
// snapshot survives a clear.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM actas`)
	return wrap("clear", "", err)
}

// ReplaceAll atomically swaps the whole record set for records. Either
// every record is written or the store is left unchanged.
func (s *Store) ReplaceAll(ctx context.Context, records []acta.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("replace all", "", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM actas`); err != nil {
		return wrap("replace all", "", err)
	}
	for _, rec := range records {
		r, err := marshalRecord(rec)
		if err != nil {
			return wrap("replace all", rec.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO actas (id, numero_contrato, nit, fecha_local, fecha_utc, body)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.id, r.contract, r.taxID, r.local, r.utc, r.body)
		if err != nil {
			return wrap("replace all", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap("replace all", "", fmt.Errorf("commit: %w", err))
	}
	return nil
}
