package store

import (
	"context"
	"database/sql"
	"errors"
)

// PutSlot overwrites the named slot with payload.
func (s *Store) PutSlot(ctx context.Context, name string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, payload) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, name, payload)
	return wrap("put slot", name, err)
}

// GetSlot returns the payload of the named slot, or an *Error wrapping
// ErrNotFound.
func (s *Store) GetSlot(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("get slot", name, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get slot", name, err)
	}
	return payload, nil
}

// DeleteSlot empties the named slot. Deleting an empty slot is not an error.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	return wrap("delete slot", name, err)
}

// SetMeta stores a durable setting.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return wrap("set meta", key, err)
}

// GetMeta returns a durable setting. ok is false when the key is unset.
func (s *Store) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get meta", key, err)
	}
	return value, true, nil
}

// DeleteMeta removes a durable setting.
func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, key)
	return wrap("delete meta", key, err)
}
