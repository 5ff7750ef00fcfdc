package store

import (
	"context"
	"time"
)

// AcquireLease claims the named lease for holder until now+ttl. It reports
// false, without error, when another holder owns an unexpired lease. A
// holder may renew its own lease.
//
// The claim is a single statement, so two processes sharing the database
// cannot both win.
func (s *Store) AcquireLease(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO leases (name, holder, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			holder     = excluded.holder,
			expires_at = excluded.expires_at
		WHERE leases.holder = excluded.holder OR leases.expires_at <= ?
	`, name, holder, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return false, wrap("acquire lease", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, wrap("acquire lease", name, err)
	}
	return n == 1, nil
}

// ReleaseLease gives up the named lease if holder still owns it.
func (s *Store) ReleaseLease(ctx context.Context, name, holder string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM leases WHERE name = ? AND holder = ?`, name, holder)
	return wrap("release lease", name, err)
}
