package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/store"
	"github.com/roach88/actas/internal/testutil"
)

const agent = "actas-test/1.0"

type clockEnv struct {
	clock *testutil.DeterministicClock
}

func (e clockEnv) Now() time.Time { return e.clock.Now() }

func (clockEnv) ClientEnvironment() string { return agent }

type fixture struct {
	svc   *Service
	store *store.Store
	clock *testutil.DeterministicClock
	dir   string
}

func newFixture(t *testing.T, clock *testutil.DeterministicClock, r Renderer, mutate func(*Options)) *fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "actas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if clock == nil {
		clock = testutil.NewDeterministicClock()
	}
	opts := Options{
		Executive:      acta.Executive{Name: "Ana Pérez", Email: "ana.perez@example.com"},
		Location:       time.UTC,
		ExportDir:      filepath.Join(dir, "exports"),
		BackupInterval: time.Hour,
		NoticeWindow:   24 * time.Hour,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &fixture{
		svc:   New(st, clockEnv{clock: clock}, r, opts),
		store: st,
		clock: clock,
		dir:   dir,
	}
}

// seedSealed stores sealed copies of records directly.
func seedSealed(t *testing.T, st *store.Store, records ...acta.Record) {
	t.Helper()
	for _, rec := range records {
		require.NoError(t, seal.Apply(&rec, agent))
		require.NoError(t, st.Upsert(context.Background(), rec))
	}
}
