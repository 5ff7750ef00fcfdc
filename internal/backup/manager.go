package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/store"
)

// Slot names used in the store.
const (
	SlotBackup = "backup"
	SlotDraft  = "signature_draft"
)

// Store is the subset of *store.Store the manager needs.
type Store interface {
	GetAll(ctx context.Context) ([]acta.Record, error)
	Upsert(ctx context.Context, rec acta.Record) error
	Clear(ctx context.Context) error
	PutSlot(ctx context.Context, name string, payload []byte) error
	GetSlot(ctx context.Context, name string) ([]byte, error)
	DeleteSlot(ctx context.Context, name string) error
}

// Manager snapshots and restores a Store.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager returns a manager over st. now supplies snapshot timestamps;
// nil means time.Now.
func NewManager(st Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: st, now: now}
}

// Snapshot reads every record and overwrites the recovery slot with the
// resulting envelope, which is also returned for archiving.
func (m *Manager) Snapshot(ctx context.Context) (Envelope, error) {
	records, err := m.store.GetAll(ctx)
	if err != nil {
		return Envelope{}, fmt.Errorf("snapshot: %w", err)
	}

	env := NewEnvelope(records, m.now())
	payload, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := m.store.PutSlot(ctx, SlotBackup, payload); err != nil {
		return Envelope{}, fmt.Errorf("snapshot: %w", err)
	}

	slog.Info("backup snapshot saved", "actas", env.TotalActas)
	return env, nil
}

// Latest returns the envelope in the recovery slot. A missing snapshot is
// reported as ErrEmptyBackup.
func (m *Manager) Latest(ctx context.Context) (Envelope, error) {
	payload, err := m.store.GetSlot(ctx, SlotBackup)
	if store.IsNotFound(err) {
		return Envelope{}, ErrEmptyBackup
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("latest backup: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("latest backup: decode: %w", err)
	}
	return env, nil
}

// Restore replaces the store contents with env.Actas, in envelope order.
// It returns the number of records written.
//
// An empty envelope yields ErrEmptyBackup before any mutation. A failure
// after the clear yields *RestoreError.
func (m *Manager) Restore(ctx context.Context, env Envelope) (int, error) {
	total := len(env.Actas)
	if total == 0 {
		return 0, ErrEmptyBackup
	}

	if err := m.store.Clear(ctx); err != nil {
		return 0, &RestoreError{Restored: 0, Total: total, Err: err}
	}

	for i, rec := range env.Actas {
		if err := m.store.Upsert(ctx, rec); err != nil {
			slog.Error("restore stopped", "restored", i, "total", total, "id", rec.ID, "error", err)
			return i, &RestoreError{Restored: i, Total: total, Err: err}
		}
	}

	slog.Info("backup restored", "actas", total, "snapshot", env.Time().UTC().Format(time.RFC3339))
	return total, nil
}

// RestoreLatest restores from the recovery slot.
func (m *Manager) RestoreLatest(ctx context.Context) (int, error) {
	env, err := m.Latest(ctx)
	if err != nil {
		return 0, err
	}
	return m.Restore(ctx, env)
}

// Draft is a saved in-progress signature image.
type Draft struct {
	PNGData string    `json:"pngDataUrl"`
	SavedAt time.Time `json:"savedAt"`
}

// SaveDraft overwrites the draft slot with pngData.
func (m *Manager) SaveDraft(ctx context.Context, pngData string) error {
	if pngData == "" {
		return errors.New("save draft: empty signature image")
	}
	payload, err := json.Marshal(Draft{PNGData: pngData, SavedAt: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	if err := m.store.PutSlot(ctx, SlotDraft, payload); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the saved draft, or ErrNoDraft.
func (m *Manager) LoadDraft(ctx context.Context) (Draft, error) {
	payload, err := m.store.GetSlot(ctx, SlotDraft)
	if store.IsNotFound(err) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}
	return d, nil
}

// ClearDraft discards the saved draft. Called once the record it belongs
// to has been sealed and stored.
func (m *Manager) ClearDraft(ctx context.Context) error {
	if err := m.store.DeleteSlot(ctx, SlotDraft); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
