package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/roach88/actas/internal/backup"
	"github.com/roach88/actas/internal/sheet"
)

// BackupResult reports a manual backup.
type BackupResult struct {
	Envelope backup.Envelope
	Path     string
}

// Backup snapshots the store into the recovery slot and writes the same
// envelope as a dated archive in the export directory.
func (s *Service) Backup(ctx context.Context) (BackupResult, error) {
	env, err := s.backups.Snapshot(ctx)
	if err != nil {
		return BackupResult{}, err
	}

	if err := os.MkdirAll(s.opts.ExportDir, 0o755); err != nil {
		return BackupResult{}, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.opts.ExportDir, backup.ArchiveName(env.Time().In(s.opts.Location)))
	f, err := os.Create(path)
	if err != nil {
		return BackupResult{}, fmt.Errorf("create archive: %w", err)
	}
	if err := backup.WriteArchive(f, env); err != nil {
		f.Close()
		return BackupResult{}, err
	}
	if err := f.Close(); err != nil {
		return BackupResult{}, fmt.Errorf("close archive: %w", err)
	}

	if err := s.setTimeMeta(ctx, MetaBackupLastRun, env.Time()); err != nil {
		return BackupResult{}, err
	}
	slog.Info("backup archived", "path", path, "actas", env.TotalActas)
	return BackupResult{Envelope: env, Path: path}, nil
}

// Restore replaces the store contents with the records of an archive file.
func (s *Service) Restore(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	env, err := backup.ReadArchive(f)
	if err != nil {
		return 0, err
	}
	return s.backups.Restore(ctx, env)
}

// RestoreLatest restores from the recovery snapshot held in the store.
func (s *Service) RestoreLatest(ctx context.Context) (int, error) {
	return s.backups.RestoreLatest(ctx)
}

// SaveDraft stores an in-progress signature image.
func (s *Service) SaveDraft(ctx context.Context, pngData string) error {
	return s.backups.SaveDraft(ctx, pngData)
}

// LoadDraft returns the saved signature draft.
func (s *Service) LoadDraft(ctx context.Context) (backup.Draft, error) {
	return s.backups.LoadDraft(ctx)
}

// ClearDraft discards the saved signature draft.
func (s *Service) ClearDraft(ctx context.Context) error {
	return s.backups.ClearDraft(ctx)
}

// AutoBackupResult reports one scheduled backup check.
type AutoBackupResult struct {
	// Ran is false when the backup was not due or there was nothing to
	// back up. Reason says which.
	Ran    bool
	Reason string

	Actas int

	// Export is the master sync that followed the snapshot, or nil when
	// it was dropped or failed.
	Export *ExportResult

	// Notify is set at most once per notice window.
	Notify bool
}

// Skip reasons.
const (
	ReasonNotDue  = "not due"
	ReasonNoActas = "no actas"
)

// AutoBackup runs the scheduled backup if the configured interval has
// passed since the last one. The last run is kept in the store so the
// schedule survives restarts.
//
// The follow-up export uses TryExport: if a manual export holds the
// synchronizer, the scheduled sync is dropped rather than queued.
func (s *Service) AutoBackup(ctx context.Context) (AutoBackupResult, error) {
	now := s.env.Now()

	last, err := s.timeMeta(ctx, MetaBackupLastRun)
	if err != nil {
		return AutoBackupResult{}, err
	}
	if !last.IsZero() && now.Sub(last) < s.opts.BackupInterval {
		return AutoBackupResult{Reason: ReasonNotDue}, nil
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		return AutoBackupResult{}, err
	}
	if n == 0 {
		slog.Debug("auto backup skipped, store is empty")
		return AutoBackupResult{Reason: ReasonNoActas}, nil
	}

	env, err := s.backups.Snapshot(ctx)
	if err != nil {
		return AutoBackupResult{}, err
	}
	res := AutoBackupResult{Ran: true, Actas: env.TotalActas}

	exp, err := s.TryExport(ctx)
	switch {
	case errors.Is(err, sheet.ErrBusy):
		slog.Info("auto backup sync dropped, export in progress")
	case err != nil:
		slog.Warn("auto backup sync failed", "error", err)
	default:
		res.Export = &exp
	}

	if err := s.setTimeMeta(ctx, MetaBackupLastRun, now); err != nil {
		return res, err
	}

	lastNotice, err := s.timeMeta(ctx, MetaBackupLastNotice)
	if err != nil {
		return res, err
	}
	if lastNotice.IsZero() || now.Sub(lastNotice) >= s.opts.NoticeWindow {
		res.Notify = true
		if err := s.setTimeMeta(ctx, MetaBackupLastNotice, now); err != nil {
			return res, err
		}
	}

	slog.Info("auto backup completed", "actas", res.Actas, "notify", res.Notify)
	return res, nil
}

// timeMeta reads a timestamp stored as unix milliseconds. An absent key
// is the zero time.
func (s *Service) timeMeta(ctx context.Context, key string) (time.Time, error) {
	v, ok, err := s.store.GetMeta(ctx, key)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("ignoring malformed timestamp", "key", key, "value", v)
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

func (s *Service) setTimeMeta(ctx context.Context, key string, t time.Time) error {
	return s.store.SetMeta(ctx, key, strconv.FormatInt(t.UnixMilli(), 10))
}
