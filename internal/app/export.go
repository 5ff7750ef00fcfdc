package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/sheet"
)

// LeaseMaster names the store lease held for the whole of an export. Every
// process sharing the database takes it before touching the master.
const LeaseMaster = "master"

// ExportResult is a reconcile result plus where a regenerated artifact
// was saved.
type ExportResult struct {
	sheet.Result

	// SavedTo is the path a regenerated artifact was written to. Empty on
	// the incremental path.
	SavedTo string
}

type reconcileFunc func(context.Context, []acta.Record, sheet.Handle) (sheet.Result, error)

// Export reconciles every stored record into the master spreadsheet,
// waiting for any export already running in this or another process. With
// no registered master, or when appending to it fails, the master is
// regenerated into the export directory.
func (s *Service) Export(ctx context.Context) (ExportResult, error) {
	return s.export(ctx, true, s.sync.Reconcile)
}

// TryExport is Export, except that it returns sheet.ErrBusy when another
// export is running.
func (s *Service) TryExport(ctx context.Context) (ExportResult, error) {
	return s.export(ctx, false, s.sync.TryReconcile)
}

func (s *Service) export(ctx context.Context, wait bool, reconcile reconcileFunc) (ExportResult, error) {
	holder, err := s.acquireMaster(ctx, wait)
	if err != nil {
		return ExportResult{}, err
	}
	var h sheet.Handle
	defer func() { s.releaseMaster(holder, h) }()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	sortArrival(records)

	h, err = s.masterHandle(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	res, err := reconcile(ctx, records, h)
	if err != nil {
		return ExportResult{}, err
	}

	out := ExportResult{Result: res}
	if res.Path == sheet.PathRegenerate {
		path, err := s.writeExport(res.Filename, res.Artifact)
		if err != nil {
			return ExportResult{}, fmt.Errorf("save regenerated master: %w", err)
		}
		out.SavedTo = path
	}
	return out, nil
}

// acquireMaster takes the master lease under a fresh holder id. Without
// wait it returns sheet.ErrBusy when the lease is held; with wait it polls
// until the lease is free or ctx is done. Expiry is wall-clock time, since
// it is compared across processes.
func (s *Service) acquireMaster(ctx context.Context, wait bool) (string, error) {
	holder := uuid.NewString()
	for {
		ok, err := s.store.AcquireLease(ctx, LeaseMaster, holder, time.Now(), s.opts.LeaseTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return holder, nil
		}
		if !wait {
			return "", sheet.ErrBusy
		}
		slog.Debug("master lease held, waiting", "retry", s.opts.LeaseRetry)

		t := time.NewTimer(s.opts.LeaseRetry)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
}

// releaseMaster gives up the lease. If I/O on h from a timed-out run is
// still going, the lease is kept until it returns so that no other process
// writes the master underneath it.
func (s *Service) releaseMaster(holder string, h sheet.Handle) {
	release := func() {
		if err := s.store.ReleaseLease(context.Background(), LeaseMaster, holder); err != nil {
			slog.Warn("release master lease", "error", err)
		}
	}
	if h == nil {
		release()
		return
	}
	settled := s.sync.Settled(h.Name())
	select {
	case <-settled:
		release()
	default:
		slog.Warn("master i/o still running, holding lease", "handle", h.Name())
		go func() {
			<-settled
			release()
		}()
	}
}

// masterHandle returns the registered master, or nil when none is set.
// The path is not re-validated here: a master that has gone away is
// reported by the synchronizer as an unavailable handle.
func (s *Service) masterHandle(ctx context.Context) (sheet.Handle, error) {
	path, ok, err := s.store.GetMeta(ctx, MetaMasterPath)
	if err != nil {
		return nil, err
	}
	if !ok || path == "" {
		return nil, nil
	}
	return &sheet.FileHandle{Path: path}, nil
}

// SetMaster registers path as the master spreadsheet for incremental
// exports. The file need not exist yet; its directory must.
func (s *Service) SetMaster(ctx context.Context, path string) (string, error) {
	h, err := sheet.NewFileHandle(path)
	if err != nil {
		return "", fmt.Errorf("set master: %w", err)
	}
	if err := s.store.SetMeta(ctx, MetaMasterPath, h.Path); err != nil {
		return "", err
	}
	slog.Info("master registered", "path", h.Path)
	return h.Path, nil
}

// Master returns the registered master path, if any.
func (s *Service) Master(ctx context.Context) (string, bool, error) {
	return s.store.GetMeta(ctx, MetaMasterPath)
}

// ForgetMaster drops the registered master. Later exports regenerate.
func (s *Service) ForgetMaster(ctx context.Context) error {
	if err := s.store.DeleteMeta(ctx, MetaMasterPath); err != nil {
		return err
	}
	slog.Info("master forgotten")
	return nil
}
