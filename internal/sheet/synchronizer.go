package sheet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/actas/internal/acta"
)

// DefaultIOTimeout bounds each handle read and write.
const DefaultIOTimeout = 30 * time.Second

// DefaultFilename names regenerated artifacts.
const DefaultFilename = "Actas_Master.xlsx"

// Path identifies how a run persisted the artifact.
type Path string

const (
	// PathIncremental means rows were appended through a held handle.
	PathIncremental Path = "incremental"
	// PathRegenerate means the artifact was rebuilt and returned as bytes.
	PathRegenerate Path = "regenerate"
)

// Options configures a Synchronizer. Zero values select defaults.
type Options struct {
	// IOTimeout bounds each handle read and write. Expiry is a
	// WRITE_FAILURE.
	IOTimeout time.Duration

	// Filename is suggested to the caller for regenerated artifacts.
	Filename string

	// NewRunID generates run identifiers. Defaults to UUIDv7.
	NewRunID func() string
}

// Result summarizes one reconcile run.
type Result struct {
	RunID string
	Path  Path

	// Appended counts rows written this run.
	Appended int
	// Skipped counts records that duplicated an existing row or an
	// earlier record in the batch.
	Skipped int
	// Unsealed counts records left out because they carry no seal.
	Unsealed int
	// Rows is the number of data rows in the artifact after the run.
	Rows int

	// Written is false for an incremental run that had nothing to change.
	Written bool

	// Artifact and Filename are set on PathRegenerate. The caller hands
	// the bytes to the user.
	Artifact []byte
	Filename string

	// Fallback is why Path A was abandoned, or nil.
	Fallback *Error
}

// Synchronizer reconciles records into the master artifact. Runs are
// serialized: the artifact read-modify-write is not safe to interleave.
//
// Handle I/O that outlives its deadline keeps running in the background.
// Until it returns, later runs do not touch that handle and regenerate
// instead.
type Synchronizer struct {
	opts Options
	mu   sync.Mutex

	ioMu     sync.Mutex
	inflight map[string]<-chan struct{}
}

// New returns a Synchronizer.
func New(opts Options) *Synchronizer {
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = DefaultIOTimeout
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.NewRunID == nil {
		opts.NewRunID = newRunID
	}
	return &Synchronizer{opts: opts, inflight: make(map[string]<-chan struct{})}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Reconcile merges records into the artifact behind h, in input order,
// waiting for any run already in progress. records should be the full
// record store: Path B rebuilds from them alone. A nil h goes straight to
// Path B.
//
// The returned error is non-nil only when Path B itself fails or ctx is
// already done. Path A failures are reported in Result.Fallback.
func (s *Synchronizer) Reconcile(ctx context.Context, records []acta.Record, h Handle) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, records, h)
}

// TryReconcile is Reconcile, except that it returns ErrBusy instead of
// waiting when another run is in progress. Scheduled runs use it so a
// tick that lands on a manual export is dropped.
func (s *Synchronizer) TryReconcile(ctx context.Context, records []acta.Record, h Handle) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrBusy
	}
	defer s.mu.Unlock()
	return s.run(ctx, records, h)
}

func (s *Synchronizer) run(ctx context.Context, records []acta.Record, h Handle) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sealed := make([]acta.Record, 0, len(records))
	for _, rec := range records {
		if rec.Sealed() {
			sealed = append(sealed, rec)
		}
	}
	unsealed := len(records) - len(sealed)

	runID := s.opts.NewRunID()
	logger := slog.With("run_id", runID)

	var fallback *Error
	switch {
	case h == nil:
		fallback = &Error{Code: ErrCodeHandleUnavailable, Err: errors.New("no master handle held")}
	case !s.idle(h.Name()):
		fallback = &Error{Code: ErrCodeWriteFailure, Handle: h.Name(), Err: ErrHandleInFlight}
	default:
		res, err := s.incremental(ctx, sealed, h)
		if err == nil {
			res.RunID, res.Unsealed = runID, unsealed
			logger.Info("master appended",
				"handle", h.Name(),
				"appended", res.Appended,
				"skipped", res.Skipped,
				"rows", res.Rows,
				"written", res.Written,
			)
			return res, nil
		}
		fallback = err
		fallback.Handle = h.Name()
	}

	if h == nil {
		logger.Debug("no master handle, regenerating")
	} else {
		logger.Warn("master append failed, regenerating",
			"code", fallback.Code,
			"handle", fallback.Handle,
			"error", fallback.Err,
		)
	}

	res, err := s.regenerate(sealed)
	if err != nil {
		return Result{}, err
	}
	res.RunID, res.Unsealed, res.Fallback = runID, unsealed, fallback
	logger.Info("master regenerated",
		"filename", res.Filename,
		"appended", res.Appended,
		"skipped", res.Skipped,
	)
	return res, nil
}

// Settled returns a channel that is closed once no I/O on the named handle
// is still running from an earlier, timed-out run.
func (s *Synchronizer) Settled(name string) <-chan struct{} {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if ch, ok := s.inflight[name]; ok {
		return ch
	}
	done := make(chan struct{})
	close(done)
	return done
}

// idle reports whether the named handle has no abandoned I/O running.
func (s *Synchronizer) idle(name string) bool {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	ch, ok := s.inflight[name]
	if !ok {
		return true
	}
	select {
	case <-ch:
		delete(s.inflight, name)
		return true
	default:
		return false
	}
}

// abandon records I/O on the named handle that is still running after its
// deadline.
func (s *Synchronizer) abandon(name string, running <-chan struct{}) {
	if running == nil {
		return
	}
	s.ioMu.Lock()
	s.inflight[name] = running
	s.ioMu.Unlock()
}

// incremental is Path A.
func (s *Synchronizer) incremental(ctx context.Context, records []acta.Record, h Handle) (Result, *Error) {
	data, running, err := bounded(ctx, s.opts.IOTimeout, h.Read)
	s.abandon(h.Name(), running)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &Error{Code: ErrCodeWriteFailure, Err: err}
		}
		return Result{}, &Error{Code: ErrCodeHandleUnavailable, Err: err}
	}

	w, err := openWorkbook(data)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return Result{}, se
		}
		return Result{}, &Error{Code: ErrCodeArtifactCorrupt, Err: err}
	}
	defer w.close()

	res := Result{Path: PathIncremental}
	for _, rec := range records {
		added, err := w.add(rec)
		if err != nil {
			return Result{}, &Error{Code: ErrCodeWriteFailure, Err: err}
		}
		if added {
			res.Appended++
		} else {
			res.Skipped++
		}
	}
	res.Rows = w.dataRows()

	if !w.dirty {
		return res, nil
	}

	out, err := w.bytes()
	if err != nil {
		return Result{}, &Error{Code: ErrCodeWriteFailure, Err: err}
	}
	_, running, err = bounded(ctx, s.opts.IOTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.Write(ctx, out)
	})
	s.abandon(h.Name(), running)
	if err != nil {
		return Result{}, &Error{Code: ErrCodeWriteFailure, Err: err}
	}
	res.Written = true
	return res, nil
}

// regenerate is Path B.
func (s *Synchronizer) regenerate(records []acta.Record) (Result, error) {
	w, err := newWorkbook()
	if err != nil {
		return Result{}, err
	}
	defer w.close()

	res := Result{Path: PathRegenerate, Filename: s.opts.Filename}
	for _, rec := range records {
		added, err := w.add(rec)
		if err != nil {
			return Result{}, err
		}
		if added {
			res.Appended++
		} else {
			res.Skipped++
		}
	}
	res.Rows = w.dataRows()

	res.Artifact, err = w.bytes()
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// bounded runs fn with a deadline of timeout and stops waiting when the
// deadline passes, even if fn ignores its context. When it stops waiting,
// running is non-nil and is closed once fn returns.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (v T, running <-chan struct{}, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, nil, r.err
	case <-ctx.Done():
		var zero T
		return zero, finished, ctx.Err()
	}
}
