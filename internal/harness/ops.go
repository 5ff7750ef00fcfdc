package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/backup"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
	"github.com/roach88/actas/internal/testutil"
)

// Flow operations.
const (
	OpCapture       = "capture"
	OpGet           = "get"
	OpDelete        = "delete"
	OpClear         = "clear"
	OpAttach        = "attach"
	OpDedupe        = "dedupe"
	OpExport        = "export"
	OpSetMaster     = "set_master"
	OpForgetMaster  = "forget_master"
	OpRevokeMaster  = "revoke_master"
	OpCorruptMaster = "corrupt_master"
	OpBackup        = "backup"
	OpRestoreLatest = "restore_latest"
	OpAutoBackup    = "auto_backup"
	OpAdvance       = "advance"
	OpTamper        = "tamper"
	OpVerify        = "verify"
	OpVerifyAll     = "verify_all"
)

// Outcome codes for errors that carry no code of their own.
const (
	OutcomeSimilarExists    = "SIMILAR_EXISTS"
	OutcomeIDCollision      = "ID_COLLISION"
	OutcomeNotFound         = "NOT_FOUND"
	OutcomeEmptyBackup      = "EMPTY_BACKUP"
	OutcomeNotSealed        = "NOT_SEALED"
	OutcomeArtifactAttached = "ARTIFACT_ATTACHED"
	OutcomeBusy             = "BUSY"
	OutcomeError            = "ERROR"
)

type opFunc func(h *Harness, ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

var ops = map[string]opFunc{
	OpCapture:       (*Harness).capture,
	OpGet:           (*Harness).get,
	OpDelete:        (*Harness).delete,
	OpClear:         (*Harness).clear,
	OpAttach:        (*Harness).attach,
	OpDedupe:        (*Harness).dedupe,
	OpExport:        (*Harness).export,
	OpSetMaster:     (*Harness).setMaster,
	OpForgetMaster:  (*Harness).forgetMaster,
	OpRevokeMaster:  (*Harness).revokeMaster,
	OpCorruptMaster: (*Harness).corruptMaster,
	OpBackup:        (*Harness).backup,
	OpRestoreLatest: (*Harness).restoreLatest,
	OpAutoBackup:    (*Harness).autoBackup,
	OpAdvance:       (*Harness).advance,
	OpTamper:        (*Harness).tamper,
	OpVerify:        (*Harness).verify,
	OpVerifyAll:     (*Harness).verifyAll,
}

func knownOp(op string) bool {
	_, ok := ops[op]
	return ok
}

// outcomeOf maps an operation error to the outcome recorded in the trace.
// Coded errors keep their own code.
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}

	var se *seal.Error
	var sh *sheet.Error
	switch {
	case errors.Is(err, app.ErrSimilarExists):
		return OutcomeSimilarExists
	case errors.Is(err, store.ErrIDCollision):
		return OutcomeIDCollision
	case store.IsNotFound(err):
		return OutcomeNotFound
	case errors.Is(err, backup.ErrEmptyBackup):
		return OutcomeEmptyBackup
	case errors.Is(err, app.ErrNotSealed):
		return OutcomeNotSealed
	case errors.Is(err, app.ErrArtifactAttached):
		return OutcomeArtifactAttached
	case errors.Is(err, sheet.ErrBusy):
		return OutcomeBusy
	case errors.As(err, &se):
		return string(se.Code)
	case errors.As(err, &sh):
		return string(sh.Code)
	}
	return OutcomeError
}

func (h *Harness) capture(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	contract, err := stringArg(args, "contract")
	if err != nil {
		return nil, err
	}
	taxID, err := stringArg(args, "tax_id")
	if err != nil {
		return nil, err
	}

	rec := testutil.Record("", contract, taxID, "")
	switch sig := optString(args, "signature", "a"); sig {
	case "a":
	case "b":
		rec.Signature.PNGData = testutil.SignatureB
	case "none":
		rec.Signature.PNGData = ""
	default:
		return nil, fmt.Errorf("unknown signature %q", sig)
	}

	res, err := h.svc.Capture(ctx, rec, boolArg(args, "force"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":         res.Record.ID,
		"local_time": res.Record.Visit.LocalTime,
	}, nil
}

func (h *Harness) get(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	rec, err := h.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return project(rec), nil
}

func (h *Harness) delete(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Delete(ctx, id)
}

func (h *Harness) clear(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	return nil, h.svc.Clear(ctx)
}

func (h *Harness) attach(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	filename, err := stringArg(args, "filename")
	if err != nil {
		return nil, err
	}
	rec, err := h.svc.AttachArtifact(ctx, id, filename)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"pdf": rec.Artifacts.PDFFilename}, nil
}

func (h *Harness) dedupe(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	find := h.svc.PurgeDuplicates
	if boolArg(args, "dry_run") {
		find = h.svc.Duplicates
	}
	report, err := find(ctx)
	if err != nil {
		return nil, err
	}

	dropped := []interface{}{}
	for _, g := range report.Groups {
		for _, rec := range g.Dropped {
			dropped = append(dropped, rec.ID)
		}
	}
	return map[string]interface{}{
		"total":   report.Total,
		"removed": report.Duplicates(),
		"dropped": dropped,
	}, nil
}

func (h *Harness) export(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	res, err := h.svc.Export(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"path":     string(res.Path),
		"appended": res.Appended,
		"skipped":  res.Skipped,
		"unsealed": res.Unsealed,
		"rows":     res.Rows,
		"written":  res.Written,
	}
	if res.Fallback != nil {
		out["fallback"] = string(res.Fallback.Code)
	}
	switch {
	case res.SavedTo != "":
		out["saved_to"] = filepath.Base(res.SavedTo)
		h.artifact = res.SavedTo
	case res.Written:
		h.artifact = h.master
	}
	return out, nil
}

func (h *Harness) setMaster(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	file, err := stringArg(args, "file")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(h.dir, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	abs, err := h.svc.SetMaster(ctx, path)
	if err != nil {
		return nil, err
	}
	h.master = abs
	return nil, nil
}

func (h *Harness) forgetMaster(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	if err := h.svc.ForgetMaster(ctx); err != nil {
		return nil, err
	}
	h.master = ""
	return nil, nil
}

// revokeMaster removes the master's directory, as when a removable drive is
// unplugged.
func (h *Harness) revokeMaster(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	if h.master == "" {
		return nil, fmt.Errorf("no master registered")
	}
	return nil, os.RemoveAll(filepath.Dir(h.master))
}

func (h *Harness) corruptMaster(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	if h.master == "" {
		return nil, fmt.Errorf("no master registered")
	}
	return nil, os.WriteFile(h.master, []byte("not a workbook"), 0o644)
}

func (h *Harness) backup(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	res, err := h.svc.Backup(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"actas":   res.Envelope.TotalActas,
		"archive": filepath.Base(res.Path),
	}, nil
}

func (h *Harness) restoreLatest(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	n, err := h.svc.RestoreLatest(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"restored": n}, nil
}

func (h *Harness) autoBackup(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	res, err := h.svc.AutoBackup(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{
		"ran":    res.Ran,
		"notify": res.Notify,
	}
	if res.Reason != "" {
		out["reason"] = res.Reason
	}
	if res.Ran {
		out["actas"] = res.Actas
	}
	if res.Export != nil && res.Export.SavedTo != "" {
		h.artifact = res.Export.SavedTo
	}
	return out, nil
}

func (h *Harness) advance(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	s, err := stringArg(args, "duration")
	if err != nil {
		return nil, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, err
	}
	h.clock.Advance(d)
	return nil, nil
}

// tamper edits a stored record behind the seal's back.
func (h *Harness) tamper(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	observations, err := stringArg(args, "observations")
	if err != nil {
		return nil, err
	}
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Observations = observations
	return nil, h.store.Upsert(ctx, rec)
}

func (h *Harness) verify(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Verify(ctx, id)
}

func (h *Harness) verifyAll(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	report, err := h.svc.VerifyAll(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"checked": report.Checked,
		"failed":  len(report.Failures),
	}, nil
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing arg %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("arg %q: expected string, got %T", key, v)
	}
	return s, nil
}

func optString(args map[string]interface{}, key, def string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return def
}

func boolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}
