package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/dedup"
	"github.com/roach88/actas/internal/seal"
)

// CaptureResult reports a stored record and, with AutoSync, the export
// that followed it.
type CaptureResult struct {
	Record acta.Record
	Export *ExportResult
}

// Capture assigns an id and timestamps to rec, seals it and stores it.
//
// Unless force is set, a record whose contract, tax id and local time
// match a stored record is refused with a *SimilarError. A seal failure
// leaves the store untouched. A stored id is never overwritten.
func (s *Service) Capture(ctx context.Context, rec acta.Record, force bool) (CaptureResult, error) {
	now := s.env.Now()
	rec.ID = acta.NewID(now)
	acta.Stamp(&rec.Visit, now, s.opts.Location)
	rec.Seal = acta.Seal{}
	rec.Artifacts = acta.Artifacts{}

	if !force {
		similar, err := s.store.FindByContent(ctx, rec.Client.ContractNumber, rec.Client.TaxID, rec.Visit.LocalTime)
		if err != nil {
			return CaptureResult{}, err
		}
		if len(similar) > 0 {
			ids := make([]string, len(similar))
			for i, r := range similar {
				ids[i] = r.ID
			}
			return CaptureResult{}, &SimilarError{
				Contract: rec.Client.ContractNumber,
				TaxID:    rec.Client.TaxID,
				Existing: ids,
			}
		}
	}

	if err := seal.Apply(&rec, s.env.ClientEnvironment()); err != nil {
		return CaptureResult{}, err
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return CaptureResult{}, err
	}
	slog.Info("acta captured",
		"id", rec.ID,
		"contract", rec.Client.ContractNumber,
		"hash", rec.Seal.ContentHash,
		"seal_version", seal.Version,
	)

	if err := s.backups.ClearDraft(ctx); err != nil {
		slog.Warn("clear signature draft", "error", err)
	}

	res := CaptureResult{Record: rec}
	if s.opts.AutoSync {
		exp, err := s.Export(ctx)
		if err != nil {
			slog.Warn("auto sync failed", "id", rec.ID, "error", err)
		} else {
			res.Export = &exp
		}
	}
	return res, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (acta.Record, error) {
	return s.store.Get(ctx, id)
}

// History returns every record, newest first.
func (s *Service) History(ctx context.Context) ([]acta.Record, error) {
	return s.store.GetAll(ctx)
}

// Delete removes one record. Deleting a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	slog.Info("acta deleted", "id", id)
	return nil
}

// Clear removes every record. The recovery snapshot and draft are kept.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	slog.Info("actas cleared")
	return nil
}

// AttachArtifact records the rendered PDF filename on a sealed record.
// The filename is set once; attaching the same name again is a no-op.
func (s *Service) AttachArtifact(ctx context.Context, id, filename string) (acta.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return acta.Record{}, err
	}
	if !rec.Sealed() {
		return acta.Record{}, fmt.Errorf("attach %s: %w", id, ErrNotSealed)
	}
	switch rec.Artifacts.PDFFilename {
	case filename:
		return rec, nil
	case "":
	default:
		return acta.Record{}, fmt.Errorf("attach %s: %w: %s", id, ErrArtifactAttached, rec.Artifacts.PDFFilename)
	}

	rec.Artifacts.PDFFilename = filename
	if err := s.store.Upsert(ctx, rec); err != nil {
		return acta.Record{}, err
	}
	return rec, nil
}

// RenderResult names the written PDF.
type RenderResult struct {
	Record acta.Record
	Path   string
}

// Render produces the PDF for a sealed record, writes it into the export
// directory and attaches its filename.
func (s *Service) Render(ctx context.Context, id string) (RenderResult, error) {
	if s.renderer == nil {
		return RenderResult{}, ErrNoRenderer
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return RenderResult{}, err
	}
	if !rec.Sealed() {
		return RenderResult{}, fmt.Errorf("render %s: %w", id, ErrNotSealed)
	}

	blob, filename, err := s.renderer.Render(ctx, rec)
	if err != nil {
		return RenderResult{}, fmt.Errorf("render %s: %w", id, err)
	}
	if filename == "" {
		filename = PDFFilename(rec)
	}
	path, err := s.writeExport(filename, blob)
	if err != nil {
		return RenderResult{}, err
	}
	rec, err = s.AttachArtifact(ctx, id, filename)
	if err != nil {
		return RenderResult{}, err
	}
	slog.Info("acta rendered", "id", id, "path", path)
	return RenderResult{Record: rec, Path: path}, nil
}

// PDFFilename is the conventional artifact name for rec.
func PDFFilename(rec acta.Record) string {
	return rec.ID + ".pdf"
}

// Duplicates reports what PurgeDuplicates would remove without changing
// the store.
func (s *Service) Duplicates(ctx context.Context) (dedup.Report, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return dedup.Report{}, err
	}
	sortArrival(records)
	return dedup.FindDuplicates(records), nil
}

// PurgeDuplicates drops every record that repeats the id or content
// identity of an earlier one. Records are considered oldest first, so the
// first capture of a visit is the one kept.
func (s *Service) PurgeDuplicates(ctx context.Context) (dedup.Report, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return dedup.Report{}, err
	}
	sortArrival(records)

	report := dedup.FindDuplicates(records)
	if report.Duplicates() == 0 {
		return report, nil
	}
	if err := s.store.ReplaceAll(ctx, dedup.Unique(records)); err != nil {
		return dedup.Report{}, err
	}
	slog.Info("duplicate actas purged",
		"total", report.Total,
		"removed", report.Duplicates(),
	)
	return report, nil
}

// Verify checks the seal of one stored record.
func (s *Service) Verify(ctx context.Context, id string) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return seal.Verify(rec)
}

// VerifyPayload resolves a verification payload to its stored record and
// checks that the payload hash matches the record's seal.
func (s *Service) VerifyPayload(ctx context.Context, payload string) (acta.Record, error) {
	p, err := seal.ParsePayload(payload)
	if err != nil {
		return acta.Record{}, err
	}
	rec, err := s.store.Get(ctx, p.ID)
	if err != nil {
		return acta.Record{}, err
	}
	if err := seal.Verify(rec); err != nil {
		return rec, err
	}
	if p.Hash != rec.Seal.ContentHash {
		return rec, &seal.Error{
			Code:    seal.ErrCodeMismatch,
			ActaID:  rec.ID,
			Message: "payload hash does not match stored seal",
		}
	}
	return rec, nil
}

// VerifyReport lists the outcome of VerifyAll.
type VerifyReport struct {
	Checked  int
	Failures map[string]error
}

// VerifyAll checks every stored record.
func (s *Service) VerifyAll(ctx context.Context) (VerifyReport, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return VerifyReport{}, err
	}
	report := VerifyReport{Checked: len(records), Failures: map[string]error{}}
	for _, rec := range records {
		if err := seal.Verify(rec); err != nil {
			report.Failures[rec.ID] = err
		}
	}
	return report, nil
}

// sortArrival orders records oldest first, breaking ties on id.
func sortArrival(records []acta.Record) {
	slices.SortStableFunc(records, func(a, b acta.Record) int {
		if c := strings.Compare(a.Visit.UTCTime, b.Visit.UTCTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (s *Service) writeExport(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.opts.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.opts.ExportDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
