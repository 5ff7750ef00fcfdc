package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/dedup"
)

// workbook is an in-memory master artifact with the identities of every
// row it holds.
type workbook struct {
	f     *excelize.File
	index *dedup.Index
	// rows counts sheet rows including the header.
	rows int
	// dirty is set once the workbook differs from the bytes it was read from.
	dirty bool
}

// newWorkbook creates an empty master with the current header.
func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	w := &workbook{f: f, index: dedup.NewIndex(), dirty: true}
	if err := w.setRow(1, Header); err != nil {
		f.Close()
		return nil, err
	}
	w.rows = 1
	return w, nil
}

// openWorkbook parses existing master bytes. Empty input yields a fresh
// workbook. Any parse or layout problem is an ARTIFACT_CORRUPT error.
func openWorkbook(data []byte) (*workbook, error) {
	if len(data) == 0 {
		return newWorkbook()
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Code: ErrCodeArtifactCorrupt, Err: err}
	}
	corrupt := func(err error) (*workbook, error) {
		f.Close()
		return nil, &Error{Code: ErrCodeArtifactCorrupt, Err: err}
	}

	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		return corrupt(fmt.Errorf("no %q sheet", SheetName))
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return corrupt(err)
	}

	w := &workbook{f: f, index: dedup.NewIndex()}
	if len(rows) == 0 {
		if err := w.setRow(1, Header); err != nil {
			return corrupt(err)
		}
		w.rows, w.dirty = 1, true
		return w, nil
	}

	missing, ok := checkHeader(rows[0])
	if !ok {
		return corrupt(fmt.Errorf("header %v does not match schema version %s", rows[0], SchemaVersion))
	}
	if len(missing) > 0 {
		cell, err := excelize.CoordinatesToCellName(len(rows[0])+1, 1)
		if err != nil {
			return corrupt(err)
		}
		if err := f.SetSheetRow(SheetName, cell, &missing); err != nil {
			return corrupt(err)
		}
		w.dirty = true
	}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		w.index.Add(rowIdentities(row))
	}
	w.rows = len(rows)
	return w, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func (w *workbook) setRow(n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

// add appends rec after the last row unless it duplicates a row already
// present. It reports whether a row was written.
func (w *workbook) add(rec acta.Record) (bool, error) {
	if !w.index.Admit(dedup.Identify(rec)) {
		return false, nil
	}
	if err := w.setRow(w.rows+1, Row(rec)); err != nil {
		return false, err
	}
	w.rows++
	w.dirty = true
	return true, nil
}

// dataRows returns the number of rows below the header.
func (w *workbook) dataRows() int {
	return w.rows - 1
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *workbook) close() {
	w.f.Close()
}

// ReadRows parses master bytes and returns every row of the Actas sheet,
// header included.
func ReadRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Code: ErrCodeArtifactCorrupt, Err: err}
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, &Error{Code: ErrCodeArtifactCorrupt, Err: err}
	}
	return rows, nil
}
