package backup

import (
	"errors"
	"fmt"
)

// ErrEmptyBackup is returned when a restore is attempted from an envelope
// with no records or from a missing backup. The store is not touched.
var ErrEmptyBackup = errors.New("backup contains no actas")

// ErrNoDraft is returned by LoadDraft when no draft is saved.
var ErrNoDraft = errors.New("no signature draft saved")

// RestoreError reports a restore that stopped part-way. Restored records
// were written before the failure; the rest of the envelope was not.
type RestoreError struct {
	Restored int
	Total    int
	Err      error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore stopped after %d of %d actas: %v", e.Restored, e.Total, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }
