package sheet

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes Path A failures. Every code triggers Path B.
type ErrorCode string

const (
	// ErrCodeHandleUnavailable means no usable writable handle is held.
	ErrCodeHandleUnavailable ErrorCode = "HANDLE_UNAVAILABLE"

	// ErrCodeArtifactCorrupt means the existing bytes could not be parsed
	// as a master workbook.
	ErrCodeArtifactCorrupt ErrorCode = "ARTIFACT_CORRUPT"

	// ErrCodeWriteFailure means serialization or write-back failed, or
	// handle I/O exceeded its deadline.
	ErrCodeWriteFailure ErrorCode = "WRITE_FAILURE"
)

// ErrBusy is returned by TryReconcile while another run holds the
// synchronizer.
var ErrBusy = errors.New("reconcile already in progress")

// ErrHandleInFlight is the cause of a WRITE_FAILURE when I/O from an
// earlier timed-out run is still running on the handle.
var ErrHandleInFlight = errors.New("earlier handle i/o still in progress")

// Error describes why Path A was abandoned.
type Error struct {
	Code ErrorCode
	// Handle is the handle name, if one was held.
	Handle string
	Err    error
}

func (e *Error) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Handle, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func codeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsHandleUnavailable reports whether err is a HANDLE_UNAVAILABLE error.
func IsHandleUnavailable(err error) bool { return codeOf(err) == ErrCodeHandleUnavailable }

// IsArtifactCorrupt reports whether err is an ARTIFACT_CORRUPT error.
func IsArtifactCorrupt(err error) bool { return codeOf(err) == ErrCodeArtifactCorrupt }

// IsWriteFailure reports whether err is a WRITE_FAILURE error.
func IsWriteFailure(err error) bool { return codeOf(err) == ErrCodeWriteFailure }
