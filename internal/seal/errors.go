package seal

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes seal failures.
type ErrorCode string

const (
	// ErrCodeMissingSignature means the record has no signature image.
	ErrCodeMissingSignature ErrorCode = "MISSING_SIGNATURE"

	// ErrCodeUnserializable means the projection could not be canonicalized.
	ErrCodeUnserializable ErrorCode = "UNSERIALIZABLE"

	// ErrCodeMismatch means a stored seal does not match the record content.
	ErrCodeMismatch ErrorCode = "MISMATCH"

	// ErrCodeBadPayload means a verification payload could not be parsed.
	ErrCodeBadPayload ErrorCode = "BAD_PAYLOAD"
)

// ErrMissingSignature is matched by errors.Is for seal attempts on
// unsigned records.
var ErrMissingSignature = errors.New("record has no signature image")

// Error is returned by every operation in this package. A record that
// fails to seal must not be persisted.
type Error struct {
	Code    ErrorCode
	ActaID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.ActaID != "" {
		return fmt.Sprintf("seal %s: %s (acta=%s)", e.Code, msg, e.ActaID)
	}
	return fmt.Sprintf("seal %s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsMismatch reports whether err is a verification mismatch.
func IsMismatch(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeMismatch
	}
	return false
}
