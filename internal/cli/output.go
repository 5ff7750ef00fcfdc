package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/backup"
	"github.com/roach88/actas/internal/intake"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Domain failure (similar record, seal mismatch, failed restore)
	ExitCommandError = 2 // Command error (bad input, unknown id, unreadable settings)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric    = "E001"
	ErrCodeSimilar    = "E101"
	ErrCodeMismatch   = "E102"
	ErrCodeNotFound   = "E103"
	ErrCodeSubmission = "E104"
	ErrCodeNoBackup   = "E105"
	ErrCodeRestore    = "E106"
	ErrCodeSignature  = "E107"
	ErrCodeNoDraft    = "E108"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps a domain error to an error code and exit code.
func classify(err error) (string, int) {
	var validation *intake.ValidationError
	var restore *backup.RestoreError
	switch {
	case errors.Is(err, app.ErrSimilarExists):
		return ErrCodeSimilar, ExitFailure
	case seal.IsMismatch(err):
		return ErrCodeMismatch, ExitFailure
	case errors.Is(err, seal.ErrMissingSignature):
		return ErrCodeSignature, ExitCommandError
	case store.IsNotFound(err):
		return ErrCodeNotFound, ExitCommandError
	case errors.As(err, &validation):
		return ErrCodeSubmission, ExitCommandError
	case errors.Is(err, backup.ErrEmptyBackup):
		return ErrCodeNoBackup, ExitFailure
	case errors.Is(err, backup.ErrNoDraft):
		return ErrCodeNoDraft, ExitFailure
	case errors.As(err, &restore):
		return ErrCodeRestore, ExitFailure
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// fail reports err through the formatter and returns the matching
// ExitError.
func fail(f *OutputFormatter, message string, err error) error {
	code, exit := classify(err)
	var details interface{}
	var se *app.SimilarError
	if errors.As(err, &se) {
		details = map[string]interface{}{"existing": se.Existing}
	}
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return WrapExitError(exit, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
	RunID  string      `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E101", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", failMark(), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Printf writes a line of text output.
func (f *OutputFormatter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Status markers. color disables itself when stdout is not a terminal.
func okMark() string   { return color.New(color.FgGreen).Sprint("✓") }
func warnMark() string { return color.New(color.FgYellow).Sprint("!") }
func failMark() string { return color.New(color.FgRed, color.Bold).Sprint("✗") }
