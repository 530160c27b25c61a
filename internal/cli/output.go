package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/storefront/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation or failed scenarios
	ExitCommandError = 2 // Command error (bad config, database cannot be opened, etc.)
)

// CLI error codes.
const (
	ErrCodeGeneric           = "E001" // Generic/unknown error
	ErrCodeNotFound          = "E005" // Path not found
	ErrCodeConfig            = "E008" // Configuration could not be loaded
	ErrCodeValidation        = "E201" // Malformed or missing input
	ErrCodeMissing           = "E202" // Referenced id does not exist
	ErrCodeConflict          = "E203" // Uniqueness or dependency violation
	ErrCodeForbidden         = "E204" // Business rule disallows the operation
	ErrCodeInvalidTransition = "E205" // Illegal order status change
	ErrCodeStorage           = "E206" // Database failure
	ErrCodeBadCredentials    = "E207" // Login rejected
)

var domainCodes = map[domain.ErrorCode]string{
	domain.ErrCodeValidation:        ErrCodeValidation,
	domain.ErrCodeNotFound:          ErrCodeMissing,
	domain.ErrCodeConflict:          ErrCodeConflict,
	domain.ErrCodeForbidden:         ErrCodeForbidden,
	domain.ErrCodeInvalidTransition: ErrCodeInvalidTransition,
	domain.ErrCodeStorage:           ErrCodeStorage,
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written to the output.
	Reported bool
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

// IsReported reports whether err was already written by an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// ErrorCode maps an error to its CLI error code.
func ErrorCode(err error) string {
	if code, ok := domainCodes[domain.CodeOf(err)]; ok {
		return code
	}
	return ErrCodeGeneric
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
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E201", etc.
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

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Emit writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Emit(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
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

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Storage failures exit with ExitCommandError; rejected operations with
// ExitFailure.
func (f *OutputFormatter) Fail(err error) error {
	code := ErrorCode(err)
	message := err.Error()
	var details interface{}

	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
		if de.Entity != "" || de.ID != 0 {
			details = map[string]interface{}{"entity": de.Entity, "id": de.ID}
		}
		if de.Err != nil && f.Verbose {
			details = map[string]interface{}{"entity": de.Entity, "id": de.ID, "cause": de.Err.Error()}
		}
	}
	if outErr := f.Error(code, message, details); outErr != nil {
		return outErr
	}

	exit := ExitFailure
	if code == ErrCodeStorage {
		exit = ExitCommandError
	}
	return &ExitError{Code: exit, Message: message, Err: err, Reported: true}
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
