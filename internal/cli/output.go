package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/config"
	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/track"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Commit failed, day not committed, scenario failed
	ExitCommandError = 2 // Bad flags, unreadable extract, invalid config
)

// Error codes for failures that are not engine RuntimeErrors.
const (
	ErrCodeGeneric      = "ERROR"
	ErrCodeConfig       = "CONFIG_INVALID"
	ErrCodeExtract      = "EXTRACT_INVALID"
	ErrCodeDate         = "DATE_INVALID"
	ErrCodeNotCommitted = "DAY_NOT_COMMITTED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeTestFailed   = "TEST_FAILED"
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// newFormatter builds the formatter for a command's streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // RuntimeError code or one of the ErrCode constants
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
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

// Fail reports err and returns it wrapped in an ExitError whose code
// matches the error's kind.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, message, err)
}

// FailWith reports a command-level failure with an explicit code.
func (f *OutputFormatter) FailWith(code string, exit int, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// classify maps an error to its response code and exit code.
func classify(err error) (string, int) {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		if re.Code == engine.ErrCodeInvalidInput {
			return string(re.Code), ExitCommandError
		}
		return string(re.Code), ExitFailure
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ErrCodeConfig, ExitCommandError
	}
	if errors.Is(err, engine.ErrDayNotCommitted) {
		return ErrCodeNotCommitted, ExitFailure
	}
	return ErrCodeGeneric, ExitFailure
}

// categoryMarker returns the colored one-character marker of a category.
func categoryMarker(c track.Category) string {
	switch c {
	case track.CategoryNew:
		return color.New(color.FgGreen).Sprint("+")
	case track.CategoryRemoved:
		return color.New(color.FgRed).Sprint("-")
	case track.CategoryPersisting:
		return color.New(color.FgCyan).Sprint("=")
	default:
		return "?"
	}
}

// statusLabel colors a tracking status.
func statusLabel(s track.Status) string {
	if s == track.StatusActive {
		return color.New(color.FgGreen).Sprint(s)
	}
	return color.New(color.FgYellow).Sprint(s)
}
