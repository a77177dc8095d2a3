package cli

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// json mirrors encoding/json for the response envelope.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Exit statuses for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Conversion failure (a document could not be decoded, bound or encoded)
	ExitCommandError = 2 // Command error (bad schema, missing files, bad flags)
)

// ExitError is a command failure that has already been reported to the user.
type ExitError struct {
	Status  int    // ExitFailure or ExitCommandError
	Code    string // E-code shown to the user
	Message string
	Err     error // cause, if any
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitStatus maps err to a process exit status.
// Errors that were never reported count as ExitFailure.
func ExitStatus(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Status
	}
	return ExitFailure
}

// ErrorCode returns the E-code err was reported with, or "" if it was not.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ""
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics go here so they never corrupt converted output
	Verbose   bool
}

// CLIResponse is the JSON envelope for command results.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // CompileResult or ConvertSummary
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // "E101", "E202", etc.
	Message string `json:"message"`
	Details any    `json:"details,omitempty"` // failing schema path or CUE position
}

// Success outputs a result. Text mode prints its String form.
func (f *OutputFormatter) Success(data fmt.Stringer) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
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

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// fail reports cause under code and returns it as an ExitError with status.
func (f *OutputFormatter) fail(status int, code string, cause error, details any) error {
	msg := cause.Error()
	var loadErr *LoadError
	if errors.As(cause, &loadErr) {
		// LoadError.Error carries the code and position already.
		msg = loadErr.Message
	}
	_ = f.Error(code, msg, details)
	return &ExitError{Status: status, Code: code, Message: msg, Err: cause}
}
