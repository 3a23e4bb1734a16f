package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/charmbracelet/lipgloss"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Remote rejection, network failure, missing session
	ExitCommandError = 2 // Bad flags or input rejected before any network call
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// GetExitCode extracts the exit code from an error. Validation errors are
// command errors; anything else without an ExitError is a failure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if apperr.KindOf(err) == apperr.KindValidation {
		return ExitCommandError
	}
	return ExitFailure
}

// Response is the JSON envelope of every command's output.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Error is the error part of a JSON response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// theme holds the text styles, bound to the writer they render for so colour
// is only emitted to terminals.
type theme struct {
	header lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		err:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Success writes data. In text mode render draws it; JSON mode ignores render.
func (f *OutputFormatter) Success(data any, render func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	render(f.Writer)
	return nil
}

// Error writes err with its user-facing message.
func (f *OutputFormatter) Error(err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		code = apperr.CodeUnexpected
	}
	msg := apperr.UserMessage(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && apperr.CodeOf(err) == "" {
		msg = exitErr.Message
	}
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &Error{Code: code, Message: msg, Detail: err.Error()},
		})
		return
	}
	w := f.errWriter()
	th := newTheme(w)
	fmt.Fprintf(w, "%s %s\n", th.err.Render("Error ["+code+"]:"), msg)
	if f.Verbose {
		fmt.Fprintln(w, th.muted.Render(err.Error()))
	}
}

// Warn writes a non-fatal notice, such as serving stale data.
func (f *OutputFormatter) Warn(msg string) {
	if f.Format == "json" {
		return
	}
	w := f.errWriter()
	fmt.Fprintln(w, newTheme(w).warn.Render(msg))
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
