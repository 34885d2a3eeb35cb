package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/navtree/types"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // what failed, e.g. "move node"
	Cause       string   // the underlying cause, e.g. "node not found"
	Details     string   // technical details
	Suggestions []string // hints for the user
	Underlying  error
}

func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewUsageError creates an error for malformed arguments
func NewUsageError(operation, arg, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", arg, value),
		Suggestions: append(suggestions, CommonSuggestions.RunHelp),
	}
}

// WrapError classifies a service error and adds CLI context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	e := &CLIError{Operation: operation, Underlying: err, Suggestions: suggestions}
	var nf *types.NotFoundError
	var verr *types.ValidationError
	switch {
	case errors.As(err, &nf):
		e.Cause = nf.Error()
		if len(e.Suggestions) == 0 {
			e.Suggestions = []string{CommonSuggestions.CheckID}
		}
	case errors.As(err, &verr):
		e.Cause = strings.Join(verr.Messages, " - ")
	default:
		e.Cause = storeCause(err)
		e.Details = err.Error()
		if len(e.Suggestions) == 0 {
			e.Suggestions = []string{CommonSuggestions.CheckDB, CommonSuggestions.CheckConfig}
		}
	}
	return e
}

// storeCause gives a friendlier description of common storage failures
func storeCause(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no such file"):
		return "store file not found"
	case strings.Contains(errStr, "permission denied"):
		return "insufficient permissions to access the store"
	case strings.Contains(errStr, "locked"):
		return "the store is locked by another process"
	default:
		return "store operation failed"
	}
}

// CommonSuggestions are hints shared by several commands
var CommonSuggestions = struct {
	CheckID     string
	CheckDB     string
	CheckConfig string
	RunHelp     string
}{
	CheckID:     "Verify the id exists (try 'navtree tree list' or 'navtree node children')",
	CheckDB:     "Verify --backend and --db point to a valid store",
	CheckConfig: "Check navtree.yaml or the NAVTREE_* environment variables",
	RunHelp:     "Run command with --help for usage information",
}
