// SPDX-License-Identifier: GPL-2.0-or-later

// Package issue provides user-facing error context and a rendered catalog
// of known failure modes.
package issue

import (
	"errors"
	"strings"
)

type (
	// ActionableError is an error carrying context for user-facing
	// messages: what was attempted, on what resource, and how the user
	// might fix it. Build instances through ErrorContext.
	ActionableError struct {
		// Operation describes what was being attempted, e.g. "connect
		// to server" or "export Image:123".
		Operation string

		// Resource identifies the server, file or object involved.
		Resource string

		// Suggestions are hints on how to fix the issue.
		Suggestions []string

		// Cause is the underlying error.
		Cause error
	}

	// ErrorContext is a fluent builder for ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext creates an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets the attempted operation.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the involved resource.
func (c *ErrorContext) WithResource(resource string) *ErrorContext {
	c.err.Resource = resource
	return c
}

// WithSuggestion appends a fix hint.
func (c *ErrorContext) WithSuggestion(s string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, s)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the constructed ActionableError.
func (c *ErrorContext) Build() *ActionableError {
	e := c.err
	return &e
}

// BuildError returns the constructed error as a plain error value.
func (c *ErrorContext) BuildError() error {
	return c.Build()
}

// WrapWithOperation wraps an error with operation context. It returns nil
// for a nil error so call sites can wrap unconditionally.
func WrapWithOperation(err error, operation string) error {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Cause: err}
}

// Error implements the error interface with the concise form used in
// non-verbose output.
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the cause for errors.Is/As chains.
func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the error for display. In verbose mode the full cause
// chain is included; suggestions are always appended.
func (e *ActionableError) Format(verbose bool) string {
	var out strings.Builder
	out.WriteString(e.Error())

	if verbose && e.Cause != nil {
		for cause := errors.Unwrap(e.Cause); cause != nil; cause = errors.Unwrap(cause) {
			out.WriteString("\n  caused by: ")
			out.WriteString(cause.Error())
		}
	}

	if len(e.Suggestions) > 0 {
		out.WriteString("\n")
		for _, s := range e.Suggestions {
			out.WriteString("\n  - ")
			out.WriteString(s)
		}
	}
	return out.String()
}
