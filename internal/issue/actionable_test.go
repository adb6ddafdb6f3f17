// SPDX-License-Identifier: GPL-2.0-or-later

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name: "operation only",
			err: &ActionableError{
				Operation: "connect to OMERO server",
			},
			expected: "failed to connect to OMERO server",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "export object",
				Resource:  "Image:123",
			},
			expected: "failed to export object: Image:123",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "parse RDF file",
				Cause:     errors.New("bad IRI at line 5"),
			},
			expected: "failed to parse RDF file: bad IRI at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "open output file",
				Resource:  "out.ttl.gz",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to open output file: out.ttl.gz: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{
		Operation: "test",
		Cause:     cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap() should return the cause error")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	cause := errors.New("specific error")
	wrapped := &ActionableError{
		Operation: "test",
		Cause:     cause,
	}

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "simple error non-verbose",
			err: &ActionableError{
				Operation: "load configuration",
			},
			verbose:  false,
			contains: []string{"failed to load configuration"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "connect to OMERO server",
				Resource:    "idr.openmicroscopy.org",
				Suggestions: []string{"Check the server hostname", "Verify your credentials"},
			},
			verbose: false,
			contains: []string{
				"failed to connect to OMERO server",
				"idr.openmicroscopy.org",
				"- Check the server hostname",
				"- Verify your credentials",
			},
		},
		{
			name: "cause chain in verbose mode",
			err: &ActionableError{
				Operation: "export object",
				Cause:     fmt.Errorf("fetch image: %w", errors.New("connection reset")),
			},
			verbose: true,
			contains: []string{
				"failed to export object",
				"caused by: connection reset",
			},
		},
		{
			name: "no cause chain in non-verbose",
			err: &ActionableError{
				Operation: "export object",
				Cause:     fmt.Errorf("fetch image: %w", errors.New("connection reset")),
			},
			verbose:  false,
			contains: []string{"failed to export object: fetch image: connection reset"},
			excludes: []string{"caused by:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	cause := errors.New("token request failed")
	err := NewErrorContext().
		WithOperation("connect to OMERO server").
		WithResource("omero.example.org").
		WithSuggestion("Check the server hostname").
		WithSuggestion("Verify your credentials").
		Wrap(cause).
		Build()

	if err.Operation != "connect to OMERO server" {
		t.Errorf("Operation = %q", err.Operation)
	}
	if err.Resource != "omero.example.org" {
		t.Errorf("Resource = %q", err.Resource)
	}
	if len(err.Suggestions) != 2 {
		t.Errorf("Suggestions count = %d, want 2", len(err.Suggestions))
	}
	if !errors.Is(err, cause) {
		t.Error("Build() should preserve the wrapped cause")
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	err := NewErrorContext().WithOperation("test").BuildError()
	if err == nil {
		t.Fatal("BuildError() returned nil")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Error("BuildError() should return *ActionableError")
	}
}

func TestWrapWithOperation(t *testing.T) {
	cause := errors.New("original error")
	err := WrapWithOperation(cause, "save annotation")

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("WrapWithOperation should return *ActionableError")
	}
	if ae.Operation != "save annotation" {
		t.Errorf("Operation = %q", ae.Operation)
	}
	if !errors.Is(err, cause) {
		t.Error("Cause should be the original error")
	}

	if WrapWithOperation(nil, "test") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
}
