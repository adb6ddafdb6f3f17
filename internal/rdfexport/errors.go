// SPDX-License-Identifier: GPL-2.0-or-later

package rdfexport

import "fmt"

// Exit statuses carried by ExportError, matching the CLI contract.
const (
	// StatusNotFound is returned when a target object does not exist.
	StatusNotFound = 110
	// StatusUnknownTarget is returned for target kinds that cannot be
	// descended into.
	StatusUnknownTarget = 111
)

// ExportError is an unrecoverable export failure carrying an exit status
// for the CLI layer.
type ExportError struct {
	Status int
	Err    error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed (status %d): %v", e.Status, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ExportError) Unwrap() error { return e.Err }
