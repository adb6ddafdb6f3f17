// SPDX-License-Identifier: GPL-2.0-or-later

package format

import (
	"io"

	rdf "github.com/geoknoesis/rdf-go/rdf"
)

// NTriples streams each triple as one N-Triples line.
type NTriples struct {
	w rdf.Writer
}

// NewNTriples creates a streaming N-Triples format writing to out.
func NewNTriples(out io.Writer) (*NTriples, error) {
	w, err := rdf.NewWriter(out, rdf.FormatNTriples)
	if err != nil {
		return nil, err
	}
	return &NTriples{w: w}, nil
}

// Streaming reports that triples are written immediately.
func (n *NTriples) Streaming() bool { return true }

// Write emits one triple.
func (n *NTriples) Write(t rdf.Triple) error {
	return n.w.Write(rdf.Statement{S: t.S, P: t.P, O: t.O})
}

// Close flushes and closes the underlying encoder.
func (n *NTriples) Close() error {
	if err := n.w.Flush(); err != nil {
		return err
	}
	return n.w.Close()
}
