// SPDX-License-Identifier: GPL-2.0-or-later

package format

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	rdf "github.com/geoknoesis/rdf-go/rdf"
)

type (
	// Collector buffers triples as quads in the default graph. It is the
	// base of every graph format and is also usable on its own when the
	// caller wants the graph rather than a serialization.
	Collector struct {
		quads []rdf.Quad
	}

	// Turtle collects the graph and serializes it as Turtle on Close.
	Turtle struct {
		Collector
		out io.Writer
	}

	// JSONLD collects the graph and serializes it as compacted JSON-LD
	// on Close.
	JSONLD struct {
		Collector
		out io.Writer
	}
)

// NewCollector creates a bare graph collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Streaming reports that triples are buffered until Close.
func (c *Collector) Streaming() bool { return false }

// Write buffers one triple.
func (c *Collector) Write(t rdf.Triple) error {
	c.quads = append(c.quads, t.ToQuad())
	return nil
}

// Close is a no-op for the bare collector.
func (c *Collector) Close() error { return nil }

// Quads returns the collected graph.
func (c *Collector) Quads() []rdf.Quad {
	return c.quads
}

// NewTurtle creates a Turtle graph format writing to out.
func NewTurtle(out io.Writer) *Turtle {
	return &Turtle{out: out}
}

// Close serializes the collected graph as Turtle with the exporter's
// prefix bindings.
func (t *Turtle) Close() error {
	opts := rdf.AnyFormatOptions{
		Turtle: &rdf.TurtleEncodeOptions{
			Pretty:   true,
			Prefixes: prefixes(),
		},
	}
	return rdf.SerializeAny(context.Background(), t.out, "turtle", t.quads, opts)
}

// NewJSONLD creates a JSON-LD graph format writing to out.
func NewJSONLD(out io.Writer) *JSONLD {
	return &JSONLD{out: out}
}

// Close converts the collected graph to JSON-LD and compacts it against
// the exporter's context.
func (j *JSONLD) Close() error {
	ctx := context.Background()
	processor := rdf.NewJSONLDProcessor()

	doc, err := processor.FromRDF(ctx, j.quads, rdf.JSONLDOptions{})
	if err != nil {
		return fmt.Errorf("jsonld conversion: %w", err)
	}
	compacted, err := processor.Compact(ctx, doc, jsonldContext(), rdf.JSONLDOptions{})
	if err != nil {
		return fmt.Errorf("jsonld compaction: %w", err)
	}

	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "    ")
	return enc.Encode(compacted)
}
