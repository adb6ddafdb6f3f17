// SPDX-License-Identifier: GPL-2.0-or-later

// Package triplify is the programmatic entry point for RDF export. It wraps
// the conversion engine behind a small API for callers that want the
// generated statements in memory instead of a serialized stream.
package triplify

import (
	"context"

	"github.com/charmbracelet/log"
	rdf "github.com/geoknoesis/rdf-go/rdf"

	"github.com/German-BioImaging/omero-rdf/internal/omero"
	"github.com/German-BioImaging/omero-rdf/internal/rdfexport"
	"github.com/German-BioImaging/omero-rdf/internal/rdfexport/format"
)

// Source is the object supplier the exporter descends. *omero.Client
// implements it.
type Source = rdfexport.ObjectSource

// Options tune triple generation. The zero value uses recursive descent
// with no literal rewriting.
type Options = rdfexport.Options

// Exporter converts OMERO object graphs to RDF statements.
type Exporter struct {
	source Source
	opts   Options
	logger *log.Logger
}

// New creates an Exporter reading from source with default options.
func New(source Source) *Exporter {
	return &Exporter{source: source}
}

// WithOptions returns a copy of the Exporter using opts.
func (e *Exporter) WithOptions(opts Options) *Exporter {
	clone := *e
	clone.opts = opts
	return &clone
}

// WithLogger returns a copy of the Exporter logging through logger.
func (e *Exporter) WithLogger(logger *log.Logger) *Exporter {
	clone := *e
	clone.logger = logger
	return &clone
}

// ExportGraph descends the object named by a proxy string like "Image:123"
// and returns every generated statement.
func (e *Exporter) ExportGraph(ctx context.Context, target string) ([]rdf.Quad, error) {
	parsed, err := omero.ParseTarget(target)
	if err != nil {
		return nil, err
	}

	collector := format.NewCollector()
	handler, err := rdfexport.NewHandler(e.source, collector, e.opts, e.logger)
	if err != nil {
		return nil, err
	}
	if _, err := handler.Descend(ctx, parsed); err != nil {
		return nil, err
	}
	if err := handler.Close(); err != nil {
		return nil, err
	}
	return collector.Quads(), nil
}
