// SPDX-License-Identifier: GPL-2.0-or-later

// Package format implements the RDF output formats of the exporter.
//
// Formats come in two kinds: streaming formats write every triple as it is
// generated (ntriples), graph formats collect triples and serialize the
// whole graph on Close (turtle, jsonld, ro-crate).
package format

import (
	"fmt"
	"io"

	rdf "github.com/geoknoesis/rdf-go/rdf"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/German-BioImaging/omero-rdf/internal/rdfexport"
)

// Format receives generated triples and writes the serialized output.
// It satisfies rdfexport.TripleWriter.
type Format interface {
	Streaming() bool
	Write(rdf.Triple) error
	Close() error
}

// Default is the format used when none is selected.
const Default = "ntriples"

// extensions maps format names to the file extensions they expect.
var extensions = map[string][]string{
	"ntriples": {"nt"},
	"turtle":   {"ttl"},
	"jsonld":   {"jsonld", "json"},
	"ro-crate": {"jsonld", "json"},
}

// canonical resolves format name aliases. "rocrate" is accepted for the
// hyphenated name.
func canonical(name string) string {
	if name == "rocrate" {
		return "ro-crate"
	}
	return name
}

// New creates the named format writing to out.
func New(name string, out io.Writer) (Format, error) {
	switch canonical(name) {
	case "ntriples":
		return NewNTriples(out)
	case "turtle":
		return NewTurtle(out), nil
	case "jsonld":
		return NewJSONLD(out), nil
	case "ro-crate":
		return NewROCrate(out), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// Names lists the supported format names, sorted.
func Names() []string {
	names := maps.Keys(extensions)
	slices.Sort(names)
	return names
}

// Extensions returns the file extensions matching a format name.
func Extensions(name string) []string {
	return slices.Clone(extensions[canonical(name)])
}

// prefixes are the namespace bindings applied to graph serializations.
func prefixes() map[string]string {
	return map[string]string{
		"wd":      rdfexport.NSWikidataProp,
		"ome":     rdfexport.NSOme,
		"ome-xml": rdfexport.NSOmeXML,
		"omero":   rdfexport.NSOmero,
	}
}

// jsonldContext is the JSON-LD context used for compaction.
func jsonldContext() map[string]any {
	return map[string]any{
		"wd":      rdfexport.NSWikidataProp,
		"ome":     rdfexport.NSOme,
		"ome-xml": rdfexport.NSOmeXML,
		"omero":   rdfexport.NSOmero,
		"idr":     "https://idr.openmicroscopy.org/",
	}
}
