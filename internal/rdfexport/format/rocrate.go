// SPDX-License-Identifier: GPL-2.0-or-later

package format

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	rdf "github.com/geoknoesis/rdf-go/rdf"
	ld "github.com/piprate/json-gold/ld"
)

// rocrateContextIRI is the published RO-Crate 1.1 context.
const rocrateContextIRI = "https://w3id.org/ro/crate/1.1/context"

// ROCrate collects the graph and serializes it as an RO-Crate metadata
// document: JSON-LD flattened and compacted against the RO-Crate context,
// with the root dataset and metadata descriptor entities prepended.
type ROCrate struct {
	Collector
	out io.Writer
}

// NewROCrate creates an RO-Crate graph format writing to out.
func NewROCrate(out io.Writer) *ROCrate {
	return &ROCrate{out: out}
}

func rocrateContext() map[string]any {
	ctx := jsonldContext()
	ctx["rocrate"] = rocrateContextIRI
	return ctx
}

// Close serializes the collected graph as an RO-Crate document.
func (r *ROCrate) Close() error {
	doc, err := rdf.NewJSONLDProcessor().FromRDF(context.Background(), r.quads, rdf.JSONLDOptions{})
	if err != nil {
		return fmt.Errorf("rocrate conversion: %w", err)
	}

	ctxMap := rocrateContext()
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")

	flattened, err := proc.Flatten(doc, ctxMap, opts)
	if err != nil {
		return fmt.Errorf("rocrate flatten: %w", err)
	}
	compacted, err := proc.Compact(flattened, ctxMap, opts)
	if err != nil {
		return fmt.Errorf("rocrate compact: %w", err)
	}

	graph, ok := compacted["@graph"].([]any)
	if !ok {
		return fmt.Errorf("rocrate output has no @graph: %v", compacted)
	}
	compacted["@graph"] = append(preamble(), graph...)

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "    ")
	return enc.Encode(compacted)
}

// preamble returns the two entities every RO-Crate starts with: the root
// dataset and the ro-crate-metadata.json descriptor.
func preamble() []any {
	return []any{
		map[string]any{
			"@id":             "./",
			"@type":           "Dataset",
			"rocrate:license": "https://creativecommons.org/licenses/by/4.0/",
		},
		map[string]any{
			"@id":                "ro-crate-metadata.json",
			"@type":              "CreativeWork",
			"rocrate:conformsTo": map[string]any{"@id": "https://w3id.org/ro/crate/1.1"},
			"rocrate:about":      map[string]any{"@id": "./"},
		},
	}
}
