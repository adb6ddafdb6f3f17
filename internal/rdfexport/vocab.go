// SPDX-License-Identifier: GPL-2.0-or-later

package rdfexport

import (
	"strings"

	rdf "github.com/geoknoesis/rdf-go/rdf"
)

// Namespaces shared by the exporter and its serialization formats.
const (
	// NSOme is the OME core vocabulary used for plain object fields.
	NSOme = "http://www.openmicroscopy.org/rdf/2016-06/ome_core/"
	// NSOmero is the namespace for "omero:"-prefixed internal fields.
	NSOmero = "http://www.openmicroscopy.org/TBD/omero/"
	// NSOmeXML is the OME-XML schema namespace carried in "@type" values.
	NSOmeXML = "http://www.openmicroscopy.org/Schemas/OME/2016-06#"
	// NSWikidataProp is the Wikidata direct-property namespace used by
	// annotation handlers.
	NSWikidataProp = "http://www.wikidata.org/prop/direct/"
)

var (
	rdfType = rdf.IRI{Value: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"}

	dctIsPartOf = rdf.IRI{Value: "http://purl.org/dc/terms/isPartOf"}
	dctHasPart  = rdf.IRI{Value: "http://purl.org/dc/terms/hasPart"}

	xsdInteger = rdf.IRI{Value: "http://www.w3.org/2001/XMLSchema#integer"}
	xsdDouble  = rdf.IRI{Value: "http://www.w3.org/2001/XMLSchema#double"}
	xsdBoolean = rdf.IRI{Value: "http://www.w3.org/2001/XMLSchema#boolean"}
)

// omePredicate resolves an object-map key to its predicate IRI:
// "omero:"-prefixed keys land in the OMERO namespace, everything else in
// the OME core namespace.
func omePredicate(key string) rdf.IRI {
	if rest, ok := strings.CutPrefix(key, "omero:"); ok {
		return rdf.IRI{Value: NSOmero + rest}
	}
	return rdf.IRI{Value: NSOme + key}
}
