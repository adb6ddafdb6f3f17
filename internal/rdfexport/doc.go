// SPDX-License-Identifier: GPL-2.0-or-later

// Package rdfexport turns marshalled OMERO objects into RDF triples.
//
// The Handler descends a container hierarchy (Screen, Plate, Project,
// Dataset, Image) starting from a target object, walks each object's
// marshalled map and emits triples through a TripleWriter. Annotation
// handling can be extended by registering AnnotationHandler
// implementations at init time, in the manner of database/sql drivers.
package rdfexport
