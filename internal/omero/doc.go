// SPDX-License-Identifier: GPL-2.0-or-later

// Package omero is a client for the OMERO JSON API (/api/v0).
//
// Objects are returned in their marshalled wire form: a map keyed by the
// OME field names plus "@id", "@type", "omero:details" and "Annotations".
// The RDF export engine consumes these maps directly, so the client does
// not project them onto Go structs.
package omero
