// SPDX-License-Identifier: GPL-2.0-or-later

package rdfexport

import (
	"context"
	"fmt"

	rdf "github.com/geoknoesis/rdf-go/rdf"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// EmitFunc writes a single triple to the active output format.
	EmitFunc func(rdf.Triple) error

	// AnnotationHandler maps one annotation to triples. container is the
	// subject the annotation is linked from (nil during the pre-walk pass)
	// and pred the linking predicate. Implementations return true when the
	// annotation was fully handled, suppressing the generic fallback.
	AnnotationHandler interface {
		HandleAnnotation(ctx context.Context, container rdf.Term, pred rdf.IRI, data map[string]any, emit EmitFunc) (bool, error)
	}

	// Constructor builds an AnnotationHandler bound to a Handler, giving
	// it access to subject identity and blank-node helpers.
	Constructor func(h *Handler) AnnotationHandler
)

var annotationHandlers = map[string]Constructor{}

// RegisterAnnotationHandler makes a named annotation handler available to
// exports. It is usually called from an init function and panics on
// duplicate names, mirroring database/sql driver registration.
func RegisterAnnotationHandler(name string, c Constructor) {
	if c == nil {
		panic("rdfexport: nil annotation handler constructor")
	}
	if _, dup := annotationHandlers[name]; dup {
		panic("rdfexport: duplicate annotation handler " + name)
	}
	annotationHandlers[name] = c
}

// AnnotationHandlerNames lists the registered handler names, sorted.
func AnnotationHandlerNames() []string {
	names := maps.Keys(annotationHandlers)
	slices.Sort(names)
	return names
}

func resolveHandlers(h *Handler, names []string) ([]AnnotationHandler, error) {
	handlers := make([]AnnotationHandler, 0, len(names))
	for _, name := range names {
		c, ok := annotationHandlers[name]
		if !ok {
			return nil, fmt.Errorf("unknown annotation handler: %s", name)
		}
		handlers = append(handlers, c(h))
	}
	return handlers, nil
}
