// SPDX-License-Identifier: GPL-2.0-or-later

// Package ingest uploads the statements of an RDF file to an OMERO image
// as map annotations, one annotation per predicate namespace.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	rdf "github.com/geoknoesis/rdf-go/rdf"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// AnnotationSaver stores a map annotation on an image.
	// *omero.Client implements it.
	AnnotationSaver interface {
		SaveMapAnnotation(ctx context.Context, imageID int64, ns string, pairs [][2]string) error
	}

	// Options control how statements become key/value pairs.
	Options struct {
		// Concatenate joins repeated keys into a single comma-separated
		// value instead of keeping one pair per statement.
		Concatenate bool
	}
)

// UploadError reports a failed SaveMapAnnotation call. Uploaded counts the
// annotations already created before the failure, so callers can tell a
// partial upload from a clean one.
type UploadError struct {
	Namespace string
	Uploaded  int
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("save map annotation for namespace %s (%d already uploaded): %v",
		e.Namespace, e.Uploaded, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Run parses the RDF file at path (format inferred from the extension) and
// uploads its statements as map annotations on the image. It returns the
// number of annotations created, which can be non-zero alongside an
// UploadError when a later save fails.
func Run(ctx context.Context, saver AnnotationSaver, path string, imageID int64, opts Options, logger *log.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open rdf file: %w", err)
	}
	defer f.Close()

	anyFormat, err := rdf.ResolveAnyFormatFromPath(path)
	if err != nil {
		return 0, fmt.Errorf("infer rdf format: %w", err)
	}

	quads, err := rdf.ParseAnyWithFormat(ctx, f, anyFormat, rdf.AnyFormatOptions{})
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	logger.Debug("parsed rdf file", "path", path, "statements", len(quads))

	grouped := Group(quads, opts)
	uploaded := 0
	for _, ns := range sortedNamespaces(grouped) {
		if err := saver.SaveMapAnnotation(ctx, imageID, ns, grouped[ns]); err != nil {
			return uploaded, &UploadError{Namespace: ns, Uploaded: uploaded, Err: err}
		}
		uploaded++
		logger.Info("uploaded map annotation",
			"namespace", ns, "pairs", len(grouped[ns]))
	}
	return uploaded, nil
}

// Group splits statements into per-namespace key/value pair lists. The
// predicate's namespace is everything up to "#" when present, otherwise up
// to the last "/".
func Group(quads []rdf.Quad, opts Options) map[string][][2]string {
	type slot struct {
		order []string
		value map[string]string
	}

	if opts.Concatenate {
		groups := map[string]*slot{}
		for _, q := range quads {
			ns, local := SplitPredicate(q.P.Value)
			g, ok := groups[ns]
			if !ok {
				g = &slot{value: map[string]string{}}
				groups[ns] = g
			}
			obj := objectValue(q.O)
			if prev, dup := g.value[local]; dup {
				g.value[local] = prev + ", " + obj
			} else {
				g.value[local] = obj
				g.order = append(g.order, local)
			}
		}

		out := make(map[string][][2]string, len(groups))
		for ns, g := range groups {
			pairs := make([][2]string, 0, len(g.order))
			for _, key := range g.order {
				pairs = append(pairs, [2]string{key, g.value[key]})
			}
			out[ns] = pairs
		}
		return out
	}

	out := map[string][][2]string{}
	for _, q := range quads {
		ns, local := SplitPredicate(q.P.Value)
		out[ns] = append(out[ns], [2]string{local, objectValue(q.O)})
	}
	return out
}

// SplitPredicate separates a predicate IRI into namespace and local name.
func SplitPredicate(pred string) (ns, local string) {
	if i := strings.Index(pred, "#"); i >= 0 {
		return pred[:i], pred[i+1:]
	}
	if i := strings.LastIndex(pred, "/"); i >= 0 {
		return pred[:i], pred[i+1:]
	}
	return "", pred
}

// objectValue renders a statement object as annotation text.
func objectValue(o rdf.Term) string {
	if lit, ok := o.(rdf.Literal); ok {
		return lit.Lexical
	}
	return o.String()
}

func sortedNamespaces(groups map[string][][2]string) []string {
	namespaces := maps.Keys(groups)
	slices.Sort(namespaces)
	return namespaces
}
