// SPDX-License-Identifier: GPL-2.0-or-later

package rdfexport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	rdf "github.com/geoknoesis/rdf-go/rdf"

	"github.com/German-BioImaging/omero-rdf/internal/omero"
)

const (
	// DescentRecursive walks the full container hierarchy.
	DescentRecursive = "recursive"
	// DescentFlat stops recursing below the starting object.
	DescentFlat = "flat"

	// ellideThreshold is the literal length above which --ellide shortens
	// string values.
	ellideThreshold = 50
)

type (
	// ObjectSource provides the marshalled objects the exporter descends.
	// *omero.Client implements it; tests substitute fixtures.
	ObjectSource interface {
		Host() string
		Object(ctx context.Context, kind omero.Kind, id int64) (omero.Data, error)
		Datasets(ctx context.Context, projectID int64) ([]omero.Data, error)
		Images(ctx context.Context, datasetID int64) ([]omero.Data, error)
		Plates(ctx context.Context, screenID int64) ([]omero.Data, error)
		Wells(ctx context.Context, plateID int64) ([]omero.Data, error)
		ROIs(ctx context.Context, imageID int64) ([]omero.Data, error)
		Annotations(ctx context.Context, kind omero.Kind, id int64) ([]omero.Data, error)
	}

	// TripleWriter receives the generated triples. Implementations either
	// stream each triple or collect a graph serialized on Close.
	TripleWriter interface {
		Streaming() bool
		Write(rdf.Triple) error
		Close() error
	}

	// Options tune triple generation.
	Options struct {
		// Descent is DescentRecursive or DescentFlat.
		Descent string
		// Ellide shortens string literals above 50 runes.
		Ellide bool
		// TrimWhitespace strips surrounding whitespace from string
		// literals; without it offending values are logged.
		TrimWhitespace bool
		// FirstHandlerWins stops the annotation handler chain after the
		// first handler that reports the annotation as handled.
		FirstHandlerWins bool
		// Handlers names the registered annotation handlers to enable.
		Handlers []string
	}

	// Handler generates triples for OMERO objects.
	Handler struct {
		source   ObjectSource
		writer   TripleWriter
		opts     Options
		logger   *log.Logger
		handlers []AnnotationHandler

		seen   map[string]struct{}
		bnodeN int
		level  int
	}
)

// NewHandler creates a Handler writing through the given TripleWriter.
func NewHandler(source ObjectSource, writer TripleWriter, opts Options, logger *log.Logger) (*Handler, error) {
	if opts.Descent == "" {
		opts.Descent = DescentRecursive
	}
	if opts.Descent != DescentRecursive && opts.Descent != DescentFlat {
		return nil, fmt.Errorf("unknown descent strategy: %s", opts.Descent)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	h := &Handler{
		source: source,
		writer: writer,
		opts:   opts,
		logger: logger,
		seen:   map[string]struct{}{},
	}

	handlers, err := resolveHandlers(h, opts.Handlers)
	if err != nil {
		return nil, err
	}
	h.handlers = handlers
	return h, nil
}

// Close finishes the underlying writer. For graph-collecting formats this
// is where serialization happens.
func (h *Handler) Close() error {
	return h.writer.Close()
}

// Identity returns the subject IRI for an object kind and id. Server-side
// type names carry a trailing "I" (ImageI, DatasetI) which is stripped,
// except for ROI.
func (h *Handler) Identity(kind string, id any) rdf.IRI {
	if strings.HasSuffix(kind, "I") && kind != "ROI" {
		kind = kind[:len(kind)-1]
	}
	return rdf.IRI{Value: fmt.Sprintf("https://%s/%s/%s", h.source.Host(), kind, idString(id))}
}

// NewBlankNode returns a fresh blank node.
func (h *Handler) NewBlankNode() rdf.BlankNode {
	h.bnodeN++
	return rdf.BlankNode{ID: fmt.Sprintf("b%d", h.bnodeN)}
}

// Logger exposes the export logger to annotation handlers.
func (h *Handler) Logger() *log.Logger {
	return h.logger
}

// skipDescent reports whether recursion below the first level is disabled.
func (h *Handler) skipDescent() bool {
	return h.opts.Descent != DescentRecursive && h.level > 0
}

// Descend exports the target object and, depending on the descent
// strategy, its children. It returns the target's subject IRI.
func (h *Handler) Descend(ctx context.Context, target omero.Target) (rdf.Term, error) {
	if h.skipDescent() {
		data, err := h.fetch(ctx, target)
		if err != nil {
			return nil, err
		}
		subj, err := h.handleObject(ctx, data)
		if err != nil {
			return nil, err
		}
		h.logger.Debug("skip descent", "subject", subj.String())
		return subj, nil
	}
	h.level++

	switch target.Kind {
	case omero.KindScreen:
		return h.descendScreen(ctx, target.ID)
	case omero.KindPlate:
		return h.descendPlate(ctx, target.ID)
	case omero.KindProject:
		return h.descendProject(ctx, target.ID)
	case omero.KindDataset:
		return h.descendDataset(ctx, target.ID)
	case omero.KindImage:
		return h.descendImage(ctx, target.ID)
	default:
		return nil, &ExportError{
			Status: StatusUnknownTarget,
			Err:    &omero.UnknownKindError{Value: string(target.Kind)},
		}
	}
}

// DescendAll exports a list of targets in order.
func (h *Handler) DescendAll(ctx context.Context, targets []omero.Target) error {
	for _, t := range targets {
		if _, err := h.Descend(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) descendScreen(ctx context.Context, id int64) (rdf.Term, error) {
	data, err := h.fetch(ctx, omero.Target{Kind: omero.KindScreen, ID: id})
	if err != nil {
		return nil, err
	}
	scrID, err := h.handleObject(ctx, data)
	if err != nil {
		return nil, err
	}

	plates, err := h.source.Plates(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, plate := range plates {
		pltID, err := h.Descend(ctx, omero.Target{Kind: omero.KindPlate, ID: objectID(plate)})
		if err != nil {
			return nil, err
		}
		if err := h.contains(scrID, pltID); err != nil {
			return nil, err
		}
	}

	if err := h.annotations(ctx, omero.KindScreen, id, scrID); err != nil {
		return nil, err
	}
	return scrID, nil
}

func (h *Handler) descendPlate(ctx context.Context, id int64) (rdf.Term, error) {
	data, err := h.fetch(ctx, omero.Target{Kind: omero.KindPlate, ID: id})
	if err != nil {
		return nil, err
	}
	pltID, err := h.handleObject(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := h.annotations(ctx, omero.KindPlate, id, pltID); err != nil {
		return nil, err
	}

	wells, err := h.source.Wells(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, well := range wells {
		samples := extractList(well, "WellSamples")

		// Wells are not descended into; their images are.
		wid, err := h.handleObject(ctx, well)
		if err != nil {
			return nil, err
		}
		if err := h.contains(pltID, wid); err != nil {
			return nil, err
		}

		for _, sample := range samples {
			img, ok := sample["Image"].(omero.Data)
			if !ok {
				continue
			}
			imgID, err := h.Descend(ctx, omero.Target{Kind: omero.KindImage, ID: objectID(img)})
			if err != nil {
				return nil, err
			}
			if err := h.contains(wid, imgID); err != nil {
				return nil, err
			}
		}
	}
	return pltID, nil
}

func (h *Handler) descendProject(ctx context.Context, id int64) (rdf.Term, error) {
	data, err := h.fetch(ctx, omero.Target{Kind: omero.KindProject, ID: id})
	if err != nil {
		return nil, err
	}
	prjID, err := h.handleObject(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := h.annotations(ctx, omero.KindProject, id, prjID); err != nil {
		return nil, err
	}

	datasets, err := h.source.Datasets(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, ds := range datasets {
		dsID, err := h.Descend(ctx, omero.Target{Kind: omero.KindDataset, ID: objectID(ds)})
		if err != nil {
			return nil, err
		}
		if err := h.contains(prjID, dsID); err != nil {
			return nil, err
		}
	}
	return prjID, nil
}

func (h *Handler) descendDataset(ctx context.Context, id int64) (rdf.Term, error) {
	data, err := h.fetch(ctx, omero.Target{Kind: omero.KindDataset, ID: id})
	if err != nil {
		return nil, err
	}
	dsID, err := h.handleObject(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := h.annotations(ctx, omero.KindDataset, id, dsID); err != nil {
		return nil, err
	}

	images, err := h.source.Images(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		imgID, err := h.Descend(ctx, omero.Target{Kind: omero.KindImage, ID: objectID(img)})
		if err != nil {
			return nil, err
		}
		if err := h.contains(dsID, imgID); err != nil {
			return nil, err
		}
	}
	return dsID, nil
}

func (h *Handler) descendImage(ctx context.Context, id int64) (rdf.Term, error) {
	data, err := h.fetch(ctx, omero.Target{Kind: omero.KindImage, ID: id})
	if err != nil {
		return nil, err
	}

	// Pixels are embedded in the image payload but exported as their own
	// subject, linked via contains.
	var pixels omero.Data
	if p, ok := data["Pixels"].(omero.Data); ok {
		pixels = p
		delete(data, "Pixels")
	}

	imgID, err := h.handleObject(ctx, data)
	if err != nil {
		return nil, err
	}

	var pixID rdf.Term = imgID
	if pixels != nil {
		pixID, err = h.handleObject(ctx, pixels)
		if err != nil {
			return nil, err
		}
		if err := h.contains(imgID, pixID); err != nil {
			return nil, err
		}
	}

	if err := h.annotations(ctx, omero.KindImage, id, imgID); err != nil {
		return nil, err
	}

	rois, err := h.source.ROIs(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, roi := range rois {
		shapes := extractList(roi, "Shapes")

		roiID, err := h.handleObject(ctx, roi)
		if err != nil {
			return nil, err
		}
		if err := h.contains(pixID, roiID); err != nil {
			return nil, err
		}

		for _, shape := range shapes {
			shapeID, err := h.handleObject(ctx, shape)
			if err != nil {
				return nil, err
			}
			if err := h.contains(roiID, shapeID); err != nil {
				return nil, err
			}
		}
	}
	return imgID, nil
}

// fetch loads a target object, mapping a missing object to StatusNotFound.
func (h *Handler) fetch(ctx context.Context, target omero.Target) (omero.Data, error) {
	data, err := h.source.Object(ctx, target.Kind, target.ID)
	if err != nil {
		var notFound *omero.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &ExportError{Status: StatusNotFound, Err: err}
		}
		var unknown *omero.UnknownKindError
		if errors.As(err, &unknown) {
			return nil, &ExportError{Status: StatusUnknownTarget, Err: err}
		}
		return nil, err
	}
	return data, nil
}

// annotations handles every annotation linked to an object, connecting it
// to the object's subject.
func (h *Handler) annotations(ctx context.Context, kind omero.Kind, id int64, subj rdf.Term) error {
	anns, err := h.source.Annotations(ctx, kind, id)
	if err != nil {
		return err
	}
	for _, ann := range anns {
		annID, err := h.handleObject(ctx, ann)
		if err != nil {
			return err
		}
		if err := h.contains(subj, annID); err != nil {
			return err
		}
	}
	return nil
}

// handleObject emits all triples for one marshalled object and returns
// its subject IRI.
func (h *Handler) handleObject(ctx context.Context, data omero.Data) (rdf.Term, error) {
	rawID, ok := data["@id"]
	if !ok {
		return nil, fmt.Errorf("missing id: %v", data)
	}
	subj := h.Identity(typeName(data), rawID)
	if err := h.walk(ctx, subj, data); err != nil {
		return nil, err
	}
	return subj, nil
}

// walk emits triples for data with the given subject, recursing into
// nested objects.
func (h *Handler) walk(ctx context.Context, subj rdf.Term, data omero.Data) error {
	typ := typeName(data)

	// Annotations get a chance to be claimed by a handler before the
	// generic field walk.
	if strings.Contains(typ, "Annotation") {
		for _, ah := range h.handlers {
			handled, err := ah.HandleAnnotation(ctx, nil, rdf.IRI{}, data, h.emit)
			if err != nil {
				return err
			}
			if handled && h.opts.FirstHandlerWins {
				return nil
			}
		}
	}

	if iri, ok := subj.(rdf.IRI); ok {
		if _, dup := h.seen[iri.Value]; dup {
			h.logger.Debug("skipping previously seen subject", "subject", iri.Value)
			return nil
		}
		h.seen[iri.Value] = struct{}{}
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := data[k]
		switch k {
		case "@type":
			if s, ok := v.(string); ok {
				if err := h.emit(rdf.Triple{S: subj, P: rdfType, O: rdf.IRI{Value: s}}); err != nil {
					return err
				}
			}
		case "@id", "omero:details", "Annotations":
			// Carried out of band or omitted entirely.
		default:
			if err := h.walkValue(ctx, subj, omePredicate(k), v); err != nil {
				return err
			}
		}
	}

	// Inline annotations attach through ome:annotation after the fields.
	if anns, ok := data["Annotations"].([]any); ok {
		for _, raw := range anns {
			ann, ok := raw.(omero.Data)
			if !ok {
				continue
			}
			if err := h.annotation(ctx, subj, ann); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkValue emits triples for one field value.
func (h *Handler) walkValue(ctx context.Context, subj rdf.Term, pred rdf.IRI, v any) error {
	switch val := v.(type) {
	case omero.Data:
		if _, ok := val["@id"]; ok {
			return h.linkObject(ctx, subj, pred, val)
		}
		// Without an identity the nested object hangs off a blank node.
		bnode := h.NewBlankNode()
		if err := h.emit(rdf.Triple{S: subj, P: pred, O: bnode}); err != nil {
			return err
		}
		return h.walk(ctx, bnode, val)

	case []any:
		for _, item := range val {
			switch entry := item.(type) {
			case omero.Data:
				if _, ok := entry["@id"]; ok {
					if err := h.linkObject(ctx, subj, pred, entry); err != nil {
						return err
					}
					continue
				}
				bnode := h.NewBlankNode()
				if err := h.emit(rdf.Triple{S: subj, P: pred, O: bnode}); err != nil {
					return err
				}
				if err := h.walk(ctx, bnode, entry); err != nil {
					return err
				}
			case []any:
				if len(entry) != 2 {
					return fmt.Errorf("unknown list item: %v", entry)
				}
				bnode := h.NewBlankNode()
				pair := []rdf.Triple{
					{S: subj, P: rdf.IRI{Value: NSOme + "Map"}, O: bnode},
					{S: bnode, P: rdf.IRI{Value: NSOme + "Key"}, O: h.literal(entry[0])},
					{S: bnode, P: rdf.IRI{Value: NSOme + "Value"}, O: h.literal(entry[1])},
				}
				for _, t := range pair {
					if err := h.emit(t); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("unknown list item: %v", item)
			}
		}
		return nil

	case nil:
		h.logger.Debug("skipping null value", "predicate", pred.Value)
		return nil

	default:
		return h.emit(rdf.Triple{S: subj, P: pred, O: h.literal(v)})
	}
}

// linkObject links a nested object carrying its own identity and walks its
// content under that identity.
func (h *Handler) linkObject(ctx context.Context, subj rdf.Term, pred rdf.IRI, data omero.Data) error {
	child := h.Identity(typeName(data), data["@id"])
	if err := h.emit(rdf.Triple{S: subj, P: pred, O: child}); err != nil {
		return err
	}
	return h.walk(ctx, child, data)
}

// annotation runs the handler chain for one annotation and falls back to
// the generic walk when no handler claims it.
func (h *Handler) annotation(ctx context.Context, container rdf.Term, data omero.Data) error {
	pred := rdf.IRI{Value: NSOme + "annotation"}

	for _, ah := range h.handlers {
		handled, err := ah.HandleAnnotation(ctx, container, pred, data, h.emit)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	aid := h.Identity("AnnotationTBD", data["@id"])
	if err := h.emit(rdf.Triple{S: container, P: pred, O: aid}); err != nil {
		return err
	}
	return h.walk(ctx, aid, data)
}

// contains links a parent and child subject in both directions.
func (h *Handler) contains(parent, child rdf.Term) error {
	if err := h.emit(rdf.Triple{S: child, P: dctIsPartOf, O: parent}); err != nil {
		return err
	}
	return h.emit(rdf.Triple{S: parent, P: dctHasPart, O: child})
}

// emit writes one triple, dropping triples with missing terms.
func (h *Handler) emit(t rdf.Triple) error {
	if t.S == nil || t.P.Value == "" || t.O == nil {
		h.logger.Debug("skipping triple with missing term", "triple", t)
		return nil
	}
	return h.writer.Write(t)
}

// literal converts a scalar field value into an RDF literal, applying the
// ellipsis and whitespace policies to strings.
func (h *Handler) literal(v any) rdf.Literal {
	switch val := v.(type) {
	case string:
		runes := []rune(val)
		if h.opts.Ellide && len(runes) > ellideThreshold {
			val = string(runes[:24]) + "..." + string(runes[len(runes)-20:len(runes)-1])
		} else if val != strings.TrimSpace(val) {
			if h.opts.TrimWhitespace {
				val = strings.TrimSpace(val)
			} else {
				h.logger.Warn("string has whitespace that needs trimming", "value", val)
			}
		}
		return rdf.Literal{Lexical: val}
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return rdf.Literal{Lexical: val.String(), Datatype: xsdInteger}
		}
		return rdf.Literal{Lexical: val.String(), Datatype: xsdDouble}
	case bool:
		return rdf.Literal{Lexical: fmt.Sprintf("%t", val), Datatype: xsdBoolean}
	case float64:
		return rdf.Literal{Lexical: fmt.Sprintf("%g", val), Datatype: xsdDouble}
	case int64:
		return rdf.Literal{Lexical: fmt.Sprintf("%d", val), Datatype: xsdInteger}
	default:
		return rdf.Literal{Lexical: fmt.Sprint(v)}
	}
}

// typeName extracts the short type name from an object's "@type" IRI.
func typeName(data omero.Data) string {
	t, _ := data["@type"].(string)
	if t == "" {
		return "UNKNOWN"
	}
	if i := strings.LastIndex(t, "#"); i >= 0 {
		return t[i+1:]
	}
	return t
}

// objectID reads an object's numeric id.
func objectID(data omero.Data) int64 {
	switch id := data["@id"].(type) {
	case json.Number:
		n, _ := id.Int64()
		return n
	case float64:
		return int64(id)
	case int64:
		return id
	default:
		return 0
	}
}

// idString renders an id value for use inside a subject IRI.
func idString(id any) string {
	switch v := id.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// extractList removes and returns a list-of-objects field, so the walk
// does not traverse it a second time.
func extractList(data omero.Data, key string) []omero.Data {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	delete(data, key)

	out := make([]omero.Data, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(omero.Data); ok {
			out = append(out, m)
		}
	}
	return out
}
