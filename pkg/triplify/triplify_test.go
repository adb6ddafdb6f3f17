// SPDX-License-Identifier: GPL-2.0-or-later

package triplify

import (
	"context"
	"encoding/json"
	"testing"

	rdf "github.com/geoknoesis/rdf-go/rdf"

	"github.com/German-BioImaging/omero-rdf/internal/omero"
)

type fixtureSource struct {
	objects map[string]omero.Data
}

func (f *fixtureSource) Host() string { return "omero.test" }

func (f *fixtureSource) Object(_ context.Context, kind omero.Kind, id int64) (omero.Data, error) {
	obj, ok := f.objects[omero.Target{Kind: kind, ID: id}.String()]
	if !ok {
		return nil, &omero.NotFoundError{Kind: kind, ID: id}
	}
	return obj, nil
}

func (f *fixtureSource) Datasets(context.Context, int64) ([]omero.Data, error) { return nil, nil }
func (f *fixtureSource) Images(context.Context, int64) ([]omero.Data, error)   { return nil, nil }
func (f *fixtureSource) Plates(context.Context, int64) ([]omero.Data, error)   { return nil, nil }
func (f *fixtureSource) Wells(context.Context, int64) ([]omero.Data, error)    { return nil, nil }
func (f *fixtureSource) ROIs(context.Context, int64) ([]omero.Data, error)     { return nil, nil }
func (f *fixtureSource) Annotations(context.Context, omero.Kind, int64) ([]omero.Data, error) {
	return nil, nil
}

func TestExportGraph(t *testing.T) {
	source := &fixtureSource{
		objects: map[string]omero.Data{
			"Image:1": {
				"@id":   json.Number("1"),
				"@type": "http://www.openmicroscopy.org/Schemas/OME/2016-06#Image",
				"Name":  "test.tiff",
			},
		},
	}

	quads, err := New(source).ExportGraph(context.Background(), "Image:1")
	if err != nil {
		t.Fatalf("ExportGraph() error: %v", err)
	}
	if len(quads) == 0 {
		t.Fatal("ExportGraph() returned no statements")
	}

	found := false
	for _, q := range quads {
		s, ok := q.S.(rdf.IRI)
		if !ok {
			continue
		}
		lit, ok := q.O.(rdf.Literal)
		if ok && s.Value == "https://omero.test/Image/1" && lit.Lexical == "test.tiff" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing name statement in %v", quads)
	}
}

func TestExportGraphBadTarget(t *testing.T) {
	if _, err := New(&fixtureSource{}).ExportGraph(context.Background(), "Bogus:1"); err == nil {
		t.Error("ExportGraph() should reject unknown target kinds")
	}
}

func TestExportGraphMissingObject(t *testing.T) {
	if _, err := New(&fixtureSource{objects: map[string]omero.Data{}}).ExportGraph(context.Background(), "Image:404"); err == nil {
		t.Error("ExportGraph() should fail for missing objects")
	}
}
