// SPDX-License-Identifier: GPL-2.0-or-later

package omero

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// KindImage is a single image with its pixels, ROIs and shapes.
	KindImage Kind = "Image"
	// KindDataset is a container of images.
	KindDataset Kind = "Dataset"
	// KindProject is a container of datasets.
	KindProject Kind = "Project"
	// KindPlate is a container of wells.
	KindPlate Kind = "Plate"
	// KindScreen is a container of plates.
	KindScreen Kind = "Screen"
	// KindWell is a plate well holding well samples.
	KindWell Kind = "Well"
	// KindROI is a region of interest on an image.
	KindROI Kind = "ROI"
	// KindAnnotation covers the annotation hierarchy.
	KindAnnotation Kind = "Annotation"
)

type (
	// Kind names an OMERO object type as used in target proxy strings.
	Kind string

	// Target identifies a single server-side object, e.g. "Image:123".
	Target struct {
		Kind Kind
		ID   int64
	}

	// UnknownKindError is returned for target kinds the exporter cannot
	// descend into.
	UnknownKindError struct {
		Value string
	}

	// NotFoundError is returned when the server has no object for a target.
	NotFoundError struct {
		Kind Kind
		ID   int64
	}
)

// exportableKinds are the kinds accepted as export starting points.
var exportableKinds = map[string]Kind{
	"image":   KindImage,
	"dataset": KindDataset,
	"project": KindProject,
	"plate":   KindPlate,
	"screen":  KindScreen,
}

// apiPaths maps kinds to their /api/v0/m collection segments.
var apiPaths = map[Kind]string{
	KindImage:   "images",
	KindDataset: "datasets",
	KindProject: "projects",
	KindPlate:   "plates",
	KindScreen:  "screens",
	KindWell:    "wells",
	KindROI:     "rois",
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown target: %s", e.Value)
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no such %s: %d", e.Kind, e.ID)
}

// String renders the target in proxy form.
func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// ParseTarget parses a proxy string such as "Image:123" into a Target.
// The kind is case-insensitive. Only container kinds and images are
// accepted; anything else returns an UnknownKindError.
func ParseTarget(s string) (Target, error) {
	kindPart, idPart, ok := strings.Cut(s, ":")
	if !ok {
		return Target{}, &UnknownKindError{Value: s}
	}

	kind, ok := exportableKinds[strings.ToLower(kindPart)]
	if !ok {
		return Target{}, &UnknownKindError{Value: kindPart}
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Target{}, fmt.Errorf("invalid object id %q: %w", idPart, err)
	}

	return Target{Kind: kind, ID: id}, nil
}

// ParseTargets parses a slice of proxy strings, failing on the first
// invalid entry.
func ParseTargets(args []string) ([]Target, error) {
	targets := make([]Target, 0, len(args))
	for _, arg := range args {
		t, err := ParseTarget(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
