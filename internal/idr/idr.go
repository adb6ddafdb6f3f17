// SPDX-License-Identifier: GPL-2.0-or-later

// Package idr translates IDR study map annotations into Wikidata
// statements instead of generic key/value blank nodes. The known IDR
// annotation keys (Organism, Pathology, Organism Part, Sex, Age, gene and
// antibody identifiers) map to Wikidata direct properties, with taxon,
// disease and anatomy values resolved through the Wikidata query service.
package idr

import (
	"context"
	"fmt"
	"strings"

	rdf "github.com/geoknoesis/rdf-go/rdf"

	"github.com/German-BioImaging/omero-rdf/internal/rdfexport"
)

const (
	nsWD   = "http://www.wikidata.org/entity/"
	nsWDP  = "http://www.wikidata.org/prop/direct/"
	nsSNMI = "http://purl.bioontology.org/ontology/SNMI/"

	dcIdentifier = "http://purl.org/dc/elements/1.1/identifier"
)

var (
	rdfType = rdf.IRI{Value: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"}

	// Q35120 is the Wikidata root "entity" class.
	wdThing = rdf.IRI{Value: nsWD + "Q35120"}

	wdFemale = rdf.IRI{Value: nsWD + "Q6581072"}
	wdMale   = rdf.IRI{Value: nsWD + "Q6581097"}

	propDepicts      = rdf.IRI{Value: nsWDP + "P180"}
	propFoundInTaxon = rdf.IRI{Value: nsWDP + "P703"}
	propCondition    = rdf.IRI{Value: nsWDP + "P1050"}
	propPartOf       = rdf.IRI{Value: nsWDP + "P361"}
	propSex          = rdf.IRI{Value: nsWDP + "P21"}
	propAge          = rdf.IRI{Value: nsWDP + "P3629"}
	propGeneSymbol   = rdf.IRI{Value: nsWDP + "P353"}
	propUnresolved   = rdf.IRI{Value: nsWDP + "P827"}
	predDCIdentifier = rdf.IRI{Value: dcIdentifier}
)

// pathologiesToCurate are values that need curation before they can be
// resolved against Wikidata; they are skipped entirely.
var pathologiesToCurate = map[string]struct{}{
	"Malignant lymphoma, non-Hodgkin's type, Low grade": {},
	"Malignant melanoma, NOS":                           {},
	"Malignant melanoma, Metastatic site":               {},
	"Adenocarcinoma, Low grade":                         {},
	"Carcinoid, malignant, NOS":                         {},
	"Normal tissue, NOS":                                {},
}

// Handler resolves IDR map-annotation values against Wikidata.
type Handler struct {
	export *rdfexport.Handler
	sparql *SPARQLClient
	cache  map[string]rdf.IRI
}

func init() {
	rdfexport.RegisterAnnotationHandler("idr", func(h *rdfexport.Handler) rdfexport.AnnotationHandler {
		return New(h, NewSPARQLClient(WikidataEndpoint))
	})
}

// New creates a Handler using the given SPARQL client for lookups.
func New(export *rdfexport.Handler, sparql *SPARQLClient) *Handler {
	return &Handler{
		export: export,
		sparql: sparql,
		cache:  map[string]rdf.IRI{},
	}
}

// HandleAnnotation implements rdfexport.AnnotationHandler. Only map
// annotations are claimed; everything else falls through to the generic
// walk.
func (h *Handler) HandleAnnotation(ctx context.Context, container rdf.Term, pred rdf.IRI, data map[string]any, emit rdfexport.EmitFunc) (bool, error) {
	logger := h.export.Logger()
	logger.Debug("handling annotation", "namespace", data["Namespace"])

	typ, _ := data["@type"].(string)
	if !strings.Contains(typ, "MapAnnotation") {
		logger.Debug("skipping non-map annotation", "type", typ)
		return false, nil
	}

	var thing rdf.Term
	if id, ok := data["@id"]; ok {
		thing = h.export.Identity("MapAnnotation", id)
	} else {
		thing = h.export.NewBlankNode()
	}

	if container != nil {
		// The container depicts whatever the annotation describes.
		if err := emit(rdf.Triple{S: container, P: propDepicts, O: thing}); err != nil {
			return false, err
		}
	}
	if err := emit(rdf.Triple{S: thing, P: rdfType, O: wdThing}); err != nil {
		return false, err
	}

	kvps, _ := data["Value"].([]any)
	for _, raw := range kvps {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		name, _ := pair[0].(string)
		value, _ := pair[1].(string)
		if err := h.handlePair(ctx, thing, name, value, emit); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (h *Handler) handlePair(ctx context.Context, thing rdf.Term, name, value string, emit rdfexport.EmitFunc) error {
	logger := h.export.Logger()

	switch name {
	case "Organism":
		taxon, err := h.lookup(ctx, value, h.taxonQuery(value), "taxon")
		if err != nil {
			return err
		}
		if taxon.Value == "" {
			logger.Warn("missing in wikidata", "value", value)
			return nil
		}
		return emit(rdf.Triple{S: thing, P: propFoundInTaxon, O: taxon})

	case "Pathology Identifier":
		return emit(rdf.Triple{S: thing, P: propCondition, O: rdf.IRI{Value: nsSNMI + value}})

	case "Pathology":
		// Known typo in the IDR study metadata.
		if value == "Carcinoma, endometroid" {
			value = "Carcinoma, endometrioid"
		}
		if _, skip := pathologiesToCurate[value]; skip {
			return nil
		}
		if cached, ok := h.cache[value]; ok {
			return emit(rdf.Triple{S: thing, P: propCondition, O: cached})
		}
		disease, err := h.lookup(ctx, value, h.diseaseQuery(value), "disease")
		if err != nil {
			return err
		}
		if disease.Value == "" {
			logger.Warn("missing in wikidata", "value", value)
			return nil
		}
		return emit(rdf.Triple{S: thing, P: propUnresolved, O: disease})

	case "Organism Part Identifier":
		return emit(rdf.Triple{S: thing, P: propPartOf, O: rdf.IRI{Value: nsSNMI + value}})

	case "Organism Part":
		if cached, ok := h.cache[value]; ok {
			return emit(rdf.Triple{S: thing, P: propPartOf, O: cached})
		}
		part, err := h.lookup(ctx, value, h.anatomyQuery(value), "anatomical_structure")
		if err != nil {
			return err
		}
		if part.Value == "" {
			logger.Warn("missing in wikidata", "value", value)
			return nil
		}
		return emit(rdf.Triple{S: thing, P: propUnresolved, O: part})

	case "Sex":
		switch value {
		case "Female":
			return emit(rdf.Triple{S: thing, P: propSex, O: wdFemale})
		case "Male":
			return emit(rdf.Triple{S: thing, P: propSex, O: wdMale})
		default:
			logger.Warn("unmapped sex value", "value", value)
			return nil
		}

	case "Age":
		return emit(rdf.Triple{S: thing, P: propAge, O: rdf.Literal{Lexical: value}})

	case "Antibody Identifier URL", "Gene Identifier URL":
		return emit(rdf.Triple{S: thing, P: predDCIdentifier, O: rdf.IRI{Value: value}})

	case "Gene Symbol":
		return emit(rdf.Triple{S: thing, P: propGeneSymbol, O: rdf.Literal{Lexical: value}})

	default:
		logger.Warn("unknown key", "key", name)
		return nil
	}
}

// lookup resolves a value through the SPARQL endpoint, caching hits.
func (h *Handler) lookup(ctx context.Context, value, query, variable string) (rdf.IRI, error) {
	if cached, ok := h.cache[value]; ok {
		return cached, nil
	}

	rows, err := h.sparql.Select(ctx, query)
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("wikidata lookup for %q: %w", value, err)
	}
	if len(rows) == 0 {
		return rdf.IRI{}, nil
	}

	iri := rdf.IRI{Value: rows[0][variable]}
	h.cache[value] = iri
	return iri, nil
}

func (h *Handler) taxonQuery(value string) string {
	return fmt.Sprintf(`SELECT * WHERE { ?taxon wdt:P225 %q }`, value)
}

func (h *Handler) diseaseQuery(value string) string {
	return fmt.Sprintf(`
SELECT * WHERE {
  VALUES ?pathology {wd:Q12136}
  {?disease wdt:P31 ?pathology .}
    UNION
    {?disease wdt:P279 ?pathology .}
    UNION
    {?disease wdt:P279/wdt:P31 ?pathology .}
    UNION
    {?disease wdt:P279+ ?pathology .}
  {?disease rdfs:label %[1]q@en}
  UNION
  {?disease skos:altLabel %[1]q@en}
}`, strings.ToLower(value))
}

func (h *Handler) anatomyQuery(value string) string {
	return fmt.Sprintf(`
SELECT * WHERE {
  VALUES ?organ {wd:Q103812529 wd:Q4936952 wd:Q712378
                 wd:Q24060765 wd:Q103843025 wd:Q27162596}
  {?anatomical_structure wdt:P31 ?organ .}
    UNION
    {?anatomical_structure wdt:P279 ?organ .}
    UNION
    {?anatomical_structure wdt:P279/wdt:P31 ?organ .}
    UNION
    {?anatomical_structure wdt:P279+ ?organ .}
  {?anatomical_structure rdfs:label %[1]q@en}
  UNION
  {?anatomical_structure skos:altLabel %[1]q@en}
}`, strings.ToLower(value))
}
