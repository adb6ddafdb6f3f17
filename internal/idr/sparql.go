// SPDX-License-Identifier: GPL-2.0-or-later

package idr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// WikidataEndpoint is the public Wikidata query service.
const WikidataEndpoint = "https://query.wikidata.org/sparql"

// SPARQLClient runs SELECT queries against a SPARQL endpoint.
type SPARQLClient struct {
	endpoint string
	http     *http.Client
}

// NewSPARQLClient creates a client for the given endpoint URL.
func NewSPARQLClient(endpoint string) *SPARQLClient {
	return &SPARQLClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Select runs a SELECT query and returns one map per result row, keyed by
// variable name.
func (c *SPARQLClient) Select(ctx context.Context, query string) ([]map[string]string, error) {
	u := c.endpoint + "?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", "omero-rdf")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql query: %s", res.Status)
	}

	var payload struct {
		Results struct {
			Bindings []map[string]struct {
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("sparql query: decode: %w", err)
	}

	rows := make([]map[string]string, 0, len(payload.Results.Bindings))
	for _, binding := range payload.Results.Bindings {
		row := make(map[string]string, len(binding))
		for name, v := range binding {
			row[name] = v.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
