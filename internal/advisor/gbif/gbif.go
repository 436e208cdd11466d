// Package gbif suggests taxonomy from the GBIF species API.
package gbif

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/advisor"
)

const DefaultBaseURL = "https://api.gbif.org/v1"

// suggestLimit caps the candidates requested per lookup.
const suggestLimit = 6

type GBIFSuggester struct {
	baseURL string
	client  *http.Client
}

func NewGBIFSuggester(baseURL string) *GBIFSuggester {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GBIFSuggester{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type suggestion struct {
	Family          string `json:"family"`
	Genus           string `json:"genus"`
	Species         string `json:"species"`
	SpecificEpithet string `json:"specificEpithet"`
	ScientificName  string `json:"scientificName"`
}

func (s *GBIFSuggester) SuggestTaxonomy(ctx context.Context, name string) ([]advisor.Taxon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []advisor.Taxon{}, nil
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", fmt.Sprint(suggestLimit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/species/suggest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call gbif: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close gbif response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gbif returned status %d: %s", resp.StatusCode, errBody)
	}

	var results []suggestion
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	taxa := make([]advisor.Taxon, 0, len(results))
	for _, r := range results {
		species := r.Species
		if species == "" {
			species = r.SpecificEpithet
		}
		taxa = append(taxa, advisor.Taxon{
			Family:  r.Family,
			Genus:   r.Genus,
			Species: species,
			Name:    r.ScientificName,
		})
	}
	return advisor.MergeTaxa(taxa), nil
}
