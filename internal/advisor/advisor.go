// Package advisor defines the optional collaborators that enrich plants:
// taxonomy suggestions, care plans and current weather. Every collaborator
// may be absent or fail; callers go through Lookup so failures surface as
// "no suggestion" and never reach scheduling.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/plantcare/internal/domain"
)

// Taxon is one taxonomy candidate for a plant name.
type Taxon struct {
	Family   string `json:"family"`
	Genus    string `json:"genus"`
	Species  string `json:"species"`
	Cultivar string `json:"cultivar,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (t Taxon) key() string {
	return strings.ToLower(strings.TrimSpace(t.Genus+" "+t.Species) + "|" + t.Family)
}

type TaxonomySuggester interface {
	SuggestTaxonomy(ctx context.Context, name string) ([]Taxon, error)
}

// CarePlanRequest is the context handed to a care planner.
type CarePlanRequest struct {
	Name      string           `json:"name"`
	InOut     domain.Placement `json:"inout,omitempty"`
	Exposure  domain.Exposure  `json:"exposure,omitempty"`
	PotSizeIn float64          `json:"potIn,omitempty"`
}

// CarePlan is the partial plant a care planner proposes. Zero values mean
// "no opinion".
type CarePlan struct {
	Family           string            `json:"family"`
	Genus            string            `json:"genus"`
	Species          string            `json:"species"`
	Cultivar         string            `json:"cultivar"`
	LightLevel       domain.LightLevel `json:"lightLevel"`
	SoilType         domain.SoilType   `json:"soilType"`
	BaseIntervalDays int               `json:"baseIntervalDays"`
	Tasks            []domain.Task     `json:"tasks"`
	CareSummary      string            `json:"careSummary"`
	PotDiameterIn    float64           `json:"potDiameterIn"`
}

type CarePlanner interface {
	CarePlan(ctx context.Context, req CarePlanRequest) (*CarePlan, error)
}

// Conditions are current outdoor readings.
type Conditions struct {
	TempC float64 `json:"tempC"`
	RH    float64 `json:"rh"`
}

type WeatherLookup interface {
	Current(ctx context.Context, lat, lon float64) (*Conditions, error)
}

// Lookup runs fn and converts any failure into absence. The error is logged
// at warn level under the collaborator name.
func Lookup[T any](ctx context.Context, logger *slog.Logger, collaborator string, fn func(context.Context) (T, error)) (result T, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("advisor lookup panicked", "collaborator", collaborator, "error", fmt.Sprint(r))
			var zero T
			result, ok = zero, false
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		logger.Warn("advisor lookup failed", "collaborator", collaborator, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// MultiSuggester asks every suggester in order and merges the candidates,
// dropping duplicates. A failing suggester contributes nothing.
type MultiSuggester struct {
	suggesters []TaxonomySuggester
	logger     *slog.Logger
}

func NewMultiSuggester(logger *slog.Logger, suggesters ...TaxonomySuggester) *MultiSuggester {
	return &MultiSuggester{suggesters: suggesters, logger: logger}
}

func (m *MultiSuggester) SuggestTaxonomy(ctx context.Context, name string) ([]Taxon, error) {
	var lists [][]Taxon
	for i, s := range m.suggesters {
		taxa, ok := Lookup(ctx, m.logger, fmt.Sprintf("taxonomy[%d]", i), func(ctx context.Context) ([]Taxon, error) {
			return s.SuggestTaxonomy(ctx, name)
		})
		if ok {
			lists = append(lists, taxa)
		}
	}
	return MergeTaxa(lists...), nil
}

// MergeTaxa concatenates candidate lists, keeping the first of any entries
// with the same genus, species and family. Empty candidates are dropped.
func MergeTaxa(lists ...[]Taxon) []Taxon {
	out := []Taxon{}
	seen := map[string]bool{}
	for _, list := range lists {
		for _, t := range list {
			if t.Family == "" && t.Genus == "" && t.Species == "" {
				continue
			}
			k := t.key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}
