package advisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/domain"
)

// StripFences removes a surrounding Markdown code fence and any prose before
// the first JSON bracket.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	if i := strings.IndexAny(s, "[{"); i > 0 {
		s = s[i:]
	}
	return s
}

// ParseTaxa accepts either a single object or an array of objects. Malformed
// replies yield no candidates.
func ParseTaxa(raw string) []Taxon {
	s := StripFences(raw)
	var list []Taxon
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return MergeTaxa(trimTaxa(list))
	}
	var one Taxon
	if err := json.Unmarshal([]byte(s), &one); err == nil {
		return MergeTaxa(trimTaxa([]Taxon{one}))
	}
	return []Taxon{}
}

func trimTaxa(list []Taxon) []Taxon {
	for i := range list {
		list[i].Family = strings.TrimSpace(list[i].Family)
		list[i].Genus = strings.TrimSpace(list[i].Genus)
		list[i].Species = strings.TrimSpace(list[i].Species)
		list[i].Cultivar = strings.TrimSpace(list[i].Cultivar)
	}
	return list
}

type rawCarePlan struct {
	Family           string  `json:"family"`
	Genus            string  `json:"genus"`
	Species          string  `json:"species"`
	Cultivar         string  `json:"cultivar"`
	LightLevel       string  `json:"lightLevel"`
	SoilType         string  `json:"soilType"`
	BaseIntervalDays float64 `json:"baseIntervalDays"`
	IntervalDays     float64 `json:"intervalDays"`
	Tasks            []struct {
		Type      string  `json:"type"`
		EveryDays float64 `json:"everyDays"`
	} `json:"tasks"`
	CareSummary   string  `json:"careSummary"`
	PotDiameterIn float64 `json:"potDiameterIn"`
}

// ParseCarePlan decodes a model reply into a CarePlan. Unknown enum values
// and non-positive numbers are dropped rather than rejected.
func ParseCarePlan(raw string) (*CarePlan, error) {
	var r rawCarePlan
	if err := json.Unmarshal([]byte(StripFences(raw)), &r); err != nil {
		return nil, fmt.Errorf("failed to parse care plan: %w", err)
	}

	plan := &CarePlan{
		Family:      strings.TrimSpace(r.Family),
		Genus:       strings.TrimSpace(r.Genus),
		Species:     strings.TrimSpace(r.Species),
		Cultivar:    strings.TrimSpace(r.Cultivar),
		CareSummary: strings.TrimSpace(r.CareSummary),
		Tasks:       []domain.Task{},
	}
	switch l := domain.LightLevel(strings.ToLower(r.LightLevel)); l {
	case domain.LightLow, domain.LightMedium, domain.LightHigh:
		plan.LightLevel = l
	}
	switch s := domain.SoilType(strings.ToLower(r.SoilType)); s {
	case domain.SoilGeneric, domain.SoilAroid, domain.SoilCactus:
		plan.SoilType = s
	}
	interval := r.BaseIntervalDays
	if interval <= 0 {
		interval = r.IntervalDays
	}
	if interval >= 1 && !math.IsInf(interval, 0) {
		plan.BaseIntervalDays = int(math.Round(interval))
	}
	if r.PotDiameterIn > 0 && !math.IsInf(r.PotDiameterIn, 0) {
		plan.PotDiameterIn = r.PotDiameterIn
	}
	for _, t := range r.Tasks {
		typ := strings.ToLower(strings.TrimSpace(t.Type))
		if typ == "" || t.EveryDays < 1 {
			continue
		}
		plan.Tasks = append(plan.Tasks, domain.Task{Type: typ, EveryDays: int(math.Round(t.EveryDays))})
	}
	return plan, nil
}
