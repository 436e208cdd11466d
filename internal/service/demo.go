package service

import (
	"context"
	"fmt"

	"github.com/vbonduro/plantcare/internal/domain"
)

type demoSpec struct {
	name      string
	family    string
	genus     string
	species   string
	light     domain.LightLevel
	potIn     float64
	soil      domain.SoilType
	inOut     domain.Placement
	exposure  domain.Exposure
	intervalD int
}

var demoPlants = []demoSpec{
	{"Monstera", "Araceae", "Monstera", "deliciosa", domain.LightMedium, 10, domain.SoilAroid, domain.Indoor, domain.ExposureEast, 7},
	{"ZZ Plant", "Araceae", "Zamioculcas", "zamiifolia", domain.LightLow, 8, domain.SoilGeneric, domain.Indoor, domain.ExposureNorth, 12},
	{"Snake Plant", "Asparagaceae", "Dracaena", "trifasciata", domain.LightLow, 6, domain.SoilCactus, domain.Indoor, domain.ExposureWest, 14},
	{"Fiddle-Leaf Fig", "Moraceae", "Ficus", "lyrata", domain.LightHigh, 12, domain.SoilAroid, domain.Indoor, domain.ExposureSouth, 6},
	{"Aloe", "Asphodelaceae", "Aloe", "vera", domain.LightHigh, 6, domain.SoilCactus, domain.Outdoor, domain.ExposureSouth, 10},
}

// SeedDemo adds five sample plants watered today, each with fertilize and
// inspect tasks.
func (s *PlantService) SeedDemo(ctx context.Context) ([]*domain.Plant, error) {
	now := s.now()
	today := domain.FormatDate(now)

	out := make([]*domain.Plant, 0, len(demoPlants))
	for _, d := range demoPlants {
		p := &domain.Plant{
			Name:         d.name,
			Family:       d.family,
			Genus:        d.genus,
			Species:      d.species,
			LightLevel:   d.light,
			PotSize:      domain.PotCategoryFromInches(d.potIn),
			PotSizeIn:    d.potIn,
			SoilType:     d.soil,
			InOut:        d.inOut,
			Exposure:     d.exposure,
			IntervalDays: d.intervalD,
			LastWatered:  today,
			Tasks: []domain.Task{
				{Type: "fertilize", EveryDays: 30},
				{Type: "inspect", EveryDays: 14},
			},
			History: domain.History{{Type: domain.HistoryWater, At: today}},
		}
		created, err := s.CreatePlant(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", d.name, err)
		}
		out = append(out, created)
	}
	s.logger.Info("demo plants seeded", "count", len(out))
	return out, nil
}
