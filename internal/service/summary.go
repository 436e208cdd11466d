package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/vbonduro/plantcare/internal/calendar"
	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/schedule"
)

// PlantSummary bundles a plant with everything the list view derives from it.
type PlantSummary struct {
	Plant           *domain.Plant         `json:"plant"`
	NextDue         string                `json:"nextDue"`
	Delta           int                   `json:"delta"`
	Class           schedule.Class        `json:"class"`
	Human           string                `json:"human"`
	ModeledInterval int                   `json:"modeledInterval"`
	Factor          float64               `json:"factor"`
	Volume          *schedule.VolumeRange `json:"volume,omitempty"`
	HydrationPct    int                   `json:"hydrationPct"`
	Intervals       []int                 `json:"observedIntervals"`
}

// Summaries lists every plant sorted by next watering date, then name.
func (s *PlantService) Summaries(ctx context.Context) ([]PlantSummary, error) {
	plants, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	out := make([]PlantSummary, 0, len(plants))
	for _, p := range plants {
		due := schedule.NextDue(p, settings, now)
		sum := PlantSummary{
			Plant:           p,
			NextDue:         domain.FormatDate(due),
			Delta:           schedule.Delta(due, now),
			Class:           schedule.Classify(due, now),
			Human:           schedule.HumanDue(due, now),
			ModeledInterval: schedule.ModeledInterval(p, settings),
			Factor:          schedule.Factor(p, settings),
			HydrationPct:    schedule.HydrationPct(p, settings, now),
			Intervals:       schedule.WateringIntervals(p.History, now.Location()),
		}
		if v, ok := schedule.WaterVolume(p, settings); ok {
			sum.Volume = &v
		}
		out = append(out, sum)
	}
	slices.SortStableFunc(out, func(a, b PlantSummary) int {
		return cmp.Or(
			strings.Compare(a.NextDue, b.NextDue),
			strings.Compare(strings.ToLower(a.Plant.Name), strings.ToLower(b.Plant.Name)),
		)
	})
	return out, nil
}

// Agenda builds the task agenda using the stored settings.
func (s *PlantService) Agenda(ctx context.Context) (schedule.Agenda, error) {
	plants, err := s.repo.All(ctx)
	if err != nil {
		return schedule.Agenda{}, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return schedule.Agenda{}, err
	}
	return schedule.BuildAgenda(plants, settings, s.now()), nil
}

// Plants returns every plant together with the settings their due dates were
// computed with.
func (s *PlantService) Plants(ctx context.Context) ([]*domain.Plant, domain.Settings, error) {
	plants, err := s.repo.All(ctx)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return plants, settings, nil
}

// Calendar renders the iCalendar feed for every plant.
func (s *PlantService) Calendar(ctx context.Context) (string, error) {
	plants, settings, err := s.Plants(ctx)
	if err != nil {
		return "", err
	}
	return calendar.Build(plants, settings, s.now()), nil
}
