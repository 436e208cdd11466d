package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/vbonduro/plantcare/internal/advisor"
	"github.com/vbonduro/plantcare/internal/domain"
)

// plantRepository is the subset of repository.Repository that PlantService requires.
type plantRepository interface {
	Put(ctx context.Context, p *domain.Plant) error
	Get(ctx context.Context, id string) (*domain.Plant, error)
	All(ctx context.Context) ([]*domain.Plant, error)
	Delete(ctx context.Context, id string) error
	DeleteCascade(ctx context.Context, id string) error
	PutFile(ctx context.Context, mimeType string, data []byte) (string, error)
	GetFile(ctx context.Context, id string) ([]byte, string, error)
	Now() time.Time
}

// settingsRepository is the subset of store.SettingsStore that PlantService requires.
type settingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, s domain.Settings) error
}

// Advisors bundles the optional collaborators. Any of them may be nil.
type Advisors struct {
	Taxonomy advisor.TaxonomySuggester
	Planner  advisor.CarePlanner
	Weather  advisor.WeatherLookup
}

type PlantService struct {
	repo          plantRepository
	settings      settingsRepository
	advisors      Advisors
	cascadeDelete bool
	logger        *slog.Logger
}

func NewPlantService(
	repo plantRepository,
	settings settingsRepository,
	advisors Advisors,
	cascadeDelete bool,
	logger *slog.Logger,
) *PlantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantService{
		repo:          repo,
		settings:      settings,
		advisors:      advisors,
		cascadeDelete: cascadeDelete,
		logger:        logger,
	}
}

func (s *PlantService) now() time.Time {
	return s.repo.Now()
}

// CreatePlant stores p under a fresh id unless it already carries one.
func (s *PlantService) CreatePlant(ctx context.Context, p *domain.Plant) (*domain.Plant, error) {
	if p == nil {
		return nil, fmt.Errorf("missing plant: %w", domain.ErrInvalidInput)
	}
	if err := checkTaskTypes(p.Tasks); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	p.Name = strings.TrimSpace(p.Name)
	ts := domain.FormatTimestamp(s.now())
	if p.CreatedAt == "" {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}
	s.logger.Info("plant created", "plant_id", p.ID, "name", p.Name)
	return p, nil
}

// UpdatePlant replaces the stored plant with p, keeping its id and creation time.
func (s *PlantService) UpdatePlant(ctx context.Context, id string, p *domain.Plant) (*domain.Plant, error) {
	if p == nil {
		return nil, fmt.Errorf("missing plant: %w", domain.ErrInvalidInput)
	}
	if err := checkTaskTypes(p.Tasks); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.Name = strings.TrimSpace(p.Name)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlantService) GetPlant(ctx context.Context, id string) (*domain.Plant, error) {
	return s.repo.Get(ctx, id)
}

// DeletePlant removes the plant, and its photos too when cascading is enabled.
func (s *PlantService) DeletePlant(ctx context.Context, id string) error {
	var err error
	if s.cascadeDelete {
		err = s.repo.DeleteCascade(ctx, id)
	} else {
		err = s.repo.Delete(ctx, id)
	}
	if err != nil {
		return err
	}
	s.logger.Info("plant deleted", "plant_id", id, "cascade", s.cascadeDelete)
	return nil
}

// update loads the plant, applies fn and writes it back.
func (s *PlantService) update(ctx context.Context, id string, fn func(p *domain.Plant, now time.Time) error) (*domain.Plant, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlantService) save(ctx context.Context, p *domain.Plant) error {
	p.UpdatedAt = domain.FormatTimestamp(s.now())
	if err := s.repo.Put(ctx, p); err != nil {
		return fmt.Errorf("failed to save plant %s: %w", p.ID, err)
	}
	return nil
}

// MarkWatered sets the last-watered date to today and logs a water event.
func (s *PlantService) MarkWatered(ctx context.Context, id string) (*domain.Plant, error) {
	p, err := s.update(ctx, id, func(p *domain.Plant, now time.Time) error {
		today := domain.FormatDate(now)
		p.LastWatered = today
		p.History = p.History.Append(domain.HistoryEvent{Type: domain.HistoryWater, At: today})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("plant watered", "plant_id", id, "next_due", p.NextDue)
	return p, nil
}

func taskIndex(p *domain.Plant, index int) error {
	if index < 0 || index >= len(p.Tasks) {
		return fmt.Errorf("task %d of plant %s: %w", index, p.ID, domain.ErrNotFound)
	}
	return nil
}

func checkTaskTypes(tasks []domain.Task) error {
	for _, t := range tasks {
		if strings.ContainsFunc(t.Type, unicode.IsControl) {
			return fmt.Errorf("task type %q contains control characters: %w", t.Type, domain.ErrInvalidInput)
		}
	}
	return nil
}

func validateTask(t domain.Task) (domain.Task, error) {
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	if t.Type == "" {
		return t, fmt.Errorf("task type is required: %w", domain.ErrInvalidInput)
	}
	if err := checkTaskTypes([]domain.Task{t}); err != nil {
		return t, err
	}
	if t.EveryDays < 1 {
		return t, fmt.Errorf("task cadence must be at least one day: %w", domain.ErrInvalidInput)
	}
	if t.LastDone != "" {
		if _, ok := domain.ParseDate(t.LastDone, time.UTC); !ok {
			return t, fmt.Errorf("invalid last-done date %q: %w", t.LastDone, domain.ErrInvalidInput)
		}
	}
	t.NextDue = ""
	return t, nil
}

// CompleteTask marks the task at index done today.
func (s *PlantService) CompleteTask(ctx context.Context, id string, index int) (*domain.Plant, error) {
	return s.update(ctx, id, func(p *domain.Plant, now time.Time) error {
		if err := taskIndex(p, index); err != nil {
			return err
		}
		today := domain.FormatDate(now)
		p.Tasks[index].LastDone = today
		p.History = p.History.Append(domain.HistoryEvent{
			Type: domain.HistoryTaskPrefix + p.Tasks[index].Type,
			At:   today,
		})
		return nil
	})
}

func (s *PlantService) AddTask(ctx context.Context, id string, t domain.Task) (*domain.Plant, error) {
	t, err := validateTask(t)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		p.Tasks = append(p.Tasks, t)
		return nil
	})
}

func (s *PlantService) UpdateTask(ctx context.Context, id string, index int, t domain.Task) (*domain.Plant, error) {
	t, err := validateTask(t)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		if err := taskIndex(p, index); err != nil {
			return err
		}
		p.Tasks[index] = t
		return nil
	})
}

func (s *PlantService) RemoveTask(ctx context.Context, id string, index int) (*domain.Plant, error) {
	return s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		if err := taskIndex(p, index); err != nil {
			return err
		}
		p.Tasks = append(p.Tasks[:index], p.Tasks[index+1:]...)
		return nil
	})
}

// ObservationInput is a new note or photo. A photo is recorded when Data is
// non-empty.
type ObservationInput struct {
	Note     string
	Data     []byte
	MimeType string
}

// AddObservation stores the photo blob, if any, appends the observation and
// logs an observe event. The first photo becomes the cover.
func (s *PlantService) AddObservation(ctx context.Context, id string, in ObservationInput) (*domain.Plant, *domain.Observation, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" && len(in.Data) == 0 {
		return nil, nil, fmt.Errorf("observation needs a note or a photo: %w", domain.ErrInvalidInput)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, nil, err
	}

	obs := domain.Observation{
		ID:   domain.NewID(),
		At:   domain.FormatTimestamp(s.now()),
		Type: domain.ObservationNote,
		Note: note,
	}
	if len(in.Data) > 0 {
		fileID, err := s.repo.PutFile(ctx, in.MimeType, in.Data)
		if err != nil {
			return nil, nil, err
		}
		obs.Type = domain.ObservationPhoto
		obs.FileID = fileID
		s.logger.Info("photo stored", "plant_id", id, "file_id", fileID, "size", humanize.Bytes(uint64(len(in.Data))))
	}

	p, err := s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		p.Observations = append(p.Observations, obs)
		p.History = p.History.Append(domain.HistoryEvent{Type: domain.HistoryObserve, At: obs.At})
		if p.CoverFileID == "" && obs.FileID != "" {
			p.CoverFileID = obs.FileID
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p, &obs, nil
}

// SetCover points the plant's cover at the photo of observationID. An empty
// observationID clears the cover.
func (s *PlantService) SetCover(ctx context.Context, id, observationID string) (*domain.Plant, error) {
	return s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		if observationID == "" {
			p.CoverFileID = ""
			return nil
		}
		i := p.FindObservation(observationID)
		if i < 0 {
			return fmt.Errorf("observation %s: %w", observationID, domain.ErrNotFound)
		}
		if p.Observations[i].FileID == "" {
			return fmt.Errorf("observation %s has no photo: %w", observationID, domain.ErrInvalidInput)
		}
		p.CoverFileID = p.Observations[i].FileID
		return nil
	})
}

// GetFile returns a stored photo.
func (s *PlantService) GetFile(ctx context.Context, fileID string) ([]byte, string, error) {
	return s.repo.GetFile(ctx, fileID)
}

func (s *PlantService) SetWeatherOverride(ctx context.Context, id string, tempC, rh float64) (*domain.Plant, error) {
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) || math.IsNaN(rh) || math.IsInf(rh, 0) {
		return nil, fmt.Errorf("weather readings must be finite: %w", domain.ErrInvalidInput)
	}
	return s.update(ctx, id, func(p *domain.Plant, now time.Time) error {
		rh = math.Max(0, math.Min(100, rh))
		p.WeatherOverride = &domain.WeatherOverride{
			TempC:     &tempC,
			RH:        &rh,
			FetchedAt: domain.FormatTimestamp(now),
		}
		return nil
	})
}

func (s *PlantService) ClearWeatherOverride(ctx context.Context, id string) (*domain.Plant, error) {
	return s.update(ctx, id, func(p *domain.Plant, _ time.Time) error {
		p.WeatherOverride = nil
		return nil
	})
}

// RefreshWeather pins current conditions at lat/lon on the plant. Indoor
// plants read 2 °C cooler and 10 points more humid than outside. The boolean
// is false when no weather was available; the plant is then unchanged.
func (s *PlantService) RefreshWeather(ctx context.Context, id string, lat, lon float64) (*domain.Plant, bool, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if s.advisors.Weather == nil {
		return p, false, nil
	}
	c, ok := advisor.Lookup(ctx, s.logger, "weather", func(ctx context.Context) (*advisor.Conditions, error) {
		return s.advisors.Weather.Current(ctx, lat, lon)
	})
	if !ok || c == nil || !finite(c.TempC) || !finite(c.RH) {
		return p, false, nil
	}

	tempC, rh := c.TempC, c.RH
	if p.InOut != domain.Outdoor {
		tempC -= 2
		rh = math.Min(100, rh+10)
	}
	p, err = s.SetWeatherOverride(ctx, id, tempC, rh)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// RefreshSettingsWeather stores current conditions as the global ambient
// temperature and humidity.
func (s *PlantService) RefreshSettingsWeather(ctx context.Context, lat, lon float64) (domain.Settings, bool, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, false, err
	}
	if s.advisors.Weather == nil {
		return settings, false, nil
	}
	c, ok := advisor.Lookup(ctx, s.logger, "weather", func(ctx context.Context) (*advisor.Conditions, error) {
		return s.advisors.Weather.Current(ctx, lat, lon)
	})
	if !ok || c == nil || !finite(c.TempC) || !finite(c.RH) {
		return settings, false, nil
	}
	tempC, rh := c.TempC, c.RH
	settings.TempC, settings.RH = &tempC, &rh
	if err := s.settings.Save(ctx, settings); err != nil {
		return domain.Settings{}, false, err
	}
	return settings, true, nil
}

// SuggestTaxonomy returns candidates for name, or none when no suggester is
// configured or it fails.
func (s *PlantService) SuggestTaxonomy(ctx context.Context, name string) []advisor.Taxon {
	name = strings.TrimSpace(name)
	if s.advisors.Taxonomy == nil || name == "" {
		return []advisor.Taxon{}
	}
	taxa, ok := advisor.Lookup(ctx, s.logger, "taxonomy", func(ctx context.Context) ([]advisor.Taxon, error) {
		return s.advisors.Taxonomy.SuggestTaxonomy(ctx, name)
	})
	if !ok || taxa == nil {
		return []advisor.Taxon{}
	}
	return taxa
}

// CarePlan asks the planner for a plan without touching any plant.
func (s *PlantService) CarePlan(ctx context.Context, req advisor.CarePlanRequest) (*advisor.CarePlan, bool) {
	if s.advisors.Planner == nil || strings.TrimSpace(req.Name) == "" {
		return nil, false
	}
	plan, ok := advisor.Lookup(ctx, s.logger, "care-plan", func(ctx context.Context) (*advisor.CarePlan, error) {
		return s.advisors.Planner.CarePlan(ctx, req)
	})
	return plan, ok && plan != nil
}

// ApplyCarePlan asks the planner about the plant and merges the answer. The
// boolean is false when no plan was available; the plant is then unchanged.
func (s *PlantService) ApplyCarePlan(ctx context.Context, id string) (*domain.Plant, bool, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	plan, ok := s.CarePlan(ctx, advisor.CarePlanRequest{
		Name:      p.Name,
		InOut:     p.InOut,
		Exposure:  p.Exposure,
		PotSizeIn: p.PotSizeIn,
	})
	if !ok {
		return p, false, nil
	}
	MergeCarePlan(p, plan)
	if err := s.save(ctx, p); err != nil {
		return nil, false, err
	}
	s.logger.Info("care plan applied", "plant_id", id, "interval_days", p.IntervalDays, "tasks", len(p.Tasks))
	return p, true, nil
}

// MergeCarePlan fills blank taxonomy and notes, adds task types the plant
// does not have yet and adopts the plan's light, soil, interval and pot
// diameter when the plan supplies them.
func MergeCarePlan(p *domain.Plant, plan *advisor.CarePlan) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.Family, plan.Family)
	fill(&p.Genus, plan.Genus)
	fill(&p.Species, plan.Species)
	fill(&p.Cultivar, plan.Cultivar)
	fill(&p.Notes, plan.CareSummary)

	if plan.LightLevel != "" {
		p.LightLevel = plan.LightLevel
	}
	if plan.SoilType != "" {
		p.SoilType = plan.SoilType
	}
	if plan.BaseIntervalDays >= 1 {
		p.IntervalDays = plan.BaseIntervalDays
	}
	if plan.PotDiameterIn > 0 && p.PotSizeIn <= 0 {
		p.PotSizeIn = plan.PotDiameterIn
	}

	have := map[string]bool{}
	for _, t := range p.Tasks {
		have[t.Type] = true
	}
	for _, t := range plan.Tasks {
		if have[t.Type] {
			continue
		}
		have[t.Type] = true
		p.Tasks = append(p.Tasks, domain.Task{Type: t.Type, EveryDays: t.EveryDays})
	}
}

func (s *PlantService) LoadSettings(ctx context.Context) (domain.Settings, error) {
	return s.settings.Load(ctx)
}

// SaveSettings normalizes and persists settings. Cached due dates are
// recomputed on the next read.
func (s *PlantService) SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings.Normalize()
	if err := s.settings.Save(ctx, settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
