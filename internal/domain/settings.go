package domain

import "math"

type Season string

const (
	SeasonGrowing Season = "growing"
	SeasonPeak    Season = "peak"
	SeasonDormant Season = "dormant"
)

// SettingsKey is the well-known key under which Settings are persisted.
const SettingsKey = "plant-settings"

// Settings are process-wide user preferences. Ambient temperature and
// humidity are optional; nil means unknown.
type Settings struct {
	Season      Season   `json:"season,omitempty"`
	TempC       *float64 `json:"tempC,omitempty"`
	RH          *float64 `json:"rh,omitempty"`
	PlantsView  string   `json:"plantsView,omitempty"`
	TaskType    string   `json:"taskType,omitempty"`
	TaskWindow  int      `json:"taskWindow,omitempty"`
	OnlyOverdue bool     `json:"onlyOverdue,omitempty"`
	Theme       string   `json:"theme,omitempty"`
}

const (
	TaskFilterAll   = "all"
	TaskFilterWater = "water"
	TaskFilterOther = "other"
)

func DefaultSettings() Settings {
	return Settings{
		Season:     SeasonGrowing,
		PlantsView: "cards",
		TaskType:   TaskFilterAll,
		TaskWindow: 7,
	}
}

// Normalize fills missing keys with their defaults and drops non-finite
// climate readings.
func (s *Settings) Normalize() {
	d := DefaultSettings()
	if s.Season != SeasonGrowing && s.Season != SeasonPeak && s.Season != SeasonDormant {
		s.Season = d.Season
	}
	if s.PlantsView != "cards" && s.PlantsView != "rows" {
		s.PlantsView = d.PlantsView
	}
	if s.TaskType != TaskFilterAll && s.TaskType != TaskFilterWater && s.TaskType != TaskFilterOther {
		s.TaskType = d.TaskType
	}
	if s.TaskWindow <= 0 {
		s.TaskWindow = d.TaskWindow
	}
	if s.TempC != nil && !finite(*s.TempC) {
		s.TempC = nil
	}
	if s.RH != nil && !finite(*s.RH) {
		s.RH = nil
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
