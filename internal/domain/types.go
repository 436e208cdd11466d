package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type LightLevel string

const (
	LightLow    LightLevel = "low"
	LightMedium LightLevel = "medium"
	LightHigh   LightLevel = "high"
)

type PotSize string

const (
	PotTiny   PotSize = "tiny"
	PotSmall  PotSize = "small"
	PotMedium PotSize = "medium"
	PotLarge  PotSize = "large"
	PotHuge   PotSize = "huge"
)

type SoilType string

const (
	SoilGeneric SoilType = "generic"
	SoilAroid   SoilType = "aroid"
	SoilCactus  SoilType = "cactus"
)

type Placement string

const (
	Indoor  Placement = "indoor"
	Outdoor Placement = "outdoor"
)

// Exposure is the compass direction a plant faces; empty means unknown.
type Exposure string

const (
	ExposureNone  Exposure = ""
	ExposureNorth Exposure = "N"
	ExposureEast  Exposure = "E"
	ExposureSouth Exposure = "S"
	ExposureWest  Exposure = "W"
)

const (
	ObservationPhoto = "photo"
	ObservationNote  = "note"
)

const (
	HistoryWater   = "water"
	HistoryObserve = "observe"
	// HistoryTaskPrefix is prepended to a task type, e.g. "task:fertilize".
	HistoryTaskPrefix = "task:"
)

// DefaultIntervalDays is the base watering interval used when a plant has none.
const DefaultIntervalDays = 7

// HistoryCapacity bounds Plant.History; older events are evicted first.
const HistoryCapacity = 200

// WeatherOverride pins the temperature and humidity used for a single plant.
// A nil reading falls back to the matching global setting.
type WeatherOverride struct {
	TempC     *float64 `json:"tempC,omitempty"`
	RH        *float64 `json:"rh,omitempty"`
	FetchedAt string   `json:"fetchedAt,omitempty"`
}

type Task struct {
	Type      string `json:"type"`
	EveryDays int    `json:"everyDays"`
	LastDone  string `json:"lastDone,omitempty"`
	// NextDue is derived on read and never authoritative.
	NextDue string `json:"nextDue,omitempty"`
}

type HistoryEvent struct {
	Type string `json:"type"`
	At   string `json:"at"`
}

// History is an append-only log bounded to HistoryCapacity entries.
type History []HistoryEvent

// Append adds ev and evicts the oldest entries beyond HistoryCapacity.
func (h History) Append(ev HistoryEvent) History {
	h = append(h, ev)
	return h.trim()
}

func (h History) trim() History {
	if len(h) <= HistoryCapacity {
		return h
	}
	out := make(History, HistoryCapacity)
	copy(out, h[len(h)-HistoryCapacity:])
	return out
}

type Observation struct {
	ID     string `json:"id"`
	At     string `json:"at"`
	Type   string `json:"type"`
	Note   string `json:"note,omitempty"`
	FileID string `json:"fileId,omitempty"`
	// ImageData carries an inlined data URL in snapshots only.
	ImageData string `json:"imageData,omitempty"`
}

// Plant is the aggregate root. Field names mirror the persisted and exported
// record shape.
type Plant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Family   string `json:"family"`
	Genus    string `json:"genus"`
	Species  string `json:"species"`
	Cultivar string `json:"cultivar"`

	LightLevel LightLevel `json:"lightLevel"`
	PotSize    PotSize    `json:"potSize"`
	PotSizeIn  float64    `json:"potSizeIn,omitempty"`
	SoilType   SoilType   `json:"soilType"`
	Material   string     `json:"material,omitempty"`
	HasDrain   bool       `json:"hasDrain"`
	InOut      Placement  `json:"inout"`
	Exposure   Exposure   `json:"exposure"`
	RoomLabel  string     `json:"roomLabel,omitempty"`
	Notes      string     `json:"notes,omitempty"`

	IntervalDays    int              `json:"intervalDays"`
	LastWatered     string           `json:"lastWatered"`
	TuneIntervalPct float64          `json:"tuneIntervalPct"`
	TuneVolumePct   float64          `json:"tuneVolumePct"`
	WeatherOverride *WeatherOverride `json:"weatherOverride,omitempty"`

	// NextDue is a cache of the computed watering date.
	NextDue string `json:"nextDue,omitempty"`

	Tasks        []Task        `json:"tasks"`
	History      History       `json:"history"`
	Observations []Observation `json:"observations"`
	CoverFileID  string        `json:"coverFileId,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Normalize applies documented defaults to missing or invalid fields. It is
// idempotent and is applied once at the repository boundary.
func (p *Plant) Normalize(now time.Time) {
	if p.IntervalDays < 1 {
		p.IntervalDays = DefaultIntervalDays
	}
	if !validLight(p.LightLevel) {
		p.LightLevel = LightMedium
	}
	if p.PotSizeIn < 0 {
		p.PotSizeIn = 0
	}
	// A blank category is derived from PotSizeIn wherever it is used.
	if !validPot(p.PotSize) {
		p.PotSize = ""
	}
	if !validSoil(p.SoilType) {
		p.SoilType = SoilGeneric
	}
	if p.InOut != Indoor && p.InOut != Outdoor {
		p.InOut = Indoor
	}
	p.Exposure = Exposure(strings.ToUpper(strings.TrimSpace(string(p.Exposure))))
	if !validExposure(p.Exposure) {
		p.Exposure = ExposureNone
	}
	if _, ok := ParseDate(p.LastWatered, now.Location()); !ok {
		p.LastWatered = FormatDate(now)
	}
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.History == nil {
		p.History = History{}
	}
	p.History = p.History.trim()
	if p.Observations == nil {
		p.Observations = []Observation{}
	}
	for i := range p.Observations {
		p.Observations[i].ImageData = ""
	}
}

// FindObservation returns the index of the observation with id, or -1.
func (p *Plant) FindObservation(id string) int {
	for i := range p.Observations {
		if p.Observations[i].ID == id {
			return i
		}
	}
	return -1
}

// FileIDs lists every blob id referenced by the plant, cover included.
func (p *Plant) FileIDs() []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, o := range p.Observations {
		add(o.FileID)
	}
	add(p.CoverFileID)
	return ids
}

// PotCategoryFromInches maps a pot diameter to a size category. A missing
// diameter is treated as medium.
func PotCategoryFromInches(inches float64) PotSize {
	switch {
	case inches <= 0:
		return PotMedium
	case inches <= 4:
		return PotSmall
	case inches >= 10:
		return PotLarge
	default:
		return PotMedium
	}
}

// NewID returns a fresh opaque identifier for plants and observations.
func NewID() string {
	return uuid.NewString()
}

// NewFileID returns a fresh blob identifier.
func NewFileID() string {
	return "file-" + uuid.NewString()
}

func validLight(l LightLevel) bool {
	return l == LightLow || l == LightMedium || l == LightHigh
}

func validPot(s PotSize) bool {
	switch s {
	case PotTiny, PotSmall, PotMedium, PotLarge, PotHuge:
		return true
	}
	return false
}

func validSoil(s SoilType) bool {
	return s == SoilGeneric || s == SoilAroid || s == SoilCactus
}

func validExposure(e Exposure) bool {
	switch e {
	case ExposureNone, ExposureNorth, ExposureEast, ExposureSouth, ExposureWest:
		return true
	}
	return false
}
