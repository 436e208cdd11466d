// Package schedule turns plant attributes, user settings and care history
// into watering and task due dates. Every function is pure: the current time
// is always passed in.
package schedule

import (
	"math"

	"github.com/vbonduro/plantcare/internal/domain"
)

// IntervalMultiplier scales the base interval by pot size and light level.
// Small pots and bright light dry out faster. When potSize is empty the
// category is derived from diameterIn.
func IntervalMultiplier(light domain.LightLevel, potSize domain.PotSize, diameterIn float64) float64 {
	if potSize == "" {
		potSize = domain.PotCategoryFromInches(diameterIn)
	}

	pot := 1.0
	switch potSize {
	case domain.PotTiny:
		pot = 0.7
	case domain.PotSmall:
		pot = 0.85
	case domain.PotLarge:
		pot = 1.1
	case domain.PotHuge:
		pot = 1.25
	}

	lightFactor := 1.0
	switch light {
	case domain.LightLow:
		lightFactor = 1.1
	case domain.LightHigh:
		lightFactor = 0.9
	}

	return clamp(pot*lightFactor, 0.5, 1.5)
}

// MicroEnvironmentMultiplier accounts for soil, placement and exposure.
func MicroEnvironmentMultiplier(p *domain.Plant) float64 {
	m := 1.0
	switch p.SoilType {
	case domain.SoilCactus:
		m *= 1.2
	case domain.SoilAroid:
		m *= 0.95
	}
	if p.InOut == domain.Outdoor {
		m *= 0.95
	}
	switch p.Exposure {
	case domain.ExposureSouth, domain.ExposureWest:
		m *= 0.95
	case domain.ExposureNorth:
		m *= 1.05
	}
	return clamp(m, 0.8, 1.3)
}

// SeasonalMultiplier combines the season with a drying factor derived from
// temperature and humidity. The plant override wins over the global
// settings; with neither available the drying factor is neutral.
func SeasonalMultiplier(s domain.Settings, override *domain.WeatherOverride) float64 {
	season := 1.0
	switch s.Season {
	case domain.SeasonPeak:
		season = 0.9
	case domain.SeasonDormant:
		season = 1.2
	}

	tc, rh, ok := climate(s, override)
	if !ok {
		return season
	}
	return season * VPDFactor(tc, rh)
}

func climate(s domain.Settings, override *domain.WeatherOverride) (float64, float64, bool) {
	tc, tcOK := math.NaN(), false
	rh, rhOK := math.NaN(), false
	if s.TempC != nil && finite(*s.TempC) {
		tc, tcOK = *s.TempC, true
	}
	if s.RH != nil && finite(*s.RH) {
		rh, rhOK = *s.RH, true
	}
	if override != nil {
		if override.TempC != nil && finite(*override.TempC) {
			tc, tcOK = *override.TempC, true
		}
		if override.RH != nil && finite(*override.RH) {
			rh, rhOK = *override.RH, true
		}
	}
	return tc, rh, tcOK && rhOK
}

// VPD returns the vapor pressure deficit in kPa using the Tetens formula.
func VPD(tempC, rh float64) float64 {
	rh = clamp(rh, 0, 100)
	svp := 0.6108 * math.Exp((17.27*tempC)/(tempC+237.3))
	return svp * (1 - rh/100)
}

// VPDFactor maps a vapor pressure deficit onto [0.75, 1.15]; 0.8 kPa is
// neutral and drier air shortens the interval.
func VPDFactor(tempC, rh float64) float64 {
	if !finite(tempC) || !finite(rh) {
		return 1.0
	}
	return clamp(1.0-(VPD(tempC, rh)-0.8)*0.3, 0.75, 1.15)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
