package schedule

import (
	"math"

	"github.com/vbonduro/plantcare/internal/domain"
)

// VolumeRange is a suggested watering amount in milliliters.
type VolumeRange struct {
	MinML int `json:"minMl"`
	MaxML int `json:"maxMl"`
}

// EstimateWaterML models the pot as a cylinder 0.9 times as tall as it is
// wide and suggests 10-15% of its volume, scaled by factor clamped to
// [0.7, 1.3]. It reports false for a non-positive diameter.
func EstimateWaterML(diameterIn, factor float64) (VolumeRange, bool) {
	if !(diameterIn > 0) {
		return VolumeRange{}, false
	}
	d := diameterIn * 0.0254
	h := d * 0.9
	volM3 := math.Pi * math.Pow(d/2, 2) * h
	liters := volM3 * 1000
	f := clamp(factor, 0.7, 1.3)
	return VolumeRange{
		MinML: int(math.Round(liters * 1000 * 0.10 * f)),
		MaxML: int(math.Round(liters * 1000 * 0.15 * f)),
	}, true
}

// WaterVolume estimates the watering amount for p using its pot diameter.
func WaterVolume(p *domain.Plant, s domain.Settings) (VolumeRange, bool) {
	factor := SeasonalMultiplier(s, p.WeatherOverride) *
		MicroEnvironmentMultiplier(p) *
		(1 + p.TuneVolumePct/100)
	return EstimateWaterML(p.PotSizeIn, factor)
}
