package liquid

import "math"

// Handling holds the pipetting parameters for a liquid. Speeds are
// fractions of the pipette default (1.0 = unmodified), heights are mm above
// the well bottom, volumes are µL.
type Handling struct {
	TrailingAirGap float64 `json:"trailingAirGap"`
	Blowout        float64 `json:"blowout"`
	PreWet         bool    `json:"preWet"`
	AspirateSpeed  float64 `json:"aspirateSpeed"`
	DispenseSpeed  float64 `json:"dispenseSpeed"`
	AspirateHeight float64 `json:"aspirateHeight"`
	DispenseHeight float64 `json:"dispenseHeight"`
	ScalingFactor  float64 `json:"scalingFactor"`
	Offset         float64 `json:"offset"`
}

// DefaultHandling returns the neutral parameter set: full-speed pipetting
// with pre-wetting and no air gap, blowout, height or volume adjustments.
func DefaultHandling() Handling {
	return Handling{
		PreWet:        true,
		AspirateSpeed: 1.0,
		DispenseSpeed: 1.0,
		ScalingFactor: 1.0,
	}
}

// Derivation bounds. Speeds slow down with viscosity (cP); air gap and
// blowout grow with vapor pressure (mmHg) to counter dripping of volatile
// liquids; pre-wetting is kept for high surface tension (mN/m).
const (
	minAspirateSpeed = 0.2
	minDispenseSpeed = 0.15
	maxAirGap        = 5.0
	maxBlowout       = 10.0
	maxAspHeight     = 2.0
	maxDispHeight    = 1.0

	preWetSurfaceTension = 50.0
)

// DeriveHandling estimates pipetting parameters from the physical
// properties of a liquid at its query temperature.
func DeriveHandling(p Properties) Handling {
	return Handling{
		TrailingAirGap: clamp(p.VaporPressure/500, 0, maxAirGap),
		Blowout:        clamp(p.VaporPressure/250, 0, maxBlowout),
		PreWet:         p.SurfaceTension >= preWetSurfaceTension,
		AspirateSpeed:  clamp(1/(1+0.08*p.Viscosity), minAspirateSpeed, 1),
		DispenseSpeed:  clamp(0.9/(1+0.12*p.Viscosity), minDispenseSpeed, 1),
		AspirateHeight: clamp(0.5+0.1*p.Viscosity, 0, maxAspHeight),
		DispenseHeight: clamp(0.25+0.05*p.Viscosity, 0, maxDispHeight),
		ScalingFactor:  clamp(1+0.02*(p.Viscosity-1), 0.8, 1.2),
		Offset:         math.Max(0.1, 0.05*p.Viscosity),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
