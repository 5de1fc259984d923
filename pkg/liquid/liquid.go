package liquid

import (
	"math"

	pkgerrors "github.com/pkg/errors"
)

// Definition is a named liquid with one calibration curve per physical
// property. It is what gets stored in the config file and sent over the
// daemon API. Handling, when set, overrides the parameters that would
// otherwise be derived from the interpolated properties.
type Definition struct {
	Name           string    `json:"name"`
	VaporPressure  Curve     `json:"vaporPressure"`
	Density        Curve     `json:"density"`
	SurfaceTension Curve     `json:"surfaceTension"`
	Viscosity      Curve     `json:"viscosity"`
	Handling       *Handling `json:"handling,omitempty"`
}

// Validate checks every calibration curve of the definition.
func (d Definition) Validate() error {
	if d.Name == "" {
		return pkgerrors.New("liquid name cannot be empty")
	}

	for _, p := range []struct {
		name  string
		curve Curve
	}{
		{"vapor pressure", d.VaporPressure},
		{"density", d.Density},
		{"surface tension", d.SurfaceTension},
		{"viscosity", d.Viscosity},
	} {
		if err := p.curve.Validate(); err != nil {
			return pkgerrors.Wrapf(err, "%s of %q", p.name, d.Name)
		}
	}

	return nil
}

// Properties holds the property values of a liquid estimated at a single
// query temperature.
type Properties struct {
	Temperature    float64 `json:"temperature"`
	VaporPressure  float64 `json:"vaporPressure"`
	Density        float64 `json:"density"`
	SurfaceTension float64 `json:"surfaceTension"`
	Viscosity      float64 `json:"viscosity"`
}

// Liquid is an immutable aggregate: a definition evaluated at a lab
// temperature. All properties are computed once at construction and share
// the same query temperature; each has its own independent calibration pair.
type Liquid struct {
	Name           string     `json:"name"`
	LabTemperature float64    `json:"labTemperature"`
	Properties     Properties `json:"properties"`
	Handling       Handling   `json:"handling"`
}

// New evaluates a definition at the given lab temperature. It fails if any
// curve is invalid or the lab temperature is not finite.
func New(def Definition, labTemperature float64) (*Liquid, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(labTemperature) || math.IsInf(labTemperature, 0) {
		return nil, pkgerrors.Wrapf(ErrNonFiniteInput, "lab temperature")
	}

	props := Properties{Temperature: labTemperature}

	for _, p := range []struct {
		curve Curve
		out   *float64
	}{
		{def.VaporPressure, &props.VaporPressure},
		{def.Density, &props.Density},
		{def.SurfaceTension, &props.SurfaceTension},
		{def.Viscosity, &props.Viscosity},
	} {
		v, err := p.curve.ValueAt(labTemperature)
		if err != nil {
			// Validate already caught everything Interpolate can reject.
			return nil, err
		}
		*p.out = v
	}

	handling := DeriveHandling(props)
	if def.Handling != nil {
		handling = *def.Handling
	}

	return &Liquid{
		Name:           def.Name,
		LabTemperature: labTemperature,
		Properties:     props,
		Handling:       handling,
	}, nil
}

// NewTwoPoint builds a liquid from raw property values measured at the
// standard 20°C and 25°C reference temperatures.
func NewTwoPoint(name string, vp20, vp25, density20, density25, st20, st25, visc20, visc25, labTemperature float64) (*Liquid, error) {
	return New(Definition{
		Name:           name,
		VaporPressure:  TwoPoint(vp20, vp25),
		Density:        TwoPoint(density20, density25),
		SurfaceTension: TwoPoint(st20, st25),
		Viscosity:      TwoPoint(visc20, visc25),
	}, labTemperature)
}
