package liquid

import (
	"errors"
	"math"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrEqualTemperatures is returned when both calibration points share the
	// same temperature, which leaves the slope of the line undefined.
	ErrEqualTemperatures = errors.New("calibration temperatures must differ")

	// ErrNonFiniteInput is returned when a calibration value or temperature
	// is NaN or infinite.
	ErrNonFiniteInput = errors.New("input must be a finite number")
)

const (
	// RefTemperatureLow and RefTemperatureHigh are the standard reference
	// temperatures (°C) at which liquid properties are usually measured.
	RefTemperatureLow  = 20.0
	RefTemperatureHigh = 25.0

	// DefaultLabTemperature is the query temperature (°C) assumed when none
	// is configured.
	DefaultLabTemperature = 22.5
)

// CalibrationPoint is a measured (temperature, value) pair for a physical
// property.
type CalibrationPoint struct {
	Temperature float64 `json:"temperature"`
	Value       float64 `json:"value"`
}

// Curve is the straight line through two calibration points. The two
// temperatures must differ; the points do not have to be ordered.
type Curve struct {
	P1 CalibrationPoint `json:"p1"`
	P2 CalibrationPoint `json:"p2"`
}

// TwoPoint returns a Curve through values measured at the standard reference
// temperatures (20°C and 25°C).
func TwoPoint(low, high float64) Curve {
	return Curve{
		P1: CalibrationPoint{Temperature: RefTemperatureLow, Value: low},
		P2: CalibrationPoint{Temperature: RefTemperatureHigh, Value: high},
	}
}

// Interpolate estimates the value at temperature t of the line through
// (t1, v1) and (t2, v2). Temperatures outside [t1, t2] extrapolate along the
// same line; no clamping is applied, so physical validity of extrapolated
// values is up to the caller.
func Interpolate(t1, v1, t2, v2, t float64) (float64, error) {
	for _, f := range []float64{t1, v1, t2, v2, t} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, ErrNonFiniteInput
		}
	}

	if t1 == t2 {
		return 0, ErrEqualTemperatures
	}

	return v1 + (v2-v1)*(t-t1)/(t2-t1), nil
}

// ValueAt estimates the property value at temperature t.
func (c Curve) ValueAt(t float64) (float64, error) {
	return Interpolate(c.P1.Temperature, c.P1.Value, c.P2.Temperature, c.P2.Value, t)
}

// Validate checks that the curve has finite, distinct calibration
// temperatures and finite values.
func (c Curve) Validate() error {
	if _, err := c.ValueAt(c.P1.Temperature); err != nil {
		return pkgerrors.Wrapf(err, "invalid calibration points (%g, %g), (%g, %g)",
			c.P1.Temperature, c.P1.Value, c.P2.Temperature, c.P2.Value)
	}
	return nil
}
