package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptySounding is returned when no levels survive loading or filtering.
	ErrEmptySounding = errors.New("sounding has no levels")

	// ErrPressureOrder is returned when pressures are missing or not strictly decreasing.
	ErrPressureOrder = errors.New("sounding pressures must be strictly decreasing")

	// ErrMissingSurface is returned when the surface level lacks temperature or dewpoint.
	ErrMissingSurface = errors.New("surface level is missing temperature or dewpoint")

	// ErrUnitMismatch is returned when a column is tagged with an unexpected unit.
	ErrUnitMismatch = errors.New("unexpected unit")
)

// Unit tags the physical unit of a sounding column.
type Unit string

const (
	HectoPascal Unit = "hPa"
	Meter       Unit = "m"
	Celsius     Unit = "degC"
	Degree      Unit = "deg"
	Knot        Unit = "knot"
)

// Field names a sounding column.
type Field string

const (
	FieldPressure    Field = "pressure"
	FieldHeight      Field = "height"
	FieldTemperature Field = "temperature"
	FieldDewpoint    Field = "dewpoint"
	FieldDirection   Field = "direction"
	FieldSpeed       Field = "speed"
)

// Units maps each column to its unit.
type Units map[Field]Unit

// StandardUnits is the unit set of the Wyoming text format.
func StandardUnits() Units {
	return Units{
		FieldPressure:    HectoPascal,
		FieldHeight:      Meter,
		FieldTemperature: Celsius,
		FieldDewpoint:    Celsius,
		FieldDirection:   Degree,
		FieldSpeed:       Knot,
	}
}

// Require returns ErrUnitMismatch if field is not tagged with want.
func (u Units) Require(field Field, want Unit) error {
	if got := u[field]; got != want {
		return fmt.Errorf("%w: %s is %q, want %q", ErrUnitMismatch, field, got, want)
	}
	return nil
}

// Level is one observation in a sounding. Missing values are NaN.
type Level struct {
	Pressure    float64 // hPa
	Height      float64 // m
	Temperature float64 // °C
	Dewpoint    float64 // °C
	Direction   float64 // degrees, wind blowing from
	Speed       float64 // knots
}

// HasWind reports whether both direction and speed are present.
func (l Level) HasWind() bool {
	return !math.IsNaN(l.Direction) && !math.IsNaN(l.Speed)
}

// observed reports whether any of temperature, dewpoint, direction or speed is present.
func (l Level) observed() bool {
	return !math.IsNaN(l.Temperature) || !math.IsNaN(l.Dewpoint) ||
		!math.IsNaN(l.Direction) || !math.IsNaN(l.Speed)
}

// Sounding is an ordered set of levels, surface first.
type Sounding struct {
	Source string
	Units  Units
	Levels []Level
}

// Pressures returns the pressure column.
func (s Sounding) Pressures() []float64 {
	out := make([]float64, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = l.Pressure
	}
	return out
}

// Temperatures returns the temperature column.
func (s Sounding) Temperatures() []float64 {
	out := make([]float64, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = l.Temperature
	}
	return out
}

// Dewpoints returns the dewpoint column.
func (s Sounding) Dewpoints() []float64 {
	out := make([]float64, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = l.Dewpoint
	}
	return out
}

// Surface returns the first level. It is only meaningful after Validate.
func (s Sounding) Surface() Level {
	return s.Levels[0]
}

// Filter drops levels where temperature, dewpoint, direction and speed are
// all missing. Partially observed levels are kept and order is preserved.
func Filter(s Sounding) Sounding {
	kept := make([]Level, 0, len(s.Levels))
	for _, l := range s.Levels {
		if l.observed() {
			kept = append(kept, l)
		}
	}
	return Sounding{Source: s.Source, Units: s.Units, Levels: kept}
}

// Validate checks that the sounding can be lifted from its first level:
// pressures are present and strictly decreasing, and the surface has
// temperature and dewpoint.
func (s Sounding) Validate() error {
	if len(s.Levels) == 0 {
		return ErrEmptySounding
	}
	prev := math.Inf(1)
	for i, l := range s.Levels {
		if math.IsNaN(l.Pressure) || l.Pressure <= 0 {
			return fmt.Errorf("%w: level %d has pressure %v", ErrPressureOrder, i, l.Pressure)
		}
		if l.Pressure >= prev {
			return fmt.Errorf("%w: level %d (%.1f hPa) follows %.1f hPa", ErrPressureOrder, i, l.Pressure, prev)
		}
		prev = l.Pressure
	}
	sfc := s.Levels[0]
	if math.IsNaN(sfc.Temperature) || math.IsNaN(sfc.Dewpoint) {
		return ErrMissingSurface
	}
	return nil
}
