package domain

import (
	"errors"
	"fmt"
	"math"
)

const (
	Rd      = 287.04749 // J/(kg·K), dry air gas constant
	Rv      = 461.52    // J/(kg·K), water vapor gas constant
	Cpd     = 1004.6662 // J/(kg·K), dry air specific heat at constant pressure
	Lv      = 2.50084e6 // J/kg, latent heat of vaporization
	Epsilon = Rd / Rv
	Kappa   = Rd / Cpd

	ZeroCelsius = 273.15
	// ReferencePressure is the 1000 hPa level used for potential temperature.
	ReferencePressure = 1000.0

	satPressure0 = 6.112 // hPa at 0 °C

	lclMaxIterations = 50
	lclTolerance     = 1e-5

	// moistStep caps the Runge-Kutta step along a moist adiabat.
	moistStep = 5.0 // hPa
)

// ErrLCLNotConverged is returned when the LCL iteration does not settle.
var ErrLCLNotConverged = errors.New("lcl iteration did not converge")

// LCLPoint is the pressure (hPa) and temperature (°C) at which a lifted
// surface parcel saturates.
type LCLPoint struct {
	Pressure    float64 `json:"pressure_hpa"`
	Temperature float64 `json:"temperature_c"`
}

// SaturationVaporPressure returns es (hPa) over liquid water at t (°C).
func SaturationVaporPressure(t float64) float64 {
	return satPressure0 * math.Exp(17.67*t/(t+243.5))
}

// DewpointFromVaporPressure inverts SaturationVaporPressure, returning °C.
func DewpointFromVaporPressure(e float64) float64 {
	v := math.Log(e / satPressure0)
	return 243.5 * v / (17.67 - v)
}

// MixingRatio returns the mass mixing ratio (kg/kg) for vapor pressure e at total pressure p (both hPa).
func MixingRatio(e, p float64) float64 {
	return Epsilon * e / (p - e)
}

// SaturationMixingRatio returns the saturation mixing ratio (kg/kg) at p (hPa) and t (°C).
func SaturationMixingRatio(p, t float64) float64 {
	return MixingRatio(SaturationVaporPressure(t), p)
}

// VaporPressure returns the partial pressure of water vapor (hPa) for mixing ratio w at p.
func VaporPressure(p, w float64) float64 {
	return p * w / (Epsilon + w)
}

// DryAdiabat returns the temperature (°C) at p of a parcel lifted dry-adiabatically from (p0, t0).
func DryAdiabat(p, p0, t0 float64) float64 {
	return (t0+ZeroCelsius)*math.Pow(p/p0, Kappa) - ZeroCelsius
}

// PotentialTemperature returns θ (K) for t (°C) at p (hPa).
func PotentialTemperature(p, t float64) float64 {
	return (t + ZeroCelsius) * math.Pow(ReferencePressure/p, Kappa)
}

// moistLapse is dT/dp (K/hPa) along a pseudo-adiabat at p (hPa), tk (K).
func moistLapse(p, tk float64) float64 {
	rs := SaturationMixingRatio(p, tk-ZeroCelsius)
	frac := (Rd*tk + Lv*rs) / (Cpd + Lv*Lv*rs*Epsilon/(Rd*tk*tk))
	return frac / p
}

// moistStepTo integrates the pseudo-adiabat from (p0, t0 K) to p1 and returns the temperature in K.
func moistStepTo(p0, t0, p1 float64) float64 {
	n := int(math.Ceil(math.Abs(p1-p0) / moistStep))
	if n == 0 {
		return t0
	}
	h := (p1 - p0) / float64(n)
	p, t := p0, t0
	for range n {
		k1 := moistLapse(p, t)
		k2 := moistLapse(p+h/2, t+h/2*k1)
		k3 := moistLapse(p+h/2, t+h/2*k2)
		k4 := moistLapse(p+h, t+h*k3)
		t += h / 6 * (k1 + 2*k2 + 2*k3 + k4)
		p += h
	}
	return t
}

// MoistAdiabat returns the temperature (°C) at each of pressures along the
// pseudo-adiabat through (p0, t0). Pressures are visited in order, so a
// monotonic slice is integrated in one sweep.
func MoistAdiabat(pressures []float64, p0, t0 float64) []float64 {
	out := make([]float64, len(pressures))
	p, tk := p0, t0+ZeroCelsius
	for i, target := range pressures {
		tk = moistStepTo(p, tk, target)
		p = target
		out[i] = tk - ZeroCelsius
	}
	return out
}

// LCL computes the lifted condensation level of a parcel starting at
// pressure p (hPa) with temperature t and dewpoint td (°C).
func LCL(p, t, td float64) (LCLPoint, error) {
	if td > t {
		td = t
	}
	w := MixingRatio(SaturationVaporPressure(td), p)
	tk := t + ZeroCelsius

	next := func(pi float64) float64 {
		tdk := DewpointFromVaporPressure(VaporPressure(pi, w)) + ZeroCelsius
		return p * math.Pow(tdk/tk, 1/Kappa)
	}

	pi := p
	for range lclMaxIterations {
		pn := next(pi)
		if math.IsNaN(pn) {
			break
		}
		if math.Abs(pn-pi) <= lclTolerance*math.Abs(pi) {
			// Guard the bound against round-off in the last step.
			pn = math.Min(pn, p)
			return LCLPoint{
				Pressure:    pn,
				Temperature: math.Min(DewpointFromVaporPressure(VaporPressure(pn, w)), t),
			}, nil
		}
		pi = pn
	}
	return LCLPoint{}, fmt.Errorf("%w: p=%.1f t=%.1f td=%.1f", ErrLCLNotConverged, p, t, td)
}

// ParcelProfile lifts a parcel from the first pressure with temperature t0
// and dewpoint td0 (°C): dry-adiabatically to the LCL, then moist-adiabatically.
// The result has one temperature (°C) per input pressure, in the same order.
func ParcelProfile(pressures []float64, t0, td0 float64) ([]float64, LCLPoint, error) {
	if len(pressures) == 0 {
		return nil, LCLPoint{}, ErrEmptySounding
	}
	p0 := pressures[0]
	lcl, err := LCL(p0, t0, td0)
	if err != nil {
		return nil, LCLPoint{}, err
	}

	out := make([]float64, len(pressures))
	moistP, moistT := lcl.Pressure, lcl.Temperature+ZeroCelsius
	for i, p := range pressures {
		if p >= lcl.Pressure {
			out[i] = DryAdiabat(p, p0, t0)
			continue
		}
		moistT = moistStepTo(moistP, moistT, p)
		moistP = p
		out[i] = moistT - ZeroCelsius
	}
	return out, lcl, nil
}

// Wind is a horizontal wind vector in knots; U is positive eastward, V northward.
type Wind struct {
	U float64 `json:"u_kt"`
	V float64 `json:"v_kt"`
}

// WindComponents resolves a speed and meteorological direction (degrees the
// wind blows from) into (u, v).
func WindComponents(speed, direction float64) (u, v float64) {
	rad := direction * math.Pi / 180
	return -speed * math.Sin(rad), -speed * math.Cos(rad)
}

// WindSpeedDirection is the inverse of WindComponents. Direction is in
// [0, 360); calm winds report direction 0.
func WindSpeedDirection(u, v float64) (speed, direction float64) {
	speed = math.Hypot(u, v)
	if speed == 0 {
		return 0, 0
	}
	direction = math.Mod(math.Atan2(-u, -v)*180/math.Pi+360, 360)
	return speed, direction
}
