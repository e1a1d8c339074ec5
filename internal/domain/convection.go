package domain

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/integrate"
)

// RegionKind distinguishes positive (CAPE) from negative (CIN) buoyancy areas.
type RegionKind string

const (
	RegionCAPE RegionKind = "cape"
	RegionCIN  RegionKind = "cin"
)

// RegionPoint is one vertex of a shaded region.
type RegionPoint struct {
	Pressure float64 `json:"pressure_hpa"`
	Ambient  float64 `json:"ambient_c"`
	Parcel   float64 `json:"parcel_c"`
}

// Region is a contiguous span of the column where the parcel is warmer
// (CAPE) or colder (CIN) than its environment. Points run surface to top.
type Region struct {
	Kind   RegionKind    `json:"kind"`
	Points []RegionPoint `json:"points"`
}

// Convection summarizes the buoyancy of the lifted parcel.
// LFC and EL are nil when the parcel never becomes buoyant above the LCL.
type Convection struct {
	LFC     *float64 `json:"lfc_hpa,omitempty"`
	EL      *float64 `json:"el_hpa,omitempty"`
	CAPE    float64  `json:"cape_jkg"`
	CIN     float64  `json:"cin_jkg"`
	Regions []Region `json:"regions"`
}

// buoyancyEpsilon (K) is the parcel-ambient difference treated as neutral.
const buoyancyEpsilon = 1e-9

// column is the buoyancy profile with the LCL and zero crossings inserted, surface first.
type column struct {
	p       []float64
	ambient []float64
	parcel  []float64
}

func (c column) diff(i int) float64 { return c.parcel[i] - c.ambient[i] }

func (c *column) add(p, ambient, parcel float64) {
	c.p = append(c.p, p)
	c.ambient = append(c.ambient, ambient)
	c.parcel = append(c.parcel, parcel)
}

// buildColumn drops levels without an ambient temperature, inserts the LCL
// between the levels that bracket it, and inserts a vertex wherever parcel
// and ambient cross. Interpolation is linear in ln p.
func buildColumn(pressures, ambient, parcel []float64, lcl LCLPoint) column {
	var levels column
	for i := range pressures {
		if math.IsNaN(ambient[i]) || math.IsNaN(parcel[i]) {
			continue
		}
		if n := len(levels.p); n > 0 && levels.p[n-1] > lcl.Pressure && lcl.Pressure > pressures[i] {
			f := lnpFraction(levels.p[n-1], pressures[i], lcl.Pressure)
			levels.add(lcl.Pressure, lerp(levels.ambient[n-1], ambient[i], f), lcl.Temperature)
		}
		levels.add(pressures[i], ambient[i], parcel[i])
	}

	var c column
	for i := range levels.p {
		if i > 0 {
			d0, d1 := levels.diff(i-1), levels.diff(i)
			if signOf(d0)*signOf(d1) < 0 {
				f := d0 / (d0 - d1)
				t := lerp(levels.ambient[i-1], levels.ambient[i], f)
				c.add(math.Exp(lerp(math.Log(levels.p[i-1]), math.Log(levels.p[i]), f)), t, t)
			}
		}
		c.add(levels.p[i], levels.ambient[i], levels.parcel[i])
	}
	return c
}

// lnpFraction is where p lies between p0 and p1 in ln p, as a fraction of the interval.
func lnpFraction(p0, p1, p float64) float64 {
	return (math.Log(p) - math.Log(p0)) / (math.Log(p1) - math.Log(p0))
}

func lerp(a, b, f float64) float64 { return a + f*(b-a) }

// Buoyancy computes LFC, EL, CAPE, CIN and the shaded regions for a parcel
// profile lifted through ambient temperatures at pressures (surface first).
func Buoyancy(pressures, ambient, parcel []float64, lcl LCLPoint) Convection {
	c := buildColumn(pressures, ambient, parcel, lcl)
	out := Convection{Regions: []Region{}}
	if len(c.p) < 2 {
		return out
	}

	lfcIdx := -1
	for i := range c.p {
		if c.p[i] < lcl.Pressure && signOf(c.diff(i)) > 0 {
			lfcIdx = i
			break
		}
	}
	if lfcIdx >= 0 {
		// The vertex below the first buoyant level is either the crossing or
		// the LCL itself, in which case free convection starts at the LCL.
		lfc := math.Min(c.p[lfcIdx-1], lcl.Pressure)
		elIdx := len(c.p) - 1
		for elIdx > lfcIdx && signOf(c.diff(elIdx)) <= 0 {
			elIdx--
		}
		el := c.p[elIdx]
		if elIdx+1 < len(c.p) {
			el = c.p[elIdx+1]
		}
		out.LFC, out.EL = &lfc, &el

		out.CAPE = math.Max(0, layerIntegral(c, el, lfc, math.Inf(1)))
		out.CIN = layerIntegral(c, lfc, c.p[0], 0)
	}
	out.Regions = regions(c, out.LFC)
	return out
}

// layerIntegral returns Rd ∫ min(Tp − Te, ceil) d ln p over top ≤ p ≤ bottom in J/kg.
func layerIntegral(c column, top, bottom, ceil float64) float64 {
	var lnp, d []float64
	for i := range c.p {
		if c.p[i] <= bottom+1e-9 && c.p[i] >= top-1e-9 {
			lnp = append(lnp, math.Log(c.p[i]))
			d = append(d, math.Min(c.diff(i), ceil))
		}
	}
	if len(lnp) < 2 {
		return 0
	}
	// Trapezoidal wants ascending abscissae; the column runs from high to low pressure.
	slices.Reverse(lnp)
	slices.Reverse(d)
	return Rd * integrate.Trapezoidal(lnp, d)
}

// regions groups the column into same-signed runs bounded by crossings.
// Positive runs are CAPE from the LFC up; nothing positive is shaded without
// an LFC. Negative runs are CIN below the LFC, or everywhere when there is none.
func regions(c column, lfc *float64) []Region {
	out := []Region{}
	var run []RegionPoint
	sign := 0
	emit := func() {
		if sign == 0 || len(run) < 2 {
			return
		}
		if sign < 0 {
			if lfc != nil && run[0].Pressure <= *lfc {
				return
			}
			out = append(out, Region{Kind: RegionCIN, Points: run})
			return
		}
		if lfc == nil {
			return
		}
		// A buoyant layer may start below the LFC when free convection begins at the LCL.
		start := 0
		for start < len(run) && run[start].Pressure > *lfc+1e-9 {
			start++
		}
		if len(run)-start >= 2 {
			out = append(out, Region{Kind: RegionCAPE, Points: run[start:]})
		}
	}
	for i := range c.p {
		pt := RegionPoint{Pressure: c.p[i], Ambient: c.ambient[i], Parcel: c.parcel[i]}
		s := signOf(c.diff(i))
		switch {
		case s == 0:
			if sign != 0 {
				run = append(run, pt)
				emit()
			}
			run, sign = []RegionPoint{pt}, 0
		case s == sign:
			run = append(run, pt)
		default:
			if sign != 0 {
				emit()
				run = nil
			}
			run = append(run, pt)
			sign = s
		}
	}
	emit()
	return out
}

func signOf(v float64) int {
	switch {
	case v > buoyancyEpsilon:
		return 1
	case v < -buoyancyEpsilon:
		return -1
	default:
		return 0
	}
}
