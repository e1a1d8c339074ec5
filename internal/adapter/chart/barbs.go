package chart

import (
	"image/color"
	"math"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Barb geometry relative to the staff length.
const (
	staffLength   = 0.35 * vg.Inch
	barbSpacing   = 0.13 // fraction of the staff between ticks
	barbLength    = 0.4
	barbInset     = 0.3 * vg.Inch // staff base distance from the right edge
	calmThreshold = 2.5           // knots
)

// Glyph counts a wind speed rounds to.
type Glyph struct {
	Flags int // 50 kt
	Full  int // 10 kt
	Half  int // 5 kt
}

// Decompose rounds speed (knots) to the nearest 5 and splits it into barb glyphs.
func Decompose(speed float64) Glyph {
	n := int(math.Round(speed/5)) * 5
	g := Glyph{Flags: n / 50}
	n %= 50
	g.Full = n / 10
	g.Half = (n % 10) / 5
	return g
}

type windLevel struct {
	pressure float64
	speed    float64
	u, v     float64
}

// windLevels pairs each level that has a wind with its components.
func windLevels(s domain.Sounding, winds []domain.Wind) []windLevel {
	var out []windLevel
	for i, l := range s.Levels {
		if i >= len(winds) || !l.HasWind() || math.IsNaN(winds[i].U) {
			continue
		}
		out = append(out, windLevel{pressure: l.Pressure, speed: l.Speed, u: winds[i].U, v: winds[i].V})
	}
	return out
}

// barbs draws a column of wind barbs along the right edge of the data area.
// It implements plot.Plotter.
type barbs struct {
	levels []windLevel
}

func (b *barbs) Plot(c draw.Canvas, plt *plot.Plot) {
	_, trY := plt.Transforms(&c)
	line := draw.LineStyle{Color: color.Black, Width: vg.Points(1)}
	x := c.Max.X - barbInset

	for _, w := range b.levels {
		base := vg.Point{X: x, Y: trY(w.pressure)}
		if !c.Contains(base) {
			continue
		}
		if w.speed < calmThreshold {
			c.DrawGlyph(draw.GlyphStyle{Color: color.Black, Radius: vg.Points(3), Shape: draw.RingGlyph{}}, base)
			continue
		}
		drawBarb(c, line, base, w)
	}
}

// drawBarb draws a staff pointing into the wind with flags and ticks from the tip inward.
func drawBarb(c draw.Canvas, sty draw.LineStyle, base vg.Point, w windLevel) {
	// Unit vector toward where the wind comes from; canvas y grows upward like v.
	speed := math.Hypot(w.u, w.v)
	along := vg.Point{X: vg.Length(-w.u / speed), Y: vg.Length(-w.v / speed)}
	// Ticks sit clockwise of the staff.
	perp := vg.Point{X: along.Y, Y: -along.X}

	at := func(d vg.Length) vg.Point { return base.Add(along.Scale(d)) }
	tip := at(staffLength)
	c.StrokeLine2(sty, base.X, base.Y, tip.X, tip.Y)

	g := Decompose(w.speed)
	step := staffLength * barbSpacing
	tick := staffLength * barbLength
	pos := staffLength

	for range g.Flags {
		p0, p1 := at(pos), at(pos-step)
		c.FillPolygon(color.Black, []vg.Point{p0, p0.Add(perp.Scale(tick)), p1})
		pos -= step * 1.3
	}
	if g.Flags == 0 && g.Full == 0 {
		// A lone half barb is set in from the tip.
		pos -= step
	}
	for range g.Full {
		p0 := at(pos)
		end := p0.Add(perp.Scale(tick)).Add(along.Scale(step * 0.5))
		c.StrokeLine2(sty, p0.X, p0.Y, end.X, end.Y)
		pos -= step
	}
	if g.Half > 0 {
		p0 := at(pos)
		end := p0.Add(perp.Scale(tick / 2)).Add(along.Scale(step * 0.25))
		c.StrokeLine2(sty, p0.X, p0.Y, end.X, end.Y)
	}
}
