package chart

import (
	"fmt"
	"image/color"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	dryAdiabatColor   = color.NRGBA{R: 200, G: 60, A: 110}
	moistAdiabatColor = color.NRGBA{B: 200, A: 110}
	mixingRatioColor  = color.NRGBA{G: 140, A: 130}
)

// Mixing ratio lines in g/kg.
var mixingRatios = []float64{0.4, 1, 2, 3, 5, 8, 12, 16, 20}

// guidePressures runs from the bottom of the diagram to top in 10 hPa steps.
func guidePressures(bottom, top float64) []float64 {
	var ps []float64
	for p := bottom; p >= top; p -= 10 {
		ps = append(ps, p)
	}
	return ps
}

// addGuides draws the background families: dry adiabats every 10 K from
// 250 to 500 K, moist adiabats every 5 °C from -30 to 35 °C at 1000 hPa,
// mixing-ratio lines between 1000 and 600 hPa, and the 0 °C isotherm.
func (r *Renderer) addGuides(p *plot.Plot) error {
	ps := guidePressures(domain.ReferencePressure, TopPressure)

	for theta := 250.0; theta <= 500; theta += 10 {
		temps := make([]float64, len(ps))
		for i, pr := range ps {
			temps[i] = domain.DryAdiabat(pr, domain.ReferencePressure, theta-domain.ZeroCelsius)
		}
		if err := r.addGuide(p, ps, temps, dryAdiabatColor, nil); err != nil {
			return fmt.Errorf("dry adiabat %.0f K: %w", theta, err)
		}
	}

	for t0 := -30.0; t0 <= 35; t0 += 5 {
		temps := domain.MoistAdiabat(ps, domain.ReferencePressure, t0)
		if err := r.addGuide(p, ps, temps, moistAdiabatColor, []vg.Length{vg.Points(4), vg.Points(3)}); err != nil {
			return fmt.Errorf("moist adiabat %.0f °C: %w", t0, err)
		}
	}

	mixPs := guidePressures(domain.ReferencePressure, 600)
	labels := plotter.XYLabels{}
	for _, w := range mixingRatios {
		temps := make([]float64, len(mixPs))
		for i, pr := range mixPs {
			temps[i] = domain.DewpointFromVaporPressure(domain.VaporPressure(pr, w/1000))
		}
		if err := r.addGuide(p, mixPs, temps, mixingRatioColor, []vg.Length{vg.Points(1), vg.Points(3)}); err != nil {
			return fmt.Errorf("mixing ratio %g g/kg: %w", w, err)
		}
		top := len(mixPs) - 1
		labels.XYs = append(labels.XYs, plotter.XY{X: r.skewX(temps[top], mixPs[top]), Y: mixPs[top]})
		labels.Labels = append(labels.Labels, fmt.Sprintf("%g", w))
	}
	lbl, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("mixing ratio labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].Color = mixingRatioColor
	}
	p.Add(lbl)

	zero := make([]float64, len(ps))
	return r.addGuide(p, ps, zero, isothermColor, []vg.Length{vg.Points(6), vg.Points(3)})
}

func (r *Renderer) addGuide(p *plot.Plot, ps, temps []float64, c color.Color, dashes []vg.Length) error {
	l, err := plotter.NewLine(r.trace(ps, temps))
	if err != nil {
		return err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(0.75)
	l.LineStyle.Dashes = dashes
	p.Add(l)
	return nil
}
