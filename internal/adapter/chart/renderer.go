// Package chart renders sounding analyses as skew-T log-p diagrams.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Visible window of the diagram.
const (
	MinTemperature = -40.0 // °C at 1000 hPa
	MaxTemperature = 60.0
	TopPressure    = 100.0 // hPa
	BottomPressure = 1050.0

	// DefaultSkew shifts isotherms right by this many °C per unit of ln(1000/p).
	DefaultSkew = 35.0
)

var (
	temperatureColor = color.RGBA{R: 220, A: 255}
	dewpointColor    = color.RGBA{G: 160, A: 255}
	parcelColor      = color.Black
	capeColor        = color.NRGBA{R: 255, A: 70}
	cinColor         = color.NRGBA{B: 255, A: 70}
	isothermColor    = color.RGBA{G: 190, B: 220, A: 255}
)

// Chart is an encoded diagram.
type Chart struct {
	AnalysisID  string
	Source      string
	Format      string // png, svg, pdf, jpg
	ContentType string
	Data        []byte
}

// Sink receives rendered charts.
type Sink interface {
	Name() string
	WriteChart(ctx context.Context, c Chart) error
}

// Options controls the rendered image.
type Options struct {
	Width  vg.Length
	Height vg.Length
	Format string
	Skew   float64
}

// DefaultOptions is a 9x9 inch PNG.
func DefaultOptions() Options {
	return Options{Width: 9 * vg.Inch, Height: 9 * vg.Inch, Format: "png", Skew: DefaultSkew}
}

// FormatForPath returns the image format implied by a file extension, or png.
func FormatForPath(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "svg", "pdf", "jpg", "jpeg":
		return ext
	default:
		return "png"
	}
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// Renderer draws analyses and hands the result to its sinks.
// It implements pipeline.Loader.
type Renderer struct {
	opts    Options
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRenderer creates a Renderer. Zero option fields take their defaults.
func NewRenderer(opts Options, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Skew == 0 {
		opts.Skew = def.Skew
	}
	return &Renderer{opts: opts, sinks: sinks, logger: logger, metrics: metrics}
}

// Load renders a and writes the chart to every sink. The first sink error aborts delivery.
func (r *Renderer) Load(ctx context.Context, a domain.Analysis) error {
	c, err := r.Render(a)
	if err != nil {
		return err
	}
	for _, s := range r.sinks {
		if err := s.WriteChart(ctx, c); err != nil {
			return fmt.Errorf("write chart to %s: %w", s.Name(), err)
		}
		r.metrics.ChartsPublished.WithLabelValues(s.Name()).Inc()
	}
	r.logger.Info("chart rendered", "source", a.Sounding.Source, "format", c.Format, "bytes", len(c.Data), "sinks", len(r.sinks))
	return nil
}

// Render draws a into an encoded chart.
func (r *Renderer) Render(a domain.Analysis) (Chart, error) {
	if err := checkUnits(a.Sounding.Units); err != nil {
		return Chart{}, fmt.Errorf("render chart: %w", err)
	}
	p, err := r.plot(a)
	if err != nil {
		return Chart{}, fmt.Errorf("render chart: %w", err)
	}
	wt, err := p.WriterTo(r.opts.Width, r.opts.Height, r.opts.Format)
	if err != nil {
		return Chart{}, fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Chart{}, fmt.Errorf("encode chart: %w", err)
	}
	return Chart{
		AnalysisID:  a.ID,
		Source:      a.Sounding.Source,
		Format:      r.opts.Format,
		ContentType: contentTypes[r.opts.Format],
		Data:        buf.Bytes(),
	}, nil
}

func checkUnits(u domain.Units) error {
	for _, req := range []struct {
		field domain.Field
		unit  domain.Unit
	}{
		{domain.FieldPressure, domain.HectoPascal},
		{domain.FieldTemperature, domain.Celsius},
		{domain.FieldDewpoint, domain.Celsius},
		{domain.FieldDirection, domain.Degree},
		{domain.FieldSpeed, domain.Knot},
	} {
		if err := u.Require(req.field, req.unit); err != nil {
			return err
		}
	}
	return nil
}

// skewX maps temperature t (°C) at pressure p (hPa) onto the skewed x axis.
func (r *Renderer) skewX(t, p float64) float64 {
	return t + r.opts.Skew*math.Log(domain.ReferencePressure/p)
}

// trace returns skewed points for temps at pressures, skipping missing values.
func (r *Renderer) trace(pressures, temps []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(pressures))
	for i, p := range pressures {
		if math.IsNaN(p) || math.IsNaN(temps[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: r.skewX(temps[i], p), Y: p})
	}
	return xys
}

func (r *Renderer) plot(a domain.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title(a)
	p.X.Label.Text = "Temperature (°C)"
	p.Y.Label.Text = "Pressure (hPa)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LogScale{}}
	p.Y.Tick.Marker = pressureTicks()
	p.X.Tick.Marker = temperatureTicks()
	p.Legend.Top = true

	if err := r.addGuides(p); err != nil {
		return nil, err
	}
	if err := r.addRegions(p, a.Convection.Regions); err != nil {
		return nil, err
	}

	s := a.Sounding
	pressures := s.Pressures()
	for _, tr := range []struct {
		name  string
		temps []float64
		color color.Color
		width vg.Length
	}{
		{"Temperature", s.Temperatures(), temperatureColor, vg.Points(2)},
		{"Dewpoint", s.Dewpoints(), dewpointColor, vg.Points(2)},
		{"Parcel", a.Profile, parcelColor, vg.Points(2)},
	} {
		xys := r.trace(pressures, tr.temps)
		if len(xys) < 2 {
			continue
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("%s trace: %w", strings.ToLower(tr.name), err)
		}
		l.LineStyle.Color = tr.color
		l.LineStyle.Width = tr.width
		p.Add(l)
		p.Legend.Add(tr.name, l)
	}

	lcl, err := plotter.NewScatter(plotter.XYs{{X: r.skewX(a.LCL.Temperature, a.LCL.Pressure), Y: a.LCL.Pressure}})
	if err != nil {
		return nil, fmt.Errorf("lcl marker: %w", err)
	}
	lcl.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
	p.Add(lcl)
	p.Legend.Add(fmt.Sprintf("LCL %.0f hPa", a.LCL.Pressure), lcl)

	p.Add(&barbs{levels: windLevels(s, a.Winds)})

	// Plotters widen the axes to fit their data; clamp to the diagram window last.
	p.X.Min, p.X.Max = MinTemperature, MaxTemperature
	p.Y.Min, p.Y.Max = TopPressure, BottomPressure
	return p, nil
}

func (r *Renderer) addRegions(p *plot.Plot, regions []domain.Region) error {
	var legendCAPE, legendCIN bool
	for _, reg := range regions {
		if len(reg.Points) < 2 {
			continue
		}
		ring := make(plotter.XYs, 0, 2*len(reg.Points))
		for _, pt := range reg.Points {
			ring = append(ring, plotter.XY{X: r.skewX(pt.Ambient, pt.Pressure), Y: pt.Pressure})
		}
		for i := len(reg.Points) - 1; i >= 0; i-- {
			pt := reg.Points[i]
			ring = append(ring, plotter.XY{X: r.skewX(pt.Parcel, pt.Pressure), Y: pt.Pressure})
		}
		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return fmt.Errorf("%s region: %w", reg.Kind, err)
		}
		poly.LineStyle.Width = 0
		switch reg.Kind {
		case domain.RegionCAPE:
			poly.Color = capeColor
			if !legendCAPE {
				p.Legend.Add("CAPE", poly)
				legendCAPE = true
			}
		case domain.RegionCIN:
			poly.Color = cinColor
			if !legendCIN {
				p.Legend.Add("CIN", poly)
				legendCIN = true
			}
		}
		p.Add(poly)
	}
	return nil
}

func title(a domain.Analysis) string {
	t := fmt.Sprintf("%s   CAPE %.0f J/kg   CIN %.0f J/kg", a.Sounding.Source, a.Convection.CAPE, a.Convection.CIN)
	if a.Convection.LFC != nil && a.Convection.EL != nil {
		t += fmt.Sprintf("   LFC %.0f hPa   EL %.0f hPa", *a.Convection.LFC, *a.Convection.EL)
	}
	return t
}

func pressureTicks() plot.ConstantTicks {
	var ticks []plot.Tick
	for p := 1000.0; p >= TopPressure; p -= 100 {
		ticks = append(ticks, plot.Tick{Value: p, Label: fmt.Sprintf("%.0f", p)})
	}
	ticks = append(ticks, plot.Tick{Value: 850, Label: "850"}, plot.Tick{Value: 250, Label: "250"})
	return plot.ConstantTicks(ticks)
}

func temperatureTicks() plot.ConstantTicks {
	var ticks []plot.Tick
	for t := MinTemperature; t <= MaxTemperature; t += 10 {
		ticks = append(ticks, plot.Tick{Value: t, Label: fmt.Sprintf("%.0f", t)})
	}
	return plot.ConstantTicks(ticks)
}
