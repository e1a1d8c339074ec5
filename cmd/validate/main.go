// Command validate performs integrity checks on a sounding fixture: it parses
// the file, verifies filtering and ordering, checks the thermodynamic
// invariants of the derived analysis, and optionally compares the result with
// a golden analysis JSON written by genmock.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sounding data/may4_sounding.txt \
//	  -analysis-json data/may4_analysis.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/fixedwidth"
	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/jonboulle/clockwork"
)

const (
	windTolerance   = 1e-6
	goldenTolerance = 0.5
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	soundingPath := flag.String("sounding", "data/may4_sounding.txt", "sounding file in Wyoming text layout")
	headerRows := flag.Int("header-rows", fixedwidth.DefaultHeaderRows, "lines to skip before data rows")
	goldenPath := flag.String("analysis-json", "", "optional golden analysis JSON from genmock")
	flag.Parse()

	if code := run(*soundingPath, *headerRows, *goldenPath); code != 0 {
		os.Exit(code)
	}
}

func run(soundingPath string, headerRows int, goldenPath string) int {
	// Match genmock's clock so the golden comparison is exact.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2007, time.May, 5, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Sounding Integrity Validation ===")
	fmt.Println()

	f, err := os.Open(soundingPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open sounding: %v\n", err)
		return 1
	}
	raw, err := fixedwidth.Parse(context.Background(), f, filepath.Base(soundingPath), headerRows)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse sounding: %v\n", err)
		return 1
	}

	filtered := domain.Filter(raw)
	a, analyzeErr := domain.Analyze(filtered)

	phases := []*phase{
		validateParse(raw),
		validateFilter(raw, filtered),
		validateOrdering(filtered),
		validateThermodynamics(a, analyzeErr),
	}
	if goldenPath != "" {
		phases = append(phases, validateGolden(a, analyzeErr, goldenPath))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Levels: %d parsed, %d after filter\n", len(raw.Levels), len(filtered.Levels))
	if analyzeErr == nil {
		fmt.Printf("LCL %.1f hPa, CAPE %.0f J/kg, CIN %.0f J/kg\n", a.LCL.Pressure, a.Convection.CAPE, a.Convection.CIN)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateParse(s domain.Sounding) *phase {
	p := &phase{name: "Parse: rows and units"}
	if len(s.Levels) == 0 {
		p.errorf("no data rows")
	}
	for i, l := range s.Levels {
		if math.IsNaN(l.Pressure) {
			p.errorf("row %d: pressure missing or unparsable", i+1)
		}
	}
	for _, f := range []domain.Field{domain.FieldPressure, domain.FieldHeight, domain.FieldTemperature,
		domain.FieldDewpoint, domain.FieldDirection, domain.FieldSpeed} {
		if s.Units[f] == "" {
			p.errorf("field %s has no unit", f)
		}
	}
	return p
}

func validateFilter(raw, filtered domain.Sounding) *phase {
	p := &phase{name: "Filter: dropped rows and idempotence"}
	again := domain.Filter(filtered)
	if len(again.Levels) != len(filtered.Levels) {
		p.errorf("second filter changed level count: %d -> %d", len(filtered.Levels), len(again.Levels))
	}
	j := 0
	for _, l := range raw.Levels {
		if j < len(filtered.Levels) && sameLevel(l, filtered.Levels[j]) {
			j++
			continue
		}
		if !math.IsNaN(l.Temperature) || !math.IsNaN(l.Dewpoint) || !math.IsNaN(l.Direction) || !math.IsNaN(l.Speed) {
			p.errorf("level at %.1f hPa dropped despite observations", l.Pressure)
		}
	}
	if j != len(filtered.Levels) {
		p.errorf("filter output is not an ordered subset of the input")
	}
	return p
}

func validateOrdering(s domain.Sounding) *phase {
	p := &phase{name: "Ordering: surface first, descending"}
	if err := s.Validate(); err != nil {
		p.errorf("%v", err)
	}
	return p
}

func validateThermodynamics(a domain.Analysis, err error) *phase {
	p := &phase{name: "Thermodynamics: LCL, parcel, buoyancy"}
	if err != nil {
		p.errorf("analyze: %v", err)
		return p
	}
	sfc := a.Sounding.Surface()
	if a.LCL.Pressure > sfc.Pressure {
		p.errorf("LCL pressure %.2f above surface %.2f hPa", a.LCL.Pressure, sfc.Pressure)
	}
	if a.LCL.Temperature > sfc.Temperature {
		p.errorf("LCL temperature %.2f warmer than surface %.2f °C", a.LCL.Temperature, sfc.Temperature)
	}
	if len(a.Profile) != len(a.Sounding.Levels) {
		p.errorf("profile has %d values for %d levels", len(a.Profile), len(a.Sounding.Levels))
	}
	for i, l := range a.Sounding.Levels {
		if i < len(a.Profile) && l.Pressure >= a.LCL.Pressure {
			if want := domain.DryAdiabat(l.Pressure, sfc.Pressure, sfc.Temperature); math.Abs(a.Profile[i]-want) > 1e-9 {
				p.errorf("parcel at %.1f hPa is %.3f °C, dry adiabat gives %.3f", l.Pressure, a.Profile[i], want)
			}
		}
		if !l.HasWind() {
			continue
		}
		speed, dir := domain.WindSpeedDirection(a.Winds[i].U, a.Winds[i].V)
		if math.Abs(speed-l.Speed) > windTolerance {
			p.errorf("wind at %.1f hPa: speed %.3f round-trips to %.3f", l.Pressure, l.Speed, speed)
		}
		if l.Speed > 0 && math.Abs(math.Remainder(dir-l.Direction, 360)) > windTolerance {
			p.errorf("wind at %.1f hPa: direction %.1f round-trips to %.3f", l.Pressure, l.Direction, dir)
		}
	}
	c := a.Convection
	if c.CAPE < 0 {
		p.errorf("negative CAPE %.1f", c.CAPE)
	}
	if c.CIN > 0 {
		p.errorf("positive CIN %.1f", c.CIN)
	}
	if c.LFC != nil {
		if *c.LFC > a.LCL.Pressure+1e-9 {
			p.errorf("LFC %.1f below LCL %.1f hPa", *c.LFC, a.LCL.Pressure)
		}
		if c.EL == nil || *c.EL > *c.LFC {
			p.errorf("EL missing or below LFC")
		}
	}
	return p
}

func validateGolden(a domain.Analysis, err error, path string) *phase {
	p := &phase{name: "Golden: matches analysis JSON"}
	if err != nil {
		p.errorf("no analysis to compare: %v", err)
		return p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read golden: %v", err)
		return p
	}
	var golden domain.AnalysisDocument
	if err := json.Unmarshal(data, &golden); err != nil {
		p.errorf("decode golden: %v", err)
		return p
	}
	got := a.Document()
	if got.ID != golden.ID {
		p.errorf("id: got %s, golden %s", got.ID, golden.ID)
	}
	if len(got.Levels) != len(golden.Levels) {
		p.errorf("levels: got %d, golden %d", len(got.Levels), len(golden.Levels))
	}
	checkClose(p, "lcl pressure", got.LCL.Pressure, golden.LCL.Pressure)
	checkClose(p, "lcl temperature", got.LCL.Temperature, golden.LCL.Temperature)
	checkClose(p, "cape", got.Convection.CAPE, golden.Convection.CAPE)
	checkClose(p, "cin", got.Convection.CIN, golden.Convection.CIN)
	if !ptrFloatClose(got.Convection.LFC, golden.Convection.LFC) {
		p.errorf("lfc: got %s, golden %s", ptrFloat(got.Convection.LFC), ptrFloat(golden.Convection.LFC))
	}
	if !ptrFloatClose(got.Convection.EL, golden.Convection.EL) {
		p.errorf("el: got %s, golden %s", ptrFloat(got.Convection.EL), ptrFloat(golden.Convection.EL))
	}
	return p
}

// ── Helpers ──

func sameLevel(a, b domain.Level) bool {
	return floatEq(a.Pressure, b.Pressure) && floatEq(a.Temperature, b.Temperature) &&
		floatEq(a.Dewpoint, b.Dewpoint) && floatEq(a.Direction, b.Direction) && floatEq(a.Speed, b.Speed)
}

func floatEq(a, b float64) bool {
	return (math.IsNaN(a) && math.IsNaN(b)) || a == b
}

func checkClose(p *phase, name string, got, want float64) {
	if math.Abs(got-want) > goldenTolerance {
		p.errorf("%s: got %.3f, golden %.3f", name, got, want)
	}
}

func ptrFloatClose(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(*a-*b) <= goldenTolerance
}

func ptrFloat(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%.2f", *v)
}
