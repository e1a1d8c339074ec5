// Command genmock normalizes a University of Wyoming sounding into the
// repository's fixture layout and writes the matching analysis JSON. It runs
// the real domain package so the golden output matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -in raw/72451_2007050500.txt -header-rows 8 \
//	  -title "72451 DDC Dodge City Observations at 00Z 05 May 2007" \
//	  -sounding-out data/may4_sounding.txt \
//	  -analysis-out data/may4_analysis.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/fixedwidth"
	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixtureTime stamps generated analyses so IDs and timestamps are reproducible.
var fixtureTime = time.Date(2007, time.May, 5, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input sounding in Wyoming text layout")
	headerRows := flag.Int("header-rows", fixedwidth.DefaultHeaderRows, "lines to skip before data rows")
	title := flag.String("title", "", "station line for the fixture header (default: input file name)")
	soundingOut := flag.String("sounding-out", "", "output path for the normalized sounding")
	analysisOut := flag.String("analysis-out", "", "output path for the analysis JSON")
	flag.Parse()

	if *in == "" || (*soundingOut == "" && *analysisOut == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in and one of -sounding-out, -analysis-out")
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := fixedwidth.Parse(context.Background(), f, filepath.Base(*in), *headerRows)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *in, err)
	}
	log.Printf("read %d levels from %s", len(raw.Levels), *in)

	if *soundingOut != "" {
		if *title == "" {
			*title = raw.Source
		}
		if err := writeSounding(*soundingOut, *title, raw); err != nil {
			return err
		}
		log.Printf("wrote %s", *soundingOut)
	}

	if *analysisOut != "" {
		domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
		defer domain.SetClock(nil)

		// Name the analysis after the fixture it will be compared with.
		if *soundingOut != "" {
			raw.Source = filepath.Base(*soundingOut)
		}
		filtered := domain.Filter(raw)
		a, err := domain.Analyze(filtered)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		if err := writeJSON(*analysisOut, a.Document()); err != nil {
			return err
		}
		log.Printf("wrote %s", *analysisOut)
		printStats(raw, a)
	}
	return nil
}

func writeSounding(path, title string, s domain.Sounding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fixedwidth.Encode(f, title, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // fixture output
}

func printStats(raw domain.Sounding, a domain.Analysis) {
	fmt.Println()
	fmt.Println("=== Fixture Statistics ===")
	fmt.Printf("  levels:        %d read, %d kept\n", len(raw.Levels), len(a.Sounding.Levels))
	fmt.Printf("  surface:       %.1f hPa  %.1f / %.1f °C\n",
		a.Sounding.Surface().Pressure, a.Sounding.Surface().Temperature, a.Sounding.Surface().Dewpoint)
	fmt.Printf("  LCL:           %.1f hPa  %.1f °C\n", a.LCL.Pressure, a.LCL.Temperature)
	if a.Convection.LFC != nil {
		fmt.Printf("  LFC / EL:      %.1f / %.1f hPa\n", *a.Convection.LFC, *a.Convection.EL)
	} else {
		fmt.Println("  LFC / EL:      none")
	}
	fmt.Printf("  CAPE / CIN:    %.0f / %.0f J/kg\n", a.Convection.CAPE, a.Convection.CIN)
	fmt.Printf("  regions:       %d\n", len(a.Convection.Regions))
	fmt.Printf("  id:            %s\n", a.ID)
}
