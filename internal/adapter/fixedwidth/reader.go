// Package fixedwidth reads and writes upper-air soundings in the University
// of Wyoming text layout: right-aligned 7-byte columns under a short header.
package fixedwidth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
)

// DefaultHeaderRows is the station line plus the four-line column banner.
const DefaultHeaderRows = 5

const columnWidth = 7

// column is a byte range [start, end) of a data row.
type column struct {
	start, end int
}

// RELH and MIXR occupy [28,42) and everything past SKNT is ignored.
var (
	pressureColumn    = column{0, 7}
	heightColumn      = column{7, 14}
	temperatureColumn = column{14, 21}
	dewpointColumn    = column{21, 28}
	directionColumn   = column{42, 49}
	speedColumn       = column{49, 56}
)

// Reader loads a sounding file from disk. It implements pipeline.Extractor.
type Reader struct {
	path       string
	headerRows int
	logger     *slog.Logger
}

// NewReader creates a Reader for path, skipping headerRows lines before the data.
func NewReader(path string, headerRows int, logger *slog.Logger) *Reader {
	return &Reader{path: path, headerRows: headerRows, logger: logger}
}

// Extract reads and parses the file. The sounding's Source is the file's base name.
func (r *Reader) Extract(ctx context.Context) (domain.Sounding, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return domain.Sounding{}, fmt.Errorf("open sounding: %w", err)
	}
	defer f.Close()

	s, err := Parse(ctx, f, filepath.Base(r.path), r.headerRows)
	if err != nil {
		return domain.Sounding{}, err
	}
	r.logger.Debug("sounding read", "path", r.path, "levels", len(s.Levels))
	return s, nil
}

// Parse reads data rows from rd after skipping headerRows lines. Blank lines
// are skipped; short rows, empty fields and unparsable fields yield NaN.
func Parse(ctx context.Context, rd io.Reader, source string, headerRows int) (domain.Sounding, error) {
	s := domain.Sounding{Source: source, Units: domain.StandardUnits()}
	sc := bufio.NewScanner(rd)
	line := 0
	for sc.Scan() {
		line++
		if line <= headerRows {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.Sounding{}, fmt.Errorf("parse sounding: %w", err)
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		s.Levels = append(s.Levels, parseRow(text))
	}
	if err := sc.Err(); err != nil {
		return domain.Sounding{}, fmt.Errorf("read sounding: %w", err)
	}
	return s, nil
}

func parseRow(row string) domain.Level {
	return domain.Level{
		Pressure:    pressureColumn.parse(row),
		Height:      heightColumn.parse(row),
		Temperature: temperatureColumn.parse(row),
		Dewpoint:    dewpointColumn.parse(row),
		Direction:   directionColumn.parse(row),
		Speed:       speedColumn.parse(row),
	}
}

// parse reads the column from row, clipped to the row length.
func (c column) parse(row string) float64 {
	if c.start >= len(row) {
		return math.NaN()
	}
	end := min(c.end, len(row))
	v, err := strconv.ParseFloat(strings.TrimSpace(row[c.start:end]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
