package fixedwidth

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
)

var banner = []string{
	"   PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA",
	"    hPa     m      C      C      %    g/kg    deg   knot     K ",
}

// Encode writes s in the layout Parse reads, with title as the station line.
// RELH, MIXR and THTA are derived from temperature and dewpoint.
func Encode(w io.Writer, title string, s domain.Sounding) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("-", len(banner[0]))
	header := []string{title, rule, banner[0], banner[1], rule}
	for _, h := range header {
		if _, err := fmt.Fprintln(bw, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, l := range s.Levels {
		relh, mixr, thta := math.NaN(), math.NaN(), math.NaN()
		if !math.IsNaN(l.Temperature) {
			thta = domain.PotentialTemperature(l.Pressure, l.Temperature)
			if !math.IsNaN(l.Dewpoint) {
				e := domain.SaturationVaporPressure(l.Dewpoint)
				relh = 100 * e / domain.SaturationVaporPressure(l.Temperature)
				mixr = 1000 * domain.MixingRatio(e, l.Pressure)
			}
		}
		row := cell(l.Pressure, 1) + cell(l.Height, 0) + cell(l.Temperature, 1) + cell(l.Dewpoint, 1) +
			cell(relh, 0) + cell(mixr, 2) + cell(l.Direction, 0) + cell(l.Speed, 0) + cell(thta, 1)
		if _, err := fmt.Fprintln(bw, strings.TrimRight(row, " ")); err != nil {
			return fmt.Errorf("write level: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush sounding: %w", err)
	}
	return nil
}

// cell right-aligns v in one column; NaN is left blank.
func cell(v float64, prec int) string {
	if math.IsNaN(v) {
		return strings.Repeat(" ", columnWidth)
	}
	return fmt.Sprintf("%*.*f", columnWidth, prec, v)
}
