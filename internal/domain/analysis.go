package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// Analysis is everything derived from one sounding.
type Analysis struct {
	ID          string
	Sounding    Sounding
	Winds       []Wind    // one per level; NaN components when wind is missing
	LCL         LCLPoint
	Profile     []float64 // parcel temperature (°C) per level
	Convection  Convection
	ProcessedAt time.Time
}

// Analyze validates the sounding and derives wind components, the LCL, the
// parcel profile and buoyancy. The first level is the lifted parcel.
func Analyze(s Sounding) (Analysis, error) {
	if err := s.Validate(); err != nil {
		return Analysis{}, fmt.Errorf("analyze %s: %w", s.Source, err)
	}

	winds := make([]Wind, len(s.Levels))
	for i, l := range s.Levels {
		if !l.HasWind() {
			winds[i] = Wind{U: math.NaN(), V: math.NaN()}
			continue
		}
		u, v := WindComponents(l.Speed, l.Direction)
		winds[i] = Wind{U: u, V: v}
	}

	sfc := s.Surface()
	pressures := s.Pressures()
	profile, lcl, err := ParcelProfile(pressures, sfc.Temperature, sfc.Dewpoint)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze %s: parcel profile: %w", s.Source, err)
	}

	return Analysis{
		ID:          generateID(s.Source, sfc),
		Sounding:    s,
		Winds:       winds,
		LCL:         lcl,
		Profile:     profile,
		Convection:  Buoyancy(pressures, s.Temperatures(), profile, lcl),
		ProcessedAt: clock.Now().UTC(),
	}, nil
}

// generateID produces a deterministic ID from the source name and surface observation.
func generateID(source string, sfc Level) string {
	input := fmt.Sprintf("%s|%.1f|%.1f|%.1f", source, sfc.Pressure, sfc.Temperature, sfc.Dewpoint)
	hash := sha256.Sum256([]byte(input))
	return "sounding-" + hex.EncodeToString(hash[:8])
}
