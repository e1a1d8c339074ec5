package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// OutputEvent is the serialized form destined for a sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// LevelDocument is the JSON form of a level. Missing values encode as null.
type LevelDocument struct {
	Pressure    *float64 `json:"pressure_hpa"`
	Height      *float64 `json:"height_m"`
	Temperature *float64 `json:"temperature_c"`
	Dewpoint    *float64 `json:"dewpoint_c"`
	Direction   *float64 `json:"direction_deg"`
	Speed       *float64 `json:"speed_kt"`
	U           *float64 `json:"u_kt"`
	V           *float64 `json:"v_kt"`
	Parcel      *float64 `json:"parcel_c"`
}

// AnalysisDocument is the JSON form of an Analysis.
type AnalysisDocument struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Units       Units           `json:"units"`
	LCL         LCLPoint        `json:"lcl"`
	Convection  Convection      `json:"convection"`
	Levels      []LevelDocument `json:"levels"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// Document converts an Analysis into its JSON form.
func (a Analysis) Document() AnalysisDocument {
	levels := make([]LevelDocument, len(a.Sounding.Levels))
	for i, l := range a.Sounding.Levels {
		doc := LevelDocument{
			Pressure:    nullable(l.Pressure),
			Height:      nullable(l.Height),
			Temperature: nullable(l.Temperature),
			Dewpoint:    nullable(l.Dewpoint),
			Direction:   nullable(l.Direction),
			Speed:       nullable(l.Speed),
		}
		if i < len(a.Winds) {
			doc.U = nullable(a.Winds[i].U)
			doc.V = nullable(a.Winds[i].V)
		}
		if i < len(a.Profile) {
			doc.Parcel = nullable(a.Profile[i])
		}
		levels[i] = doc
	}
	return AnalysisDocument{
		ID:          a.ID,
		Source:      a.Sounding.Source,
		Units:       a.Sounding.Units,
		LCL:         a.LCL,
		Convection:  a.Convection,
		Levels:      levels,
		ProcessedAt: a.ProcessedAt,
	}
}

// SerializeAnalysis marshals an Analysis into an OutputEvent keyed by its ID.
func SerializeAnalysis(a Analysis) (OutputEvent, error) {
	data, err := json.Marshal(a.Document())
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize analysis: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"source":       a.Sounding.Source,
			"processed_at": a.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
