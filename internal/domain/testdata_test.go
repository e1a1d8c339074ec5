package domain

import "math"

var nan = math.NaN()

// convectiveSounding is a warm, moist surface under a conditionally unstable column.
func convectiveSounding() Sounding {
	ps := []float64{1000, 950, 900, 850, 800, 700, 600, 500, 400, 300, 250, 200, 150, 100}
	ts := []float64{30, 26, 22.5, 19, 15, 7, -2, -12, -24, -39, -48, -56, -60, -65}
	levels := make([]Level, len(ps))
	for i := range ps {
		levels[i] = Level{
			Pressure:    ps[i],
			Height:      nan,
			Temperature: ts[i],
			Dewpoint:    ts[i] - 8,
			Direction:   180 + float64(i)*5,
			Speed:       10 + float64(i)*5,
		}
	}
	levels[0].Dewpoint = 22
	return Sounding{Source: "test", Units: StandardUnits(), Levels: levels}
}

// stableSounding has a dry surface and an inversion; a lifted parcel stays colder than its environment.
func stableSounding() Sounding {
	ps := []float64{1000, 950, 900, 850, 800, 700, 600, 500, 400, 300, 250, 200, 150, 100}
	ts := []float64{20, 19, 18, 16, 13, 5, -3, -13, -25, -39, -47, -55, -60, -62}
	levels := make([]Level, len(ps))
	for i := range ps {
		levels[i] = Level{Pressure: ps[i], Height: nan, Temperature: ts[i], Dewpoint: ts[i] - 15, Direction: nan, Speed: nan}
	}
	levels[0].Dewpoint = 5
	return Sounding{Source: "stable", Units: StandardUnits(), Levels: levels}
}
