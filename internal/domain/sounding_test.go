package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	s := Sounding{
		Source: "filter",
		Units:  StandardUnits(),
		Levels: []Level{
			{Pressure: 1000, Height: 110, Temperature: 25, Dewpoint: 20, Direction: 180, Speed: 10},
			{Pressure: 975, Height: 330, Temperature: nan, Dewpoint: nan, Direction: nan, Speed: nan},
			{Pressure: 950, Height: nan, Temperature: nan, Dewpoint: nan, Direction: 200, Speed: 15},
			{Pressure: 925, Height: 780, Temperature: 21, Dewpoint: nan, Direction: nan, Speed: nan},
		},
	}

	filtered := Filter(s)

	require.Len(t, filtered.Levels, 3)
	assert.Equal(t, []float64{1000, 950, 925}, filtered.Pressures())
	assert.Equal(t, "filter", filtered.Source)
	assert.Equal(t, StandardUnits(), filtered.Units)

	t.Run("idempotent", func(t *testing.T) {
		again := Filter(filtered)
		assert.Equal(t, filtered.Pressures(), again.Pressures())
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Len(t, s.Levels, 4)
	})
}

func TestFilter_AllMissing(t *testing.T) {
	s := Sounding{Levels: []Level{{Pressure: 1000, Temperature: nan, Dewpoint: nan, Direction: nan, Speed: nan}}}
	assert.Empty(t, Filter(s).Levels)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, convectiveSounding().Validate())
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, Sounding{}.Validate(), ErrEmptySounding)
	})

	t.Run("ascending pressure", func(t *testing.T) {
		s := convectiveSounding()
		s.Levels[0], s.Levels[1] = s.Levels[1], s.Levels[0]
		assert.ErrorIs(t, s.Validate(), ErrPressureOrder)
	})

	t.Run("duplicate pressure", func(t *testing.T) {
		s := convectiveSounding()
		s.Levels[2].Pressure = s.Levels[1].Pressure
		assert.ErrorIs(t, s.Validate(), ErrPressureOrder)
	})

	t.Run("missing pressure", func(t *testing.T) {
		s := convectiveSounding()
		s.Levels[3].Pressure = nan
		assert.ErrorIs(t, s.Validate(), ErrPressureOrder)
	})

	t.Run("surface without dewpoint", func(t *testing.T) {
		s := convectiveSounding()
		s.Levels[0].Dewpoint = nan
		assert.ErrorIs(t, s.Validate(), ErrMissingSurface)
	})
}

func TestUnits_Require(t *testing.T) {
	u := StandardUnits()
	require.NoError(t, u.Require(FieldTemperature, Celsius))

	u[FieldTemperature] = "degF"
	err := u.Require(FieldTemperature, Celsius)
	require.ErrorIs(t, err, ErrUnitMismatch)
	assert.Contains(t, err.Error(), "temperature")
}

func TestLevel_HasWind(t *testing.T) {
	assert.True(t, Level{Direction: 0, Speed: 0}.HasWind())
	assert.False(t, Level{Direction: 90, Speed: nan}.HasWind())
	assert.False(t, Level{Direction: nan, Speed: 5}.HasWind())
}
