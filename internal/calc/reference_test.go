package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildingType(t *testing.T) {
	got, ok := ParseBuildingType("  hotel ")
	assert.True(t, ok)
	assert.Equal(t, TypeHotel, got)

	got, ok = ParseBuildingType("Hospital")
	assert.True(t, ok)
	assert.Equal(t, TypeInpatientHospital, got)

	got, ok = ParseBuildingType("")
	assert.False(t, ok)
	assert.Equal(t, TypeDefault, got)
}

func TestLookupBuildingType(t *testing.T) {
	got, err := LookupBuildingType("DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, TypeDefault, got)

	_, err = LookupBuildingType("Spaceport")
	assert.ErrorContains(t, err, "Spaceport")
}

func TestProfilesAreConsistent(t *testing.T) {
	for bt := TypeDefault; bt < typeCount; bt++ {
		p := bt.Profile()
		assert.NotEmpty(t, p.Name, "type %d", bt)
		assert.NotEmpty(t, p.Vertical, p.Name)
		assert.LessOrEqual(t, p.SavingsFloor, p.SavingsCeiling, p.Name)
		assert.Positive(t, p.EnergyStar.Shape, p.Name)
		assert.Positive(t, p.EnergyStar.Scale, p.Name)
		if bt != TypeDefault {
			parsed, ok := ParseBuildingType(p.Name)
			assert.True(t, ok, p.Name)
			assert.Equal(t, bt, parsed)
		}
	}
	assert.Equal(t, "DEFAULT", BuildingType(250).String())
}

func TestParseCity(t *testing.T) {
	for in, want := range map[string]City{
		"New York":      CityNewYork,
		"nyc":           CityNewYork,
		"Washington DC": CityWashington,
		"saint louis":   CityStLouis,
		"SEATTLE":       CitySeattle,
	} {
		got, ok := ParseCity(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	got, ok := ParseCity("Miami")
	assert.False(t, ok)
	assert.Equal(t, CityDefault, got)
}

func TestLookupCity(t *testing.T) {
	got, err := LookupCity("default")
	require.NoError(t, err)
	assert.Equal(t, CityDefault, got)

	_, err = LookupCity("Atlantis")
	assert.ErrorContains(t, err, "Atlantis")
}

func TestCityFactorsArePositive(t *testing.T) {
	for c := CityDefault; c < cityCount; c++ {
		ef := c.Profile().Factors
		assert.Positive(t, ef.Electricity, c.String())
		assert.Positive(t, ef.Gas, c.String())
		assert.Positive(t, ef.Steam, c.String())
		assert.Positive(t, ef.FuelOil, c.String())
	}
}
