package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyStarAbsentAndUnchanged(t *testing.T) {
	assert.Empty(t, compute(t, EnergyStarStage{}, row{ColBuildingType: "Office", ColSavingsPct: "0.3"}))

	vals := compute(t, EnergyStarStage{}, row{ColBuildingType: "Office", ColEnergyStar: "68", ColSavingsPct: "0"})
	score, _ := f(vals, ColEnergyStarPost)
	assert.Equal(t, 68.0, score)
}

func TestEnergyStarImprovesWithSavings(t *testing.T) {
	r := row{
		ColBuildingType: "Office", ColEnergyStar: "50", ColSavingsPct: "0.3",
		ColElecKWh: "100000", ColHVACPctElec: "0.5",
	}
	vals := compute(t, EnergyStarStage{}, r)
	score, ok := f(vals, ColEnergyStarPost)
	require.True(t, ok)
	assert.Greater(t, score, 50.0)
	assert.LessOrEqual(t, score, 99.0)
	assert.Equal(t, score, float64(int(score)), "scores are whole numbers")
}

func TestPostScoreIsMonotoneAndClamped(t *testing.T) {
	g := TypeOffice.Profile().EnergyStar
	prev := 0.0
	for _, savings := range []float64{0.05, 0.1, 0.2, 0.4} {
		s := PostScore(g, 40, savings, 0.5)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
	assert.Equal(t, 99.0, PostScore(g, 100, 0.4, 1))
	assert.GreaterOrEqual(t, PostScore(g, 0, 0.01, 0.1), 1.0)
}

func TestWeightedHVACShareFallback(t *testing.T) {
	assert.Equal(t, fallbackHVACShare, weightedHVACShare(row{}))
	r := row{ColElecKBtu: "300", ColHVACPctElec: "0.2", ColGasKBtu: "100", ColHVACPctGas: "0.6"}
	assert.InDelta(t, (60+60)/400.0, weightedHVACShare(r), 1e-9)
}
