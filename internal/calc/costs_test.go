package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselineCosts(t *testing.T) {
	r := row{
		ColElecKWh: "100000", ColRateKWh: "0.20", ColRateDemand: "15",
		ColGasKBtu: "10000", ColRateTherm: "1.0",
		ColSteamKBtu: "9090", ColRateSteamMlb: "20",
		ColFuelOilKBtu: "5000", ColRateOilMMBtu: "20",
	}
	vals := compute(t, NewBaselineCostStage(), r)

	peak := 100000 / (8760 * 0.45)
	energy := 100000 * 0.20 * 1.10
	demand := peak * 15 * 12 * 1.265
	got := func(col string) float64 {
		v, ok := f(vals, col)
		require.True(t, ok, col)
		return v
	}
	assert.InDelta(t, peak, got(ColPeakKW), 0.005)
	assert.InDelta(t, energy, got(ColCostElecEnergy), 0.005)
	assert.InDelta(t, demand, got(ColCostElecDemand), 0.005)
	assert.InDelta(t, energy+demand, got(ColCostElecTotal), 0.01)
	assert.InDelta(t, 110.0, got(ColCostGas), 1e-9)
	assert.InDelta(t, 200.0, got(ColCostSteam), 1e-9)
	assert.InDelta(t, 110.0, got(ColCostFuelOil), 1e-9)
}

func TestCostsAbsentWithoutRateOrUse(t *testing.T) {
	r := row{ColElecKBtu: "341200", ColLoadFactor: "0.5", ColGasKBtu: "1000"}
	vals := compute(t, NewBaselineCostStage(), r)
	peak, ok := f(vals, ColPeakKW)
	require.True(t, ok, "peak needs consumption only")
	assert.InDelta(t, 100000/(8760*0.5), peak, 0.005)
	assert.NotContains(t, vals, ColCostElecTotal)
	assert.NotContains(t, vals, ColCostGas)
	assert.NotContains(t, vals, ColCostSteam)

	r = row{ColElecKWh: "1000", ColRateKWh: "0.1"}
	vals = compute(t, NewBaselineCostStage(), r)
	demand, _ := f(vals, ColCostElecDemand)
	total, _ := f(vals, ColCostElecTotal)
	assert.Equal(t, 0.0, demand)
	assert.InDelta(t, 110.0, total, 1e-9)
}

func TestPostCostsReadPostEnergy(t *testing.T) {
	s := NewPostCostStage()
	assert.NotContains(t, s.Outputs(), ColPeakKW)
	assert.Contains(t, s.Inputs(), ColElecKWhPost)

	r := row{ColElecKWh: "100000", ColElecKWhPost: "90000", ColRateKWh: "0.2"}
	vals := compute(t, s, r)
	energy, _ := f(vals, ColCostElecEnergyPost)
	assert.InDelta(t, 90000*0.2*1.1, energy, 1e-6)
	assert.NotContains(t, vals, ColCostElecEnergy)
}
