package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valuationRow(typ string) row {
	return row{
		ColBuildingType: typ, ColCapRate: "7",
		ColHVACCostTotal: "10000", ColSavingsPct: "0.25", ColFineAvoided: "1000",
		ColCostElecTotal: "20000", ColCostGas: "5000",
	}
}

func TestValuationCommercial(t *testing.T) {
	vals := compute(t, ValuationStage{}, valuationRow("Office"))

	for col, want := range map[string]float64{
		ColSavingsUSD:  2500,
		ColOpexAvoided: 3500,
		ColValImpact:   50000,
		ColValCurrent:  1785714.29,
		ColValPost:     1835714.29,
	} {
		got, ok := f(vals, col)
		require.True(t, ok, col)
		assert.InDelta(t, want, got, 0.001, col)
	}
}

func TestValuationFractionalCapRate(t *testing.T) {
	r := valuationRow("Office")
	r[ColCapRate] = "0.07"
	impact, ok := f(compute(t, ValuationStage{}, r), ColValImpact)
	require.True(t, ok)
	assert.InDelta(t, 50000, impact, 0.001)
}

func TestValuationAbsentWithoutIncomeBasis(t *testing.T) {
	noCap := valuationRow("Office")
	delete(noCap, ColCapRate)

	for name, r := range map[string]row{
		"non-commercial type": valuationRow("K-12 School"),
		"missing cap rate":    noCap,
	} {
		vals := compute(t, ValuationStage{}, r)
		opex, ok := f(vals, ColOpexAvoided)
		require.True(t, ok, name)
		assert.InDelta(t, 3500, opex, 0.001, name)
		for _, col := range []string{ColValCurrent, ColValPost, ColValImpact} {
			_, ok := vals[col]
			assert.False(t, ok, "%s: %s", name, col)
		}
	}
}
