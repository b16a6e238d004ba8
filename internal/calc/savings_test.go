package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiTenantOffice() row {
	return row{
		ColBuildingType: "Office",
		ColVacancy:      "0.28",
		ColUtilization:  "0.52",
		ColClimateZone:  "North-Central",
		ColEnergyStar:   "68",
		ColYearBuilt:    "2008",
		ColSqft:         "350000",
	}
}

func TestSavingsMultiTenantScenario(t *testing.T) {
	r := multiTenantOffice()
	assert.InDelta(t, 0.6256, opportunity(OpportunityVacancy, 0.28, 0.52), 1e-9)
	assert.InDelta(t, 0.875, (yearScore(2008)+sizeScore(350000))/2, 1e-9)

	s := prepared(t, &SavingsStage{}, r)
	pct, ok := f(compute(t, s, r), ColSavingsPct)
	require.True(t, ok)
	assert.InDelta(t, 0.326, pct, 0.01)
	assert.InDelta(t, 0.325, pct, 1e-9)
}

func TestSavingsStaysWithinTypeBand(t *testing.T) {
	for typ := TypeDefault + 1; typ < typeCount; typ++ {
		prof := typ.Profile()
		for _, score := range []string{"1", "50", "99", ""} {
			for _, zone := range []string{"Northern", "Southern", ""} {
				r := row{ColBuildingType: prof.Name, ColEnergyStar: score, ColClimateZone: zone, ColUtilization: "0.05", ColVacancy: "0.9"}
				if score == "" {
					delete(r, ColEnergyStar)
				}
				s := prepared(t, &SavingsStage{}, r)
				pct, ok := f(compute(t, s, r), ColSavingsPct)
				require.True(t, ok)
				if prof.Opportunity == OpportunityNone {
					assert.Equal(t, 0.0, pct)
					continue
				}
				assert.GreaterOrEqual(t, pct, prof.SavingsFloor, prof.Name)
				assert.LessOrEqual(t, pct, prof.SavingsCeiling, prof.Name)
			}
		}
	}
}

func TestSavingsDefaultsAndPeerYear(t *testing.T) {
	peers := []row{
		{ColBuildingType: "Hotel", ColYearBuilt: "1960"},
		{ColBuildingType: "Hotel", ColYearBuilt: "1962"},
		{ColBuildingType: "Hotel"},
	}
	s := prepared(t, &SavingsStage{}, peers...)
	assert.Equal(t, 1961.0, s.peers.YearBuilt(TypeHotel))
	assert.Equal(t, float64(defaultYearBuilt), s.peers.YearBuilt(TypeOffice))

	// Hotel: 1 - 0.60 default utilisation, year score 0 from the peer median
	// and 0.5 for the default size: 0.15 + 0.4 × 0.25 × 0.20.
	pct, _ := f(compute(t, s, peers[2]), ColSavingsPct)
	assert.InDelta(t, 0.17, pct, 1e-9)
}

func TestSavingsEfficiencyFallsBackToEUI(t *testing.T) {
	peers := []row{
		{ColBuildingType: "Office", ColSiteEUI: "50"},
		{ColBuildingType: "Office", ColSiteEUI: "100", ColUtilization: "0.2"},
	}
	s := prepared(t, &SavingsStage{}, peers...)
	assert.Equal(t, 1.05, s.efficiency(peers[1], TypeOffice), "100 / median 75 is above 1.2")
	assert.Equal(t, 0.90, s.efficiency(peers[0], TypeOffice))
	assert.Equal(t, 1.0, s.efficiency(row{ColBuildingType: "Office"}, TypeOffice))
}

func TestRateOrReadsPercentages(t *testing.T) {
	assert.Equal(t, 0.28, rateOr(row{ColVacancy: "28"}, ColVacancy, 0))
	assert.Equal(t, 0.15, rateOr(row{}, ColVacancy, 0.15))
	assert.Equal(t, 0.15, rateOr(row{ColVacancy: "n/a"}, ColVacancy, 0.15))
}
