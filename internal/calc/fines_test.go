package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fineRow(city, typ, sqft, base, post string) row {
	return row{
		ColCity: city, ColBuildingType: typ, ColSqft: sqft,
		ColCarbonBaseline: base, ColCarbonPost: post,
	}
}

func fines(t *testing.T, r row) (base, post, avoided float64) {
	t.Helper()
	vals := compute(t, FineStage{}, r)
	var ok bool
	base, ok = f(vals, ColFineBaseline)
	require.True(t, ok)
	post, _ = f(vals, ColFinePost)
	avoided, _ = f(vals, ColFineAvoided)
	return base, post, avoided
}

func TestFineNYCLinearEmissionsCap(t *testing.T) {
	base, post, avoided := fines(t, fineRow("New York", "Office", "100000", "1000", "900"))
	assert.InDelta(t, (1000-758)*268.0, base, 0.01)
	assert.InDelta(t, (900-758)*268.0, post, 0.01)
	assert.InDelta(t, 100*268.0, avoided, 0.01)
}

func TestFineZeroOutsideCoverage(t *testing.T) {
	for name, r := range map[string]row{
		"uncovered city": fineRow("Chicago", "Office", "100000", "5000", "4000"),
		"below size":     fineRow("New York", "Office", "20000", "5000", "4000"),
		"exempt type":    fineRow("New York", "K-12 School", "100000", "5000", "4000"),
		"no size":        fineRow("Boston", "Office", "", "5000", "4000"),
	} {
		base, post, avoided := fines(t, r)
		assert.Zero(t, base, name)
		assert.Zero(t, post, name)
		assert.Zero(t, avoided, name)
	}
}

func TestFineCambridgeOwnBaseline(t *testing.T) {
	base, post, _ := fines(t, fineRow("Cambridge", "Office", "30000", "1000", "850"))
	assert.InDelta(t, 200*234.0, base, 0.01)
	assert.InDelta(t, 50*234.0, post, 0.01)
}

func TestFineSeattleBinary(t *testing.T) {
	base, post, avoided := fines(t, fineRow("Seattle", "Office", "50000", "100", "40"))
	assert.InDelta(t, 50000*10/5.0, base, 0.01)
	assert.Zero(t, post)
	assert.InDelta(t, base, avoided, 0.01)
}

func TestFineDCScoreTarget(t *testing.T) {
	office := TypeOffice
	base := lawDC.Assess(office, 100000, Performance{}, Performance{Score: 50, HasScore: true})
	post := lawDC.Assess(office, 100000, Performance{}, Performance{Score: 60, HasScore: true})
	assert.InDelta(t, 100000*10*(21.0/71)/5, base, 1e-6)
	assert.InDelta(t, 100000*10*(11.0/71)/5, post, 1e-6)
	assert.Zero(t, lawDC.Assess(office, 100000, Performance{}, Performance{Score: 80, HasScore: true}))
	assert.Zero(t, lawDC.Assess(TypeWarehouse, 100000, Performance{}, Performance{Score: 1, HasScore: true}), "no target for type")
	assert.Zero(t, lawDC.Assess(office, 100000, Performance{}, Performance{}), "no score")
}

func TestFineDCUsesPostScoreColumn(t *testing.T) {
	r := row{ColCity: "Washington", ColBuildingType: "Office", ColSqft: "100000", ColEnergyStar: "50", ColEnergyStarPost: "60"}
	base, post, avoided := fines(t, r)
	assert.Greater(t, base, post)
	assert.InDelta(t, base-post, avoided, 0.011)
}

func TestFineDenverGlidePath(t *testing.T) {
	target := TypeOffice.Profile().DenverEUITarget
	limit := 100 - (100-target)*9/13
	base := lawDenver.Assess(TypeOffice, 30000, Performance{EUI: 100}, Performance{EUI: 100})
	post := lawDenver.Assess(TypeOffice, 30000, Performance{EUI: 100}, Performance{EUI: 90})
	assert.InDelta(t, (100-limit)*30000*0.15, base, 1e-6)
	assert.InDelta(t, (90-limit)*30000*0.15, post, 1e-6)
	assert.Zero(t, lawDenver.Assess(TypeOffice, 30000, Performance{EUI: 40}, Performance{EUI: 40}), "already below target")
}

func TestFineStLouisPerDayUsesPostEUI(t *testing.T) {
	r := row{
		ColCity: "St. Louis", ColBuildingType: "Office", ColSqft: "60000", ColSiteEUI: "80",
		ColElecKBtu: "4800000", ColTotalKBtuPost: "4200000",
	}
	base, post, avoided := fines(t, r)
	assert.InDelta(t, 500*365.0, base, 0.01)
	assert.Zero(t, post, "post EUI 70 is under the cap")
	assert.InDelta(t, 500*365.0, avoided, 0.01)
}

func TestLawsAreAttachedToCities(t *testing.T) {
	covered := 0
	for c := CityDefault; c < cityCount; c++ {
		if law := c.Profile().Law; law != nil {
			covered++
			assert.Positive(t, law.Rate, law.Name)
			assert.Positive(t, law.MinSqft, law.Name)
		}
	}
	assert.Equal(t, 7, covered)
}
