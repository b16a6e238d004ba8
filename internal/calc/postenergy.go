package calc

import (
	"portfoliocalc/internal/pipeline"
)

// PostEnergyStage reduces each fuel's consumption by its HVAC share times the
// savings percentage.
type PostEnergyStage struct{}

func (PostEnergyStage) Name() string { return "post_odcv_energy" }

func (PostEnergyStage) Inputs() []string {
	return concat(baselineEnergyCols, shareCols(), []string{ColSavingsPct})
}

func (PostEnergyStage) Outputs() []string {
	return []string{ColElecKWhPost, ColElecKBtuPost, ColGasKBtuPost, ColSteamKBtuPost, ColOilKBtuPost, ColTotalKBtuPost}
}

func (PostEnergyStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	savings, _ := r.Float(ColSavingsPct)
	out := pipeline.Values{}
	var total float64
	for _, f := range allFuels {
		kbtu, ok := f.kbtu(r)
		if !ok {
			continue
		}
		pct, _ := r.Float(f.shareCol())
		post := kbtu * (1 - pct*savings)
		out[f.postCol()] = num(post, 2)
		total += post
		if f == fuelElec {
			kwh, _ := elecKWh(r)
			out[ColElecKWhPost] = num(kwh*(1-pct*savings), 2)
		}
	}
	if total > 0 {
		out[ColTotalKBtuPost] = num(total, 2)
	}
	return out, nil
}

// TotalsStage sums the HVAC portion of energy and cost across fuels.
type TotalsStage struct{}

func (TotalsStage) Name() string { return "hvac_totals" }

func (TotalsStage) Inputs() []string {
	cols := concat(baselineEnergyCols, shareCols())
	for _, f := range allFuels {
		cols = append(cols, f.costCol())
	}
	return cols
}

func (TotalsStage) Outputs() []string { return []string{ColHVACEnergyTotal, ColHVACCostTotal} }

func (TotalsStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	out := pipeline.Values{}
	var energy, cost float64
	var hasEnergy, hasCost bool
	for _, f := range allFuels {
		pct, ok := r.Float(f.shareCol())
		if !ok {
			continue
		}
		if kbtu, ok := f.kbtu(r); ok {
			energy += kbtu * pct
			hasEnergy = true
		}
		if c, ok := positive(r, f.costCol()); ok {
			cost += c * pct
			hasCost = true
		}
	}
	if hasEnergy {
		out[ColHVACEnergyTotal] = num(energy, 2)
	}
	if hasCost {
		out[ColHVACCostTotal] = num(cost, 2)
	}
	return out, nil
}
