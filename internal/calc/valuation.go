package calc

import (
	"portfoliocalc/internal/pipeline"
)

// Income capitalisation assumptions: energy is 12% of gross income and net
// operating income is 60% of gross.
const (
	energyShareOfIncome = 0.12
	noiMargin           = 0.60
)

// ValuationStage turns the annual savings and fine avoidance into operating
// expense avoided and, for income-producing types with a cap rate, a change
// in property value.
type ValuationStage struct{}

func (ValuationStage) Name() string { return "valuation" }

func (ValuationStage) Inputs() []string {
	cols := []string{ColBuildingType, ColCapRate, ColHVACCostTotal, ColSavingsPct, ColFineAvoided}
	for _, f := range allFuels {
		cols = append(cols, f.costCol())
	}
	return cols
}

func (ValuationStage) Outputs() []string {
	return []string{ColSavingsUSD, ColOpexAvoided, ColValCurrent, ColValPost, ColValImpact}
}

func (ValuationStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	hvacCost, _ := r.Float(ColHVACCostTotal)
	savingsPct, _ := r.Float(ColSavingsPct)
	fineAvoided, _ := r.Float(ColFineAvoided)

	savings := hvacCost * savingsPct
	opex := savings + fineAvoided
	out := pipeline.Values{
		ColSavingsUSD:  num(savings, 2),
		ColOpexAvoided: num(opex, 2),
	}

	if !buildingType(r).Profile().Commercial {
		return out, nil
	}
	capRate, ok := positive(r, ColCapRate)
	if !ok {
		return out, nil
	}
	if capRate > 1 {
		capRate /= 100
	}
	var energyCost float64
	for _, f := range allFuels {
		if c, ok := positive(r, f.costCol()); ok {
			energyCost += c
		}
	}
	impact := opex / capRate
	current := energyCost / energyShareOfIncome * noiMargin / capRate
	out[ColValImpact] = num(impact, 2)
	out[ColValCurrent] = num(current, 2)
	out[ColValPost] = num(current+impact, 2)
	return out, nil
}
