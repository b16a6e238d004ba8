package calc

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/pipeline"
)

const fallbackHVACShare = 0.45

// EnergyStarStage re-estimates the ENERGY STAR score after ventilation
// control. A score s places the building at the (1 - s/100) quantile of its
// type's gamma-distributed efficiency ratio; the reduced ratio is mapped back
// through the CDF.
type EnergyStarStage struct{}

func (EnergyStarStage) Name() string { return "energy_star_estimate" }

func (EnergyStarStage) Inputs() []string {
	return concat([]string{ColBuildingType, ColEnergyStar, ColSavingsPct}, baselineEnergyCols, shareCols())
}

func (EnergyStarStage) Outputs() []string { return []string{ColEnergyStarPost} }

func (EnergyStarStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	score, ok := r.Float(ColEnergyStar)
	if !ok {
		return nil, nil
	}
	savings, _ := r.Float(ColSavingsPct)
	if savings <= 0 {
		return pipeline.Values{ColEnergyStarPost: dataset.Number(score)}, nil
	}
	g := buildingType(r).Profile().EnergyStar
	return pipeline.Values{ColEnergyStarPost: dataset.Number(PostScore(g, score, savings, weightedHVACShare(r)))}, nil
}

// PostScore maps score through a reduction of savings×hvacShare in the
// building's efficiency ratio. The result is clamped to [1, 99].
func PostScore(g GammaParams, score, savings, hvacShare float64) float64 {
	dist := distuv.Gamma{Alpha: g.Shape, Beta: 1 / g.Scale}
	ratio := dist.Quantile(1 - clamp(score, 1, 99)/100)
	reduced := ratio * (1 - savings*hvacShare)
	return clamp(math.Round((1-dist.CDF(reduced))*100), 1, 99)
}

func weightedHVACShare(r pipeline.Row) float64 {
	var weighted, total float64
	for _, f := range allFuels {
		kbtu, ok := f.kbtu(r)
		if !ok {
			continue
		}
		pct, ok := r.Float(f.shareCol())
		if !ok {
			continue
		}
		weighted += kbtu * pct
		total += kbtu
	}
	if total <= 0 {
		return fallbackHVACShare
	}
	return weighted / total
}
