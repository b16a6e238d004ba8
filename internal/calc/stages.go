package calc

import (
	"portfoliocalc/internal/pipeline"
)

// Options tune the calculators without changing their formulas.
type Options struct {
	// ElectricityFactors replaces the grid emission factor (tCO2e/kBtu) for
	// the listed cities.
	ElectricityFactors map[City]float64
}

// Stages returns the full calculator set in execution order. Every call
// returns fresh stage values, so peer lookups prepared for one run never leak
// into another.
func Stages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		VerticalStage{},
		&FuelShareStage{},
		NewBaselineCostStage(),
		&SavingsStage{},
		PostEnergyStage{},
		NewPostCostStage(),
		TotalsStage{},
		&EmissionsStage{ElectricityFactors: opts.ElectricityFactors},
		EnergyStarStage{},
		FineStage{},
		ValuationStage{},
	}
}

// RecognisedType reports whether a bldg_type cell names a known type. Blank
// cells count as recognised; they are simply missing.
func RecognisedType(cell string) bool {
	if cell == "" {
		return true
	}
	_, ok := ParseBuildingType(cell)
	return ok
}
