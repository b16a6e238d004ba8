package calc

import (
	"gonum.org/v1/gonum/floats/scalar"

	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/pipeline"
)

const kbtuPerKWh = 3.412

// positive reads col and reports ok only for a strictly positive number.
// Zero, negative and absent consumption all mean "no consumption".
func positive(r pipeline.Row, col string) (float64, bool) {
	v, ok := r.Float(col)
	return v, ok && v > 0
}

func elecKWh(r pipeline.Row) (float64, bool) {
	if v, ok := positive(r, ColElecKWh); ok {
		return v, true
	}
	if v, ok := positive(r, ColElecKBtu); ok {
		return v / kbtuPerKWh, true
	}
	return 0, false
}

func elecKBtu(r pipeline.Row) (float64, bool) {
	if v, ok := positive(r, ColElecKBtu); ok {
		return v, true
	}
	if v, ok := positive(r, ColElecKWh); ok {
		return v * kbtuPerKWh, true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func num(v float64, places int) dataset.Value {
	return dataset.Number(scalar.Round(v, places))
}

func buildingType(r pipeline.Row) BuildingType {
	t, _ := ParseBuildingType(r.Text(ColBuildingType))
	return t
}

// fuelKind enumerates the metered fuels.
type fuelKind uint8

const (
	fuelElec fuelKind = iota
	fuelGas
	fuelSteam
	fuelOil
)

var allFuels = []fuelKind{fuelElec, fuelGas, fuelSteam, fuelOil}

func (f fuelKind) shareCol() string {
	return [...]string{ColHVACPctElec, ColHVACPctGas, ColHVACPctSteam, ColHVACPctFuelOil}[f]
}

func (f fuelKind) postCol() string {
	return [...]string{ColElecKBtuPost, ColGasKBtuPost, ColSteamKBtuPost, ColOilKBtuPost}[f]
}

func (f fuelKind) costCol() string {
	return [...]string{ColCostElecTotal, ColCostGas, ColCostSteam, ColCostFuelOil}[f]
}

func (f fuelKind) factor(ef EmissionFactors) float64 {
	return [...]float64{ef.Electricity, ef.Gas, ef.Steam, ef.FuelOil}[f]
}

// kbtu returns the baseline consumption of fuel f in kBtu.
func (f fuelKind) kbtu(r pipeline.Row) (float64, bool) {
	switch f {
	case fuelElec:
		return elecKBtu(r)
	case fuelGas:
		return positive(r, ColGasKBtu)
	case fuelSteam:
		return positive(r, ColSteamKBtu)
	default:
		return positive(r, ColFuelOilKBtu)
	}
}

var baselineEnergyCols = []string{ColElecKWh, ColElecKBtu, ColGasKBtu, ColSteamKBtu, ColFuelOilKBtu}

func shareCols() []string {
	out := make([]string, 0, len(allFuels))
	for _, f := range allFuels {
		out = append(out, f.shareCol())
	}
	return out
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
