package calc

import (
	"portfoliocalc/internal/pipeline"
)

// Billing conversion and all-in multipliers.
const (
	hoursPerYear      = 8760
	defaultLoadFactor = 0.45
	energyAllIn       = 1.10
	demandAllIn       = 1.265
	kbtuPerTherm      = 100
	kbtuPerMlb        = 909
	kbtuPerMMBtu      = 1000
)

// costColumns names the consumption a cost stage reads and the columns it
// writes. Peak is empty when the stage does not publish peak demand.
type costColumns struct {
	elecKWh, elecKBtu, gas, steam, oil string

	peak, elecEnergy, elecDemand, elecTotal string
	gasCost, steamCost, oilCost             string
}

// CostStage converts consumption to annual cost at the building's tariffs.
// The same calculation prices baseline and post-intervention consumption.
type CostStage struct {
	name string
	cols costColumns
}

// NewBaselineCostStage prices metered consumption.
func NewBaselineCostStage() *CostStage {
	return &CostStage{name: "energy_costs", cols: costColumns{
		elecKWh: ColElecKWh, elecKBtu: ColElecKBtu, gas: ColGasKBtu, steam: ColSteamKBtu, oil: ColFuelOilKBtu,
		peak: ColPeakKW, elecEnergy: ColCostElecEnergy, elecDemand: ColCostElecDemand, elecTotal: ColCostElecTotal,
		gasCost: ColCostGas, steamCost: ColCostSteam, oilCost: ColCostFuelOil,
	}}
}

// NewPostCostStage prices consumption after ventilation control.
func NewPostCostStage() *CostStage {
	return &CostStage{name: "post_odcv_costs", cols: costColumns{
		elecKWh: ColElecKWhPost, elecKBtu: ColElecKBtuPost, gas: ColGasKBtuPost, steam: ColSteamKBtuPost, oil: ColOilKBtuPost,
		elecEnergy: ColCostElecEnergyPost, elecDemand: ColCostElecDemandPost, elecTotal: ColCostElecTotalPost,
		gasCost: ColCostGasPost, steamCost: ColCostSteamPost, oilCost: ColCostFuelOilPost,
	}}
}

func (s *CostStage) Name() string { return s.name }

func (s *CostStage) Inputs() []string {
	return []string{
		s.cols.elecKWh, s.cols.elecKBtu, s.cols.gas, s.cols.steam, s.cols.oil,
		ColRateKWh, ColRateDemand, ColLoadFactor, ColRateTherm, ColRateSteamMlb, ColRateOilMMBtu,
	}
}

func (s *CostStage) Outputs() []string {
	out := []string{s.cols.elecEnergy, s.cols.elecDemand, s.cols.elecTotal, s.cols.gasCost, s.cols.steamCost, s.cols.oilCost}
	if s.cols.peak != "" {
		out = append([]string{s.cols.peak}, out...)
	}
	return out
}

func (s *CostStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	c := s.cols
	out := pipeline.Values{}

	kwh, ok := positive(r, c.elecKWh)
	if !ok {
		if kbtu, okb := positive(r, c.elecKBtu); okb {
			kwh, ok = kbtu/kbtuPerKWh, true
		}
	}
	if ok {
		lf, lok := positive(r, ColLoadFactor)
		if !lok || lf > 1 {
			lf = defaultLoadFactor
		}
		peak := kwh / (hoursPerYear * lf)
		if c.peak != "" {
			out[c.peak] = num(peak, 2)
		}
		if rate, rok := positive(r, ColRateKWh); rok {
			energy := kwh * rate * energyAllIn
			var demand float64
			if d, dok := positive(r, ColRateDemand); dok {
				demand = peak * d * 12 * demandAllIn
			}
			out[c.elecEnergy] = num(energy, 2)
			out[c.elecDemand] = num(demand, 2)
			out[c.elecTotal] = num(energy+demand, 2)
		}
	}

	priceFuel(r, out, c.gas, ColRateTherm, c.gasCost, kbtuPerTherm, energyAllIn)
	priceFuel(r, out, c.steam, ColRateSteamMlb, c.steamCost, kbtuPerMlb, 1)
	priceFuel(r, out, c.oil, ColRateOilMMBtu, c.oilCost, kbtuPerMMBtu, energyAllIn)
	return out, nil
}

func priceFuel(r pipeline.Row, out pipeline.Values, useCol, rateCol, costCol string, unit, mult float64) {
	kbtu, ok := positive(r, useCol)
	if !ok {
		return
	}
	rate, ok := positive(r, rateCol)
	if !ok {
		return
	}
	out[costCol] = num(kbtu/unit*rate*mult, 2)
}
