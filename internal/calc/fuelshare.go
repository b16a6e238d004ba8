package calc

import (
	"context"

	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/pipeline"
)

// Bounds on the HVAC share of each fuel.
const (
	adjustmentCap = 0.12

	elecShareMin = 0.15
	elecShareMax = 0.70

	gasShareDefault = 0.75
	gasShareMin     = 0.40
	gasShareMax     = 0.98
	hotelGasMin     = 0.08
	hotelGasMax     = 0.35
	restaurantGas   = 0.18
	restaurantMin   = 0.10
	restaurantMax   = 0.28
	southernGasMult = 0.85

	steamShareMin = 0.50
	steamShareMax = 1.0

	oilShareMin        = 0.05
	oilShareMax        = 1.0
	oilBackupThreshold = 0.03
	oilBackupShare     = 0.30

	// Dampening applied to the capped adjustment for fuels whose HVAC share
	// is set mostly by process loads.
	gasSpecialDampening = 0.5
	steamOilDampening   = 0.3

	dataCenterElec = 0.42
)

// FuelShareStage estimates the fraction of each fuel that goes to HVAC.
type FuelShareStage struct {
	peers *Peers
}

func (*FuelShareStage) Name() string { return "hvac_pct" }

func (*FuelShareStage) Inputs() []string {
	return concat(peerInputs, []string{ColEnergyStar, ColSqft}, baselineEnergyCols)
}

func (*FuelShareStage) Outputs() []string { return shareCols() }

func (s *FuelShareStage) Prepare(ctx context.Context, rows pipeline.Rows) error {
	p, err := BuildPeers(ctx, rows)
	if err != nil {
		return err
	}
	s.peers = p
	return nil
}

// shareAdjustment sums the efficiency, era and intensity adjustments and caps
// the sum at plus or minus adjustmentCap. Per-fuel dampening is applied by the
// caller to this already capped value.
func (s *FuelShareStage) shareAdjustment(r pipeline.Row, t BuildingType, z ClimateZone) float64 {
	var adj float64
	if score, ok := r.Float(ColEnergyStar); ok {
		switch {
		case score >= 90:
			adj -= 0.05
		case score >= 75:
		case score >= 50:
			adj += 0.03
		default:
			adj += 0.05
		}
	}
	if year, ok := positive(r, ColYearBuilt); ok {
		switch {
		case year < 1970:
			adj += 0.04
		case year < 1990:
			adj += 0.02
		case year >= 2010:
			adj -= 0.03
		}
	}
	if eui, ok := positive(r, ColSiteEUI); ok {
		if peer, ok := s.peers.EUIMedian(t, z); ok {
			switch ratio := eui / peer; {
			case ratio > 1.5:
				adj += 0.06
			case ratio > 1.2:
				adj += 0.03
			case ratio < 0.7:
				adj -= 0.04
			case ratio < 0.85:
				adj -= 0.02
			}
		}
	}
	return clamp(adj, -adjustmentCap, adjustmentCap)
}

func (s *FuelShareStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	t := buildingType(r)
	prof := t.Profile()
	z := ParseClimateZone(r.Text(ColClimateZone))

	elec, hasElec := elecKBtu(r)
	gas, hasGas := positive(r, ColGasKBtu)
	steam, hasSteam := positive(r, ColSteamKBtu)
	oil, hasOil := positive(r, ColFuelOilKBtu)

	out := pipeline.Values{}
	if prof.EquipmentDriven {
		if hasElec {
			out[ColHVACPctElec] = dataset.Number(dataCenterElec)
		}
		for _, f := range []struct {
			has bool
			col string
		}{{hasGas, ColHVACPctGas}, {hasSteam, ColHVACPctSteam}, {hasOil, ColHVACPctFuelOil}} {
			if f.has {
				out[f.col] = dataset.Number(0)
			}
		}
		return out, nil
	}

	adj := s.shareAdjustment(r, t, z)
	if hasElec {
		base := prof.ElecBase + climates[z].elecOffset
		if !hasGas && !hasSteam {
			switch z {
			case ClimateNorthern, ClimateNorthCentral:
				base = min(base+0.15, 0.65)
			case ClimateSouthCentral:
				base = min(base+0.08, 0.55)
			}
		}
		out[ColHVACPctElec] = num(clamp(base+adj, elecShareMin, elecShareMax), 4)
	}
	if hasGas {
		out[ColHVACPctGas] = num(gasShare(r, prof.Gas, z, gas, adj), 4)
	}
	if hasSteam {
		out[ColHVACPctSteam] = num(clamp(prof.SteamBase+steamOilDampening*adj, steamShareMin, steamShareMax), 4)
	}
	if hasOil {
		base := prof.OilShare
		if total := elec + gas + steam + oil; oil/total < oilBackupThreshold {
			base = oilBackupShare
		}
		out[ColHVACPctFuelOil] = num(clamp(base+steamOilDampening*adj, oilShareMin, oilShareMax), 4)
	}
	return out, nil
}

func gasShare(r pipeline.Row, mode GasMode, z ClimateZone, gas, adj float64) float64 {
	switch mode {
	case GasHotel:
		base := 0.18
		if sqft, ok := positive(r, ColSqft); ok {
			switch intensity := gas / sqft; {
			case intensity < 15:
				base = 0.12
			case intensity < 30:
				base = 0.18
			case intensity < 50:
				base = 0.22
			default:
				base = 0.28
			}
		}
		return clamp(base+gasSpecialDampening*adj, hotelGasMin, hotelGasMax)
	case GasRestaurant:
		return clamp(restaurantGas+gasSpecialDampening*adj, restaurantMin, restaurantMax)
	default:
		base := gasShareDefault
		if z == ClimateSouthern {
			base *= southernGasMult
		}
		return clamp(base+adj, gasShareMin, gasShareMax)
	}
}
