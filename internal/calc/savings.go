package calc

import (
	"context"

	"portfoliocalc/internal/pipeline"
)

// Defaults for buildings that do not report the savings inputs.
const (
	defaultUtilization = 0.60
	defaultVacancy     = 0.15
	defaultSqft        = 89000
	dampenedFactor     = 0.3
)

// SavingsStage estimates the fraction of HVAC energy that occupancy-based
// ventilation control saves.
type SavingsStage struct {
	peers *Peers
}

func (*SavingsStage) Name() string { return "odcv_savings" }

func (*SavingsStage) Inputs() []string {
	return concat(peerInputs, []string{ColSqft, ColVacancy, ColUtilization, ColEnergyStar})
}

func (*SavingsStage) Outputs() []string { return []string{ColSavingsPct} }

func (s *SavingsStage) Prepare(ctx context.Context, rows pipeline.Rows) error {
	p, err := BuildPeers(ctx, rows)
	if err != nil {
		return err
	}
	s.peers = p
	return nil
}

func (s *SavingsStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	t := buildingType(r)
	prof := t.Profile()
	if prof.Opportunity == OpportunityNone {
		return pipeline.Values{ColSavingsPct: num(0, 4)}, nil
	}

	util := rateOr(r, ColUtilization, defaultUtilization)
	vacancy := rateOr(r, ColVacancy, defaultVacancy)
	opp := opportunity(prof.Opportunity, vacancy, util)

	year, ok := positive(r, ColYearBuilt)
	if !ok {
		year = s.peers.YearBuilt(t)
	}
	sqft, ok := positive(r, ColSqft)
	if !ok {
		sqft = defaultSqft
	}
	automation := (yearScore(year) + sizeScore(sqft)) / 2

	base := prof.SavingsFloor + opp*automation*(prof.SavingsCeiling-prof.SavingsFloor)
	z := ParseClimateZone(r.Text(ColClimateZone))
	pct := base * s.efficiency(r, t) * climates[z].savingsMultiplier
	return pipeline.Values{ColSavingsPct: num(clamp(pct, prof.SavingsFloor, prof.SavingsCeiling), 4)}, nil
}

// rateOr reads a 0..1 rate. Values above 1 are read as percentages.
func rateOr(r pipeline.Row, col string, def float64) float64 {
	v, ok := r.Float(col)
	if !ok || v < 0 {
		return def
	}
	if v > 1 {
		v /= 100
	}
	return clamp(v, 0, 1)
}

func opportunity(variant OpportunityVariant, vacancy, util float64) float64 {
	switch variant {
	case OpportunityVacancy:
		return vacancy + (1-vacancy)*(1-util)
	case OpportunityDampened:
		return (1 - util) * dampenedFactor
	case OpportunityNone:
		return 0
	default:
		return 1 - util
	}
}

func yearScore(year float64) float64 {
	switch {
	case year < 1970:
		return 0
	case year < 1990:
		return 0.25
	case year < 2005:
		return 0.5
	case year < 2015:
		return 0.75
	default:
		return 1
	}
}

func sizeScore(sqft float64) float64 {
	switch {
	case sqft < 50000:
		return 0.25
	case sqft < 100000:
		return 0.5
	case sqft < 250000:
		return 0.75
	default:
		return 1
	}
}

// efficiency scales savings up for poor performers. The ENERGY STAR score
// wins over the EUI comparison when both are present.
func (s *SavingsStage) efficiency(r pipeline.Row, t BuildingType) float64 {
	if score, ok := r.Float(ColEnergyStar); ok {
		switch {
		case score >= 90:
			return 0.85
		case score >= 75:
			return 0.95
		case score >= 50:
			return 1.00
		case score >= 25:
			return 1.05
		default:
			return 1.10
		}
	}
	eui, ok := positive(r, ColSiteEUI)
	if !ok {
		return 1.0
	}
	peer, ok := s.peers.TypeEUIMedian(t)
	if !ok {
		return 1.0
	}
	switch ratio := eui / peer; {
	case ratio > 1.5:
		return 1.10
	case ratio > 1.2:
		return 1.05
	case ratio > 0.85:
		return 1.00
	case ratio > 0.70:
		return 0.95
	default:
		return 0.90
	}
}
