package calc

import (
	"portfoliocalc/internal/pipeline"
)

// EmissionsStage computes baseline and post-intervention emissions in metric
// tons from per-fuel consumption and the city's factors. The reduction is the
// difference of the two sums, never a percentage of baseline.
type EmissionsStage struct {
	// ElectricityFactors overrides the grid factor for individual cities.
	ElectricityFactors map[City]float64
}

func (*EmissionsStage) Name() string { return "carbon_by_city" }

func (*EmissionsStage) Inputs() []string {
	cols := concat([]string{ColCity}, baselineEnergyCols)
	for _, f := range allFuels {
		cols = append(cols, f.postCol())
	}
	return cols
}

func (*EmissionsStage) Outputs() []string {
	return []string{ColCarbonBaseline, ColCarbonPost, ColCarbonReduction}
}

// Factors returns the emission factors applied to city c.
func (s *EmissionsStage) Factors(c City) EmissionFactors {
	ef := c.Profile().Factors
	if f, ok := s.ElectricityFactors[c]; ok {
		ef.Electricity = f
	}
	return ef
}

func (s *EmissionsStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	city, _ := ParseCity(r.Text(ColCity))
	ef := s.Factors(city)

	var base, post float64
	var hasBase, hasPost bool
	for _, f := range allFuels {
		if kbtu, ok := f.kbtu(r); ok {
			base += kbtu * f.factor(ef)
			hasBase = true
		}
		if kbtu, ok := r.Float(f.postCol()); ok && kbtu >= 0 {
			post += kbtu * f.factor(ef)
			hasPost = true
		}
	}
	out := pipeline.Values{}
	if hasBase {
		out[ColCarbonBaseline] = num(base, 4)
	}
	if hasPost {
		out[ColCarbonPost] = num(post, 4)
	}
	if hasBase && hasPost {
		out[ColCarbonReduction] = num(base-post, 4)
	}
	return out, nil
}
