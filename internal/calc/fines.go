package calc

import (
	"slices"

	"portfoliocalc/internal/pipeline"
)

// FineMetric is the quantity a law caps.
type FineMetric uint8

const (
	// MetricEmissions caps annual emissions at Cap tCO2e per square foot.
	MetricEmissions FineMetric = iota
	// MetricBaselineReduction caps emissions at (1 - Cap) of the building's
	// own baseline.
	MetricBaselineReduction
	// MetricScore requires the type's ENERGY STAR target.
	MetricScore
	// MetricEUIGlide caps site EUI on a glide path from the building's
	// baseline towards the type target.
	MetricEUIGlide
	// MetricEUI caps site EUI at Cap.
	MetricEUI
)

// FineShape turns an exceedance into dollars.
type FineShape uint8

const (
	// ShapeLinear charges Rate per unit of excess.
	ShapeLinear FineShape = iota
	// ShapeProrated charges Rate per square foot scaled by the share of the
	// target missed.
	ShapeProrated
	// ShapeBinary charges Rate per square foot on any exceedance.
	ShapeBinary
	// ShapePerDay charges Rate for every day of the year out of compliance.
	ShapePerDay
)

// Law describes one building performance standard. Cycle penalties are
// spread over CycleYears to give a first-year figure.
type Law struct {
	Name          string
	Metric        FineMetric
	Shape         FineShape
	Cap           float64
	Rate          float64
	CycleYears    float64
	MinSqft       float64
	Exempt        []BuildingType
	GlideFraction float64
}

var (
	lawNYC = Law{Name: "NYC LL97", Metric: MetricEmissions, Shape: ShapeLinear,
		Cap: 0.00758, Rate: 268, MinSqft: 25000, Exempt: []BuildingType{TypeK12School, TypeGovernment}}
	lawBoston = Law{Name: "Boston BERDO", Metric: MetricEmissions, Shape: ShapeLinear,
		Cap: 0.0053, Rate: 234, MinSqft: 20000}
	lawCambridge = Law{Name: "Cambridge BEUDO", Metric: MetricBaselineReduction, Shape: ShapeLinear,
		Cap: 0.20, Rate: 234, MinSqft: 25000, Exempt: []BuildingType{TypeMultifamily}}
	lawDC = Law{Name: "DC BEPS", Metric: MetricScore, Shape: ShapeProrated,
		Rate: 10, CycleYears: 5, MinSqft: 50000}
	lawDenver = Law{Name: "Energize Denver", Metric: MetricEUIGlide, Shape: ShapeLinear,
		Rate: 0.15, MinSqft: 25000, Exempt: []BuildingType{TypeK12School}, GlideFraction: 9.0 / 13.0}
	lawSeattle = Law{Name: "Seattle BEPS", Metric: MetricEmissions, Shape: ShapeBinary,
		Cap: 0.00081, Rate: 10, CycleYears: 5, MinSqft: 20000}
	lawStLouis = Law{Name: "St. Louis BEPS", Metric: MetricEUI, Shape: ShapePerDay,
		Cap: 71.7, Rate: 500, MinSqft: 50000}
)

// Performance is the measured state of a building for fine purposes.
type Performance struct {
	Emissions float64 // tCO2e per year
	EUI       float64 // kBtu per square foot
	Score     float64 // ENERGY STAR, zero when unknown
	HasScore  bool
}

// Covers reports whether the law applies to a building of type t and size
// sqft.
func (l *Law) Covers(t BuildingType, sqft float64) bool {
	return sqft >= l.MinSqft && !slices.Contains(l.Exempt, t)
}

// Assess returns the first-year fine for state cur, with base as the
// building's own baseline for laws that measure against it.
func (l *Law) Assess(t BuildingType, sqft float64, base, cur Performance) float64 {
	if !l.Covers(t, sqft) {
		return 0
	}
	// excess is in the law's billing unit: tCO2e, EUI points, kBtu over the
	// glide path, or score points.
	var excess, missed float64
	switch l.Metric {
	case MetricEmissions:
		excess = cur.Emissions - l.Cap*sqft
	case MetricBaselineReduction:
		excess = cur.Emissions - base.Emissions*(1-l.Cap)
	case MetricEUI:
		excess = cur.EUI - l.Cap
	case MetricEUIGlide:
		target := t.Profile().DenverEUITarget
		limit := base.EUI
		if base.EUI > target {
			limit = base.EUI - (base.EUI-target)*l.GlideFraction
		}
		excess = (cur.EUI - limit) * sqft
	case MetricScore:
		target := t.Profile().DCScoreTarget
		if target <= 0 || !cur.HasScore {
			return 0
		}
		excess = target - cur.Score
		missed = min(1, excess/target)
	}
	if excess <= 0 {
		return 0
	}

	var fine float64
	switch l.Shape {
	case ShapeLinear:
		fine = excess * l.Rate
	case ShapeProrated:
		fine = sqft * l.Rate * missed
	case ShapeBinary:
		fine = sqft * l.Rate
	case ShapePerDay:
		fine = l.Rate * 365
	}
	if l.CycleYears > 0 {
		fine /= l.CycleYears
	}
	return fine
}

// FineStage assesses the city's performance standard before and after
// ventilation control. Both fines are computed independently from their own
// measured state.
type FineStage struct{}

func (FineStage) Name() string { return "bps_fines" }

func (FineStage) Inputs() []string {
	return concat(
		[]string{ColCity, ColBuildingType, ColSqft, ColSiteEUI, ColEnergyStar, ColEnergyStarPost},
		[]string{ColCarbonBaseline, ColCarbonPost, ColTotalKBtuPost},
		baselineEnergyCols,
	)
}

func (FineStage) Outputs() []string {
	return []string{ColFineBaseline, ColFinePost, ColFineAvoided}
}

func (FineStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	zero := pipeline.Values{ColFineBaseline: num(0, 2), ColFinePost: num(0, 2), ColFineAvoided: num(0, 2)}

	city, _ := ParseCity(r.Text(ColCity))
	law := city.Profile().Law
	sqft, ok := positive(r, ColSqft)
	t := buildingType(r)
	if law == nil || !ok || !law.Covers(t, sqft) {
		return zero, nil
	}

	var baseTotal float64
	for _, f := range allFuels {
		if v, ok := f.kbtu(r); ok {
			baseTotal += v
		}
	}
	eui, ok := positive(r, ColSiteEUI)
	if !ok {
		eui = baseTotal / sqft
	}
	postEUI := eui
	if postTotal, ok := r.Float(ColTotalKBtuPost); ok && baseTotal > 0 {
		postEUI = eui * postTotal / baseTotal
	}

	base := Performance{EUI: eui}
	base.Emissions, _ = r.Float(ColCarbonBaseline)
	base.Score, base.HasScore = r.Float(ColEnergyStar)

	post := Performance{EUI: postEUI, Emissions: base.Emissions}
	if v, ok := r.Float(ColCarbonPost); ok {
		post.Emissions = v
	}
	post.Score, post.HasScore = r.Float(ColEnergyStarPost)
	if !post.HasScore {
		post.Score, post.HasScore = base.Score, base.HasScore
	}

	baseFine := law.Assess(t, sqft, base, base)
	postFine := law.Assess(t, sqft, base, post)
	return pipeline.Values{
		ColFineBaseline: num(baseFine, 2),
		ColFinePost:     num(postFine, 2),
		ColFineAvoided:  num(baseFine-postFine, 2),
	}, nil
}
