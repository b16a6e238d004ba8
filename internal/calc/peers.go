package calc

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"portfoliocalc/internal/pipeline"
)

// defaultYearBuilt stands in when no building of a type reports a year.
const defaultYearBuilt = 1982

type peerKey struct {
	t BuildingType
	z ClimateZone
}

// Peers are dataset-wide medians used to compare a building with others of
// its type. They depend only on input columns, so every run over the same
// inputs sees the same peers.
type Peers struct {
	euiByTypeClimate map[peerKey]float64
	euiByType        map[BuildingType]float64
	yearByType       map[BuildingType]float64
}

var peerInputs = []string{ColBuildingType, ColClimateZone, ColSiteEUI, ColYearBuilt}

// BuildPeers scans rows once and computes the medians.
func BuildPeers(ctx context.Context, rows pipeline.Rows) (*Peers, error) {
	euiTC := map[peerKey][]float64{}
	euiT := map[BuildingType][]float64{}
	yearT := map[BuildingType][]float64{}
	for i := 0; i < rows.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r := rows.Row(i)
		t := buildingType(r)
		if eui, ok := positive(r, ColSiteEUI); ok {
			k := peerKey{t: t, z: ParseClimateZone(r.Text(ColClimateZone))}
			euiTC[k] = append(euiTC[k], eui)
			euiT[t] = append(euiT[t], eui)
		}
		if y, ok := positive(r, ColYearBuilt); ok {
			yearT[t] = append(yearT[t], y)
		}
	}
	p := &Peers{
		euiByTypeClimate: make(map[peerKey]float64, len(euiTC)),
		euiByType:        make(map[BuildingType]float64, len(euiT)),
		yearByType:       make(map[BuildingType]float64, len(yearT)),
	}
	for k, v := range euiTC {
		p.euiByTypeClimate[k] = median(v)
	}
	for k, v := range euiT {
		p.euiByType[k] = median(v)
	}
	for k, v := range yearT {
		p.yearByType[k] = median(v)
	}
	return p, nil
}

// median averages the two middle values for even counts.
func median(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// EUIMedian returns the peer median for t in zone z, falling back to all of
// type t.
func (p *Peers) EUIMedian(t BuildingType, z ClimateZone) (float64, bool) {
	if p == nil {
		return 0, false
	}
	if m, ok := p.euiByTypeClimate[peerKey{t: t, z: z}]; ok && m > 0 {
		return m, true
	}
	m, ok := p.euiByType[t]
	return m, ok && m > 0
}

// TypeEUIMedian returns the median site EUI across all buildings of type t.
func (p *Peers) TypeEUIMedian(t BuildingType) (float64, bool) {
	if p == nil {
		return 0, false
	}
	m, ok := p.euiByType[t]
	return m, ok && m > 0
}

// YearBuilt returns the median year built for t.
func (p *Peers) YearBuilt(t BuildingType) float64 {
	if p != nil {
		if y, ok := p.yearByType[t]; ok {
			return y
		}
	}
	return defaultYearBuilt
}
