package calc

import (
	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/pipeline"
)

// VerticalStage rolls bldg_type up to its market vertical.
type VerticalStage struct{}

func (VerticalStage) Name() string      { return "align_verticals" }
func (VerticalStage) Inputs() []string  { return []string{ColBuildingType} }
func (VerticalStage) Outputs() []string { return []string{ColVertical} }

func (VerticalStage) Compute(r pipeline.Row) (pipeline.Values, error) {
	if r.Value(ColBuildingType).IsNull() {
		return nil, nil
	}
	return pipeline.Values{ColVertical: dataset.String(string(buildingType(r).Profile().Vertical))}, nil
}
