package validate

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"portfoliocalc/internal/dataset"
)

// RowCountRuleName is the name of the fatal row-count rule.
const RowCountRuleName = "row_count"

type rowCountRule struct{}

// NewRowCountRule fails the run when rows were added or lost.
func NewRowCountRule() Rule { return rowCountRule{} }

func (rowCountRule) Name() string { return RowCountRuleName }

func (rowCountRule) Evaluate(_ context.Context, view View) (Result, error) {
	got := view.Table.RowCount()
	if got == view.ExpectedRows {
		return Result{}, nil
	}
	return Result{Violations: []Violation{{
		Rule:     RowCountRuleName,
		Severity: SeverityFatal,
		Message:  fmt.Sprintf("expected %d rows, found %d", view.ExpectedRows, got),
	}}}, nil
}

type columnPresenceRule struct{}

// NewColumnPresenceRule warns about declared stage outputs missing from the
// table.
func NewColumnPresenceRule() Rule { return columnPresenceRule{} }

func (columnPresenceRule) Name() string { return "column_presence" }

func (columnPresenceRule) Evaluate(_ context.Context, view View) (Result, error) {
	var res Result
	for _, c := range view.Derived {
		if !view.Table.HasColumn(c) {
			res.Violations = append(res.Violations, Violation{
				Rule: "column_presence", Severity: SeverityWarn, Column: c,
				Message: "declared output column is missing",
			})
		}
	}
	return res, nil
}

type nullRateRule struct {
	ceilings map[string]float64
}

// NewNullRateRule warns when the share of absent cells in a column exceeds
// its ceiling. Ceilings are fractions in [0, 1].
func NewNullRateRule(ceilings map[string]float64) Rule {
	return nullRateRule{ceilings: ceilings}
}

func (nullRateRule) Name() string { return "null_rate" }

func (r nullRateRule) Evaluate(_ context.Context, view View) (Result, error) {
	var res Result
	rows := view.Table.RowCount()
	if rows == 0 {
		return res, nil
	}
	for _, col := range sortedKeys(r.ceilings) {
		values := view.Table.Column(col)
		if values == nil {
			continue
		}
		nulls := 0
		for _, v := range values {
			if v.IsNull() {
				nulls++
			}
		}
		rate := float64(nulls) / float64(rows)
		if ceiling := r.ceilings[col]; rate > ceiling {
			res.Violations = append(res.Violations, Violation{
				Rule: "null_rate", Severity: SeverityWarn, Column: col,
				Message: fmt.Sprintf("null rate %.1f%% above ceiling %.1f%%", rate*100, ceiling*100),
			})
		}
	}
	return res, nil
}

// Range is a closed interval for an aggregate sum.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type aggregateRangeRule struct {
	ranges map[string]Range
}

// NewAggregateRangeRule warns when a column's dataset-wide sum leaves its
// plausible range.
func NewAggregateRangeRule(ranges map[string]Range) Rule {
	return aggregateRangeRule{ranges: ranges}
}

func (aggregateRangeRule) Name() string { return "aggregate_range" }

func (r aggregateRangeRule) Evaluate(_ context.Context, view View) (Result, error) {
	var res Result
	for _, col := range sortedKeys(r.ranges) {
		values := view.Table.Column(col)
		if values == nil {
			continue
		}
		sum := floats.Sum(numbers(values))
		if bounds := r.ranges[col]; sum < bounds.Min || sum > bounds.Max {
			res.Violations = append(res.Violations, Violation{
				Rule: "aggregate_range", Severity: SeverityWarn, Column: col,
				Message: fmt.Sprintf("sum %.2f outside [%.2f, %.2f]", sum, bounds.Min, bounds.Max),
			})
		}
	}
	return res, nil
}

const maxSample = 5

type cellCheckRule struct {
	name, column, message string
	ok                    func(cell string) bool
}

// NewCellCheckRule warns once per column with the number of cells that fail
// ok, for example unrecognised category values.
func NewCellCheckRule(name, column, message string, ok func(cell string) bool) Rule {
	return cellCheckRule{name: name, column: column, message: message, ok: ok}
}

func (r cellCheckRule) Name() string { return r.name }

func (r cellCheckRule) Evaluate(_ context.Context, view View) (Result, error) {
	values := view.Table.Column(r.column)
	bad := map[string]int{}
	for _, v := range values {
		if cell := v.Text(); !r.ok(cell) {
			bad[cell]++
		}
	}
	if len(bad) == 0 {
		return Result{}, nil
	}
	total := 0
	for _, n := range bad {
		total += n
	}
	sample := sortedKeys(bad)
	if len(sample) > maxSample {
		sample = sample[:maxSample]
	}
	return Result{Violations: []Violation{{
		Rule: r.name, Severity: SeverityWarn, Column: r.column,
		Message: fmt.Sprintf("%s: %d rows, %d distinct values, e.g. %q", r.message, total, len(bad), sample),
	}}}, nil
}

func numbers(values []dataset.Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
