// Package validate checks a computed dataset before it is committed. Only the
// row-count rule is fatal; every other rule produces warnings for review.
package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portfoliocalc/internal/dataset"
)

// ErrRowCountChanged is wrapped by the Failure returned when the computed
// table does not have the row count of the dataset that was backed up.
var ErrRowCountChanged = errors.New("row count changed")

// Severity captures rule outcomes.
type Severity string

const (
	// SeverityFatal blocks the commit.
	SeverityFatal Severity = "fatal"
	// SeverityWarn is reported but allows the commit.
	SeverityWarn Severity = "warn"
)

// Violation is one finding of one rule.
type Violation struct {
	Rule     string
	Severity Severity
	Column   string
	Message  string
}

func (v Violation) String() string {
	if v.Column == "" {
		return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Rule, v.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", v.Severity, v.Rule, v.Column, v.Message)
}

// Result aggregates violations.
type Result struct {
	Violations []Violation
}

// Merge appends other's violations.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
}

// HasFatal reports whether any violation blocks the commit.
func (r Result) HasFatal() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Warnings returns the non-fatal violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityFatal {
			out = append(out, v)
		}
	}
	return out
}

// View is what a rule inspects: the computed table, the row count recorded
// when the backup was taken and the columns the stages declared.
type View struct {
	Table        *dataset.Table
	ExpectedRows int
	Derived      []string
}

// Rule is one integrity or plausibility check.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view View) (Result, error)
}

// Engine runs rules in registration order.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine with the given rules.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Register appends a rule.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs every rule and merges the results. A rule error stops
// evaluation; fatal violations are returned in the result, not as an error.
func (e *Engine) Evaluate(ctx context.Context, view View) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}

// Failure is the error form of a result with fatal violations.
type Failure struct {
	Violations []Violation
	// BackupKey names the snapshot to restore, when known.
	BackupKey string
}

func (f *Failure) Error() string {
	msgs := make([]string, 0, len(f.Violations))
	for _, v := range f.Violations {
		if v.Severity == SeverityFatal {
			msgs = append(msgs, v.Rule+": "+v.Message)
		}
	}
	msg := "validation failed: " + strings.Join(msgs, "; ")
	if f.BackupKey != "" {
		msg += fmt.Sprintf(" (restore backup %s if the dataset is suspect)", f.BackupKey)
	}
	return msg
}

// Unwrap exposes ErrRowCountChanged when the row-count rule fired.
func (f *Failure) Unwrap() error {
	for _, v := range f.Violations {
		if v.Rule == RowCountRuleName && v.Severity == SeverityFatal {
			return ErrRowCountChanged
		}
	}
	return nil
}
