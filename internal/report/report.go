// Package report renders run results, run history, snapshots and stage plans
// for people reading a terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"portfoliocalc/internal/backup"
	"portfoliocalc/internal/calc"
	"portfoliocalc/internal/pipeline"
	"portfoliocalc/internal/runlog"
)

// HeadlineColumns are summarised after a run unless the caller picks others.
var HeadlineColumns = []string{
	calc.ColSavingsPct,
	calc.ColHVACCostTotal,
	calc.ColSavingsUSD,
	calc.ColCarbonReduction,
	calc.ColFineAvoided,
	calc.ColValImpact,
}

// ColumnSummary describes the numeric cells of one column.
type ColumnSummary struct {
	Column  string
	NonNull int
	Sum     float64
	P50     float64
	P90     float64
}

// Summary is the end-of-run digest.
type Summary struct {
	ID        string
	Label     string
	State     string
	BackupKey string
	Rows      int
	Elapsed   time.Duration
	Stages    []runlog.StageTiming
	Columns   []ColumnSummary
	Warnings  []string
}

// Summarize digests res. Columns absent from the table are skipped.
func Summarize(res *pipeline.Result, columns []string) Summary {
	s := Summary{
		ID:        res.ID,
		Label:     res.Label,
		State:     res.State.String(),
		BackupKey: res.BackupKey,
		Rows:      res.Rows,
		Elapsed:   res.FinishedAt.Sub(res.StartedAt),
		Stages:    res.Stages,
	}
	for _, v := range res.Validation.Warnings() {
		s.Warnings = append(s.Warnings, v.String())
	}
	if res.Table == nil {
		return s
	}
	for _, col := range columns {
		values := res.Table.Column(col)
		if values == nil {
			continue
		}
		var nums []float64
		for _, v := range values {
			if f, ok := v.Float(); ok {
				nums = append(nums, f)
			}
		}
		cs := ColumnSummary{Column: col, NonNull: len(nums)}
		if len(nums) > 0 {
			sort.Float64s(nums)
			cs.Sum = floats.Sum(nums)
			cs.P50 = stat.Quantile(0.5, stat.Empirical, nums, nil)
			cs.P90 = stat.Quantile(0.9, stat.Empirical, nums, nil)
		}
		s.Columns = append(s.Columns, cs)
	}
	return s
}

// Write renders s.
func (s Summary) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s", s.ID)
	if s.Label != "" {
		fmt.Fprintf(&b, " (%s)", s.Label)
	}
	fmt.Fprintf(&b, ": %s, %s rows in %s\n", s.State, humanize.Comma(int64(s.Rows)), s.Elapsed.Round(time.Millisecond))
	if s.BackupKey != "" {
		fmt.Fprintf(&b, "backup: %s\n", s.BackupKey)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(s.Stages) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\nSTAGE\tELAPSED")
		for _, st := range s.Stages {
			fmt.Fprintf(tw, "%s\t%s\n", st.Name, st.Duration.Round(time.Microsecond))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.Columns) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "\nCOLUMN\tROWS\tSUM\tP50\tP90\t")
		for _, c := range s.Columns {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.Column, humanize.Comma(int64(c.NonNull)),
				number(c.Sum), number(c.P50), number(c.P90))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warning(s):\n", len(s.Warnings))
		for _, warn := range s.Warnings {
			if _, err := fmt.Fprintf(w, "  %s\n", warn); err != nil {
				return err
			}
		}
	}
	return nil
}

// number renders large values with thousands separators and small ones with
// enough precision to read a share.
func number(v float64) string {
	if v != 0 && v > -10 && v < 10 {
		return humanize.FormatFloat("#,###.####", v)
	}
	return humanize.CommafWithDigits(v, 2)
}

// WriteHistory lists ledger records, newest first as given, with start
// times relative to now.
func WriteHistory(w io.Writer, records []runlog.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tSTATE\tSTARTED\tELAPSED\tROWS\tWARNINGS\tERROR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, dash(r.Label), r.State,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Duration().Round(time.Millisecond),
			humanize.Comma(int64(r.Rows)), len(r.Warnings), dash(r.Error))
	}
	return tw.Flush()
}

// WriteBackups lists snapshots.
func WriteBackups(w io.Writer, handles []backup.Handle) error {
	if len(handles) == 0 {
		_, err := fmt.Fprintln(w, "no backups found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCREATED\tSIZE\tSHA256")
	for _, h := range handles {
		sum := h.Checksum
		if len(sum) > 12 {
			sum = sum[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Key, h.CreatedAt.UTC().Format(time.RFC3339),
			humanize.IBytes(uint64(max(h.Size, 0))), dash(sum))
	}
	return tw.Flush()
}

// WritePlan lists stages in execution order with their declared columns.
func WritePlan(w io.Writer, stages []pipeline.Stage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTAGE\tREADS\tWRITES")
	for i, s := range stages {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, s.Name(), strings.Join(s.Inputs(), ","), strings.Join(s.Outputs(), ","))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
