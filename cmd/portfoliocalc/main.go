// Command portfoliocalc runs the building calculators over a portfolio file:
// snapshot, compute, validate, then replace the file in one step.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfoliocalc/internal/backup"
	"portfoliocalc/internal/blob"
	"portfoliocalc/internal/calc"
	"portfoliocalc/internal/config"
	"portfoliocalc/internal/infra/persistence"
	"portfoliocalc/internal/logging"
	"portfoliocalc/internal/metrics"
	"portfoliocalc/internal/pipeline"
	"portfoliocalc/internal/report"
	"portfoliocalc/internal/runlog"
	"portfoliocalc/internal/validate"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		exitFunc(1)
	}
}

type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	root := &cobra.Command{
		Use:   "portfoliocalc",
		Short: "Compute HVAC savings, emissions, fines and valuation for a building portfolio",
		Long: `portfoliocalc enriches a portfolio CSV with derived columns.

Every run snapshots the file first, computes every stage in dependency order,
checks the result and only then replaces the file. A failed run leaves the
file exactly as it was; the snapshot key is printed so it can be restored.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.runCmd(), a.planCmd(), a.historyCmd(), a.backupsCmd(), a.restoreCmd(), a.configCmd())
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) datasetPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.cfg.Dataset.Path != "" {
		return a.cfg.Dataset.Path, nil
	}
	return "", errors.New("no dataset: pass a path or set dataset.path")
}

func (a *app) backups(ctx context.Context) (*backup.Manager, error) {
	s := a.cfg.BlobSettings()
	store, err := blob.Open(ctx, s)
	if err != nil {
		return nil, &backup.BackupError{Op: "open store", Path: s.FSRoot, Err: err}
	}
	return backup.New(store,
		backup.WithLogger(a.logger),
		backup.WithMinFree(a.cfg.Backup.MinFreeBytes),
		backup.WithFormat(a.cfg.DatasetOptions()),
	), nil
}

func (a *app) stages() ([]pipeline.Stage, error) {
	opts, err := a.cfg.CalcOptions()
	if err != nil {
		return nil, err
	}
	return calc.Stages(opts), nil
}

func (a *app) validator() *validate.Engine {
	e := validate.NewEngine(
		validate.NewRowCountRule(),
		validate.NewColumnPresenceRule(),
		validate.NewCellCheckRule("building_type", calc.ColBuildingType, "unrecognised building type", calc.RecognisedType),
	)
	for _, r := range a.cfg.Rules() {
		e.Register(r)
	}
	return e
}

func (a *app) runCmd() *cobra.Command {
	var (
		label   string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "run [dataset.csv]",
		Short: "Back up, compute, validate and commit the dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := a.datasetPath(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				a.cfg.Pipeline.Workers = workers
			}
			stages, err := a.stages()
			if err != nil {
				return err
			}
			mgr, err := a.backups(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", pipeline.Classify(err), err)
			}

			var ledger runlog.Store
			if store, err := persistence.Open(ctx, a.cfg.Ledger); err != nil {
				a.logger.Warn("run ledger unavailable, continuing without it", zap.Error(err))
			} else {
				ledger = store
				defer func() { _ = store.Close() }()
			}

			runner, err := pipeline.NewRunner(calc.InputColumns, stages, mgr,
				pipeline.WithLogger(a.logger),
				pipeline.WithValidator(a.validator()),
				pipeline.WithLedger(ledger),
				pipeline.WithMetrics(metrics.New(), a.cfg.Metrics.Textfile),
				pipeline.WithFormat(a.cfg.DatasetOptions()),
				pipeline.WithWorkers(a.cfg.Pipeline.Workers),
				pipeline.WithIDColumn(calc.ColBuildingID),
			)
			if err != nil {
				return fmt.Errorf("%s: %w", pipeline.Classify(err), err)
			}

			res, runErr := runner.Run(ctx, path, label)
			if err := report.Summarize(res, report.HeadlineColumns).Write(cmd.OutOrStdout()); err != nil {
				a.logger.Warn("summary output failed", zap.Error(err))
			}
			if runErr != nil {
				return fmt.Errorf("%s: %w", pipeline.Classify(runErr), runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "human-readable run label")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "row workers per stage (0 = GOMAXPROCS)")
	return cmd
}

func (a *app) planCmd() *cobra.Command {
	var derive bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the stage order and the columns each stage reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages, err := a.stages()
			if err != nil {
				return err
			}
			if derive {
				if stages, err = pipeline.Sort(calc.InputColumns, stages); err != nil {
					return err
				}
			}
			plan, err := pipeline.New(calc.InputColumns, stages...)
			if err != nil {
				return err
			}
			return report.WritePlan(cmd.OutOrStdout(), plan.Stages())
		},
	}
	cmd.Flags().BoolVar(&derive, "derive", false, "derive the order from declared columns instead of using the built-in order")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent run attempts from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := persistence.Open(cmd.Context(), a.cfg.Ledger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), records, a.now())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 = all)")
	return cmd
}

func (a *app) backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups [dataset.csv]",
		Short: "List snapshots of the dataset, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.datasetPath(args)
			if err != nil {
				return err
			}
			mgr, err := a.backups(cmd.Context())
			if err != nil {
				return err
			}
			handles, err := mgr.List(cmd.Context(), path)
			if err != nil {
				return err
			}
			return report.WriteBackups(cmd.OutOrStdout(), handles)
		},
	}
}

func (a *app) restoreCmd() *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the dataset with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				path, err := a.datasetPath(nil)
				if err != nil {
					return err
				}
				dest = path
			}
			mgr, err := a.backups(cmd.Context())
			if err != nil {
				return err
			}
			if err := mgr.Restore(cmd.Context(), args[0], dest); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], dest)
			return err
		},
	}
	cmd.Flags().StringVar(&dest, "to", "", "file to replace (defaults to dataset.path)")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
