package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/registration-etl/internal/bootstrap"
	"github.com/noah-isme/registration-etl/internal/service"
	"github.com/noah-isme/registration-etl/pkg/database"
	"github.com/noah-isme/registration-etl/pkg/logger"
)

type runOptions struct {
	JSONOutput bool
	RunID      string
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract, transform and load the registration rows",
		Long: `Read every registration row from the configured source, drop duplicates and
invalid rows, then replace the contents of the department, student, course and
enrollment tables in a single transaction.

A JSON report is written to ETL_REPORT_DIR whether or not the run succeeds.`,
		Example: `  # Load from the configured Google Sheet
  etl run

  # Load from a local export
  etl run --csv ./registrations.csv --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run identifier (default: random UUID)")
	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	cfg := getConfig(ctx)

	logr, err := logger.New(cfg, "etl")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	cacheSvc, closeCache := bootstrap.Cache(ctx, cfg, metrics, logr)
	defer closeCache()

	pipeline, err := bootstrap.ETL(ctx, cfg, db, cacheSvc, metrics, logr)
	if err != nil {
		return err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report, runErr := pipeline.Run(ctx, runID, nil)

	out := cmd.OutOrStdout()
	if opts.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		renderRunReport(out, report)
	}
	return runErr
}
