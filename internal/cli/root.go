// Package cli implements the etl command: batch runs, post-load verification
// and inspection of the department directory.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/registration-etl/pkg/config"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

type configKey struct{}

// Version is set at build time.
var Version = "dev"

// NewRootCmd builds the etl command tree. load supplies the process config; a
// nil load uses config.Load.
func NewRootCmd(load func() (*config.Config, error)) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	var (
		sourceFlag string
		csvFlag    string
	)

	rootCmd := &cobra.Command{
		Use:     "etl",
		Short:   "Registration ETL: load the registration sheet into PostgreSQL",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if sourceFlag != "" {
				cfg.ETL.Source = sourceFlag
			}
			if csvFlag != "" {
				cfg.ETL.CSVPath = csvFlag
				if sourceFlag == "" {
					cfg.ETL.Source = config.SourceCSV
				}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Row source: sheets or csv (default: ETL_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&csvFlag, "csv", "", "CSV file to read instead of the spreadsheet")
	_ = rootCmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.SourceSheets, config.SourceCSV}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newDepartmentsCommand())

	return rootCmd
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	rootCmd := NewRootCmd(nil)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode distinguishes pipeline failures from usage and setup errors.
func exitCode(err error) int {
	if appErrors.IsRunScoped(err) {
		return 2
	}
	return 1
}

func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return &config.Config{}
	}
	return cfg
}
