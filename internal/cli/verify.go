package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/registration-etl/internal/repository"
	"github.com/noah-isme/registration-etl/pkg/database"
)

// errIntegrity is returned when any post-load check found violations.
var errIntegrity = errors.New("integrity checks failed")

func newVerifyCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the loaded tables for counts and referential problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)

			db, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			report, err := repository.NewVerifyRepository(db).Verify(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderVerification(out, report)
			}
			if !report.Healthy() {
				return errIntegrity
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the verification report as JSON")
	return cmd
}
