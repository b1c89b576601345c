package cli

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/registration-etl/pkg/config"
)

func newDepartmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "Print the department names, heads and accepted aliases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			dir, err := config.LoadDepartments(cfg.ETL.DepartmentsFile)
			if err != nil {
				return err
			}
			renderDepartments(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
