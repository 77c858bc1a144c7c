package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/query"
)

var findOutput string

var findCmd = &cobra.Command{
	Use:   "find NAME",
	Short: "Find employees by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		employees, err := query.New(st, zap.L()).FindByName(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), findOutput, employees)
	},
}

func init() {
	findCmd.Flags().StringVarP(&findOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(findCmd)
}
