package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/query"
)

var (
	listPage     int
	listPageSize int
	listOutput   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees one page at a time",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		page, err := query.New(st, zap.L()).FindAll(ctx, listPage, listPageSize)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), listOutput, page)
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 0, "zero-based page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 10, "employees per page (1-100)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(listCmd)
}
