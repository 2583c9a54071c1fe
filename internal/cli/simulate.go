package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"flowscreen/internal/app"
)

var simulateOpts app.SimulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "生成带有植入过桥交易的合成账本",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateOpts.Days <= 0 || simulateOpts.RowsPerDay < 0 {
			return errors.New("--days 必须大于 0, --rows-per-day 不能为负")
		}
		if simulateOpts.Planted < 0 || simulateOpts.Reciprocal < 0 || simulateOpts.Malformed < 0 {
			return errors.New("--planted, --reciprocal 与 --malformed 不能为负")
		}
		return getApp().Simulate(cmd.Context(), simulateOpts)
	},
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateOpts.Output, "output", "o", "transactions.csv", "Path of the generated ledger")
	simulateCmd.Flags().IntVar(&simulateOpts.Days, "days", 30, "Number of calendar days")
	simulateCmd.Flags().IntVar(&simulateOpts.RowsPerDay, "rows-per-day", 200, "Noise transactions per day")
	simulateCmd.Flags().IntVar(&simulateOpts.Entities, "entities", 500, "Size of the noise entity pool")
	simulateCmd.Flags().IntVar(&simulateOpts.Planted, "planted", 10, "Pass-through pairs to plant")
	simulateCmd.Flags().IntVar(&simulateOpts.Reciprocal, "reciprocal", 10, "Back-and-forth pairs that must not be flagged")
	simulateCmd.Flags().IntVar(&simulateOpts.Malformed, "malformed", 5, "Malformed rows to mix in")
	simulateCmd.Flags().Int64Var(&simulateOpts.Seed, "seed", 1, "Random seed")
}
