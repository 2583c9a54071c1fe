package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowscreen/internal/app"
)

var (
	showLimit int
	showTop   int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recently archived screening runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Limit: showLimit,
			Top:   showTop,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of runs to display")
	showCmd.Flags().IntVar(&showTop, "top", 10, "Top entities of the latest run to display (0 to hide)")
}
