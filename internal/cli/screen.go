package cli

import (
	"github.com/spf13/cobra"

	"flowscreen/internal/app"
	"flowscreen/internal/config"
)

var (
	screenInput       string
	screenOutDir      string
	screenXLSX        string
	screenChart       string
	screenTop         int
	screenBatchSize   int
	screenRatio       float64
	screenDelimiter   string
	screenOnDuplicate string
	screenNoHeader    bool
	screenNoArchive   bool
)

var screenCmd = &cobra.Command{
	Use:   "screen [ledger]",
	Short: "Flag pass-through transaction pairs in a ledger",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if len(args) == 1 {
			screenInput = args[0]
		}
		if err := applyScreenFlags(cmd, a.Config); err != nil {
			return err
		}

		return a.Screen(cmd.Context(), app.ScreenOptions{
			Input:       screenInput,
			SkipArchive: screenNoArchive,
		})
	},
}

// applyScreenFlags lets explicitly set flags override file and env configuration.
func applyScreenFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.Output.Dir = screenOutDir
	}
	if flags.Changed("xlsx") {
		cfg.Output.XLSXFile = screenXLSX
	}
	if flags.Changed("chart") {
		cfg.Output.ChartFile = screenChart
	}
	if flags.Changed("top") {
		cfg.Output.TopEntities = screenTop
	}
	if flags.Changed("batch-size") {
		cfg.Ledger.BatchSize = screenBatchSize
	}
	if flags.Changed("ratio") {
		cfg.Ledger.AmountRatio = screenRatio
	}
	if flags.Changed("delimiter") {
		cfg.Ledger.Delimiter = screenDelimiter
	}
	if flags.Changed("on-duplicate") {
		cfg.Ledger.OnDuplicate = screenOnDuplicate
	}
	if flags.Changed("no-header") {
		cfg.Ledger.HasHeader = !screenNoHeader
	}
	return cfg.Validate()
}

func init() {
	screenCmd.Flags().StringVarP(&screenInput, "input", "i", "transactions.csv", "Ledger file path or http(s) URL")
	screenCmd.Flags().StringVarP(&screenOutDir, "out-dir", "o", "", "Directory for report artifacts")
	screenCmd.Flags().StringVar(&screenXLSX, "xlsx", "", "Also write an XLSX workbook with this file name")
	screenCmd.Flags().StringVar(&screenChart, "chart", "", "Also write a PNG chart of top entities with this file name")
	screenCmd.Flags().IntVar(&screenTop, "top", 0, "Number of entities in the summary and chart (0 = all)")
	screenCmd.Flags().IntVar(&screenBatchSize, "batch-size", 0, "Time buckets per detection batch")
	screenCmd.Flags().Float64Var(&screenRatio, "ratio", 0, "Minimum forwarded/received amount ratio")
	screenCmd.Flags().StringVar(&screenDelimiter, "delimiter", "", "Field delimiter inside a ledger line")
	screenCmd.Flags().StringVar(&screenOnDuplicate, "on-duplicate", "", "Duplicate transaction policy: fail or keep_first")
	screenCmd.Flags().BoolVar(&screenNoHeader, "no-header", false, "Ledger has no header row")
	screenCmd.Flags().BoolVar(&screenNoArchive, "no-archive", false, "Do not archive the run even if a database is configured")
}
