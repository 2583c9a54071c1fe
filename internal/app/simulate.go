package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"flowscreen/internal/simulate"
)

// Simulate 生成一份合成账本，包含噪声、互转对以及植入的过桥交易。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Output == "" {
		return errors.New("output path is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gen := simulate.NewGenerator(simulate.Options{
		Days:       opts.Days,
		RowsPerDay: opts.RowsPerDay,
		Entities:   opts.Entities,
		Planted:    opts.Planted,
		Reciprocal: opts.Reciprocal,
		Malformed:  opts.Malformed,
		Seed:       opts.Seed,
		Delimiter:  a.Config.Ledger.Delimiter,
	}, a.Logger)
	ledger := gen.Generate()

	if dir := filepath.Dir(opts.Output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	if err := simulate.WriteCSV(file, ledger); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger file: %w", err)
	}

	a.Logger.Info().Str("path", opts.Output).
		Int("lines", len(ledger.Lines)).
		Int("planted_transactions", len(ledger.PlantedIDs)).
		Int("reciprocal_transactions", len(ledger.ReciprocalIDs)).
		Int("malformed", ledger.MalformedRows).
		Msg("synthetic ledger written")
	fmt.Fprintf(a.Out, "wrote %d lines to %s (%d planted transactions)\n", len(ledger.Lines), opts.Output, len(ledger.PlantedIDs))
	return nil
}
