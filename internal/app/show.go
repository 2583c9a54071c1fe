package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recently archived runs and the top entities of the latest one.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show runs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.Out, "no runs found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tRun\tLedger\tValid\tMalformed\tFlagged\tEntities")
	for _, run := range runs {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.CreatedAt.UTC().Format(time.RFC3339),
			run.ID,
			sanitizeInline(run.Source),
			run.Valid,
			run.Malformed,
			run.Flagged,
			run.Entities,
		)
	}
	writer.Flush()

	if opts.Top <= 0 {
		return nil
	}

	latest := runs[0]
	totals, err := store.ListEntityTotals(ctx, latest.ID, opts.Top)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		return nil
	}

	fmt.Fprintf(a.Out, "\nTop entities of run %s\n", latest.ID)
	writer = tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Entity\tSent\tReceived\tTotal")
	for _, et := range totals {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n", et.Entity, et.Sent, et.Received, et.Total)
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
