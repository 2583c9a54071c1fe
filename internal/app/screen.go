package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"flowscreen/internal/alerting"
	"flowscreen/internal/ledger"
	"flowscreen/internal/report"
	"flowscreen/internal/service"
	"flowscreen/internal/storage"
	"flowscreen/internal/tally"
)

// Screen reads a ledger, flags pass-through pairs and hands the result to every sink.
func (a *App) Screen(ctx context.Context, opts ScreenOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	src, err := a.newSource(opts.Input)
	if err != nil {
		return err
	}

	lines, err := src.ReadLines(ctx)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	a.Logger.Info().Str("source", src.Name()).Int("lines", len(lines)).Msg("ledger read")

	svc := service.New(a.Config.Ledger, a.Logger)
	res, err := svc.Screen(ctx, lines)
	if err != nil {
		return fmt.Errorf("screen ledger: %w", err)
	}
	if res.Empty() {
		a.Logger.Warn().Err(ledger.ErrEmptyInput).Msg("writing header-only tables")
	}

	tables := report.Tables{Flagged: res.Flagged, Entities: res.Entities}
	for _, sink := range a.newSinks() {
		if err := sink.Write(tables); err != nil {
			return err
		}
	}

	if !opts.SkipArchive {
		if err := a.archive(ctx, src.Name(), res); err != nil {
			return err
		}
	}

	a.notify(ctx, src.Name(), res)

	a.Logger.Info().Str("run_id", res.RunID.String()).
		Dur("elapsed", time.Since(started)).
		Msg("screening finished")
	printSummary(a.Out, src.Name(), res, a.Config.Output.TopEntities)
	return nil
}

func (a *App) archive(ctx context.Context, sourceName string, res service.Result) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; run not archived")
		return nil
	}
	if closeStore != nil {
		defer closeStore()
	}

	runID := res.RunID.String()
	run := storage.RunRecord{
		ID:         runID,
		Source:     sourceName,
		Lines:      res.Stats.Lines,
		Valid:      res.Stats.Valid,
		Malformed:  res.Stats.Malformed,
		Duplicates: res.Stats.Duplicates,
		Buckets:    res.Stats.Buckets,
		Batches:    res.Stats.Batches,
		Flagged:    res.Stats.Flagged,
		Entities:   res.Stats.Entities,
	}
	if err := store.InsertRun(ctx, run,
		storage.FlaggedFromRecords(runID, res.Flagged),
		storage.TotalsFromTallies(runID, res.Entities),
	); err != nil {
		return err
	}

	a.Logger.Info().Str("run_id", runID).Msg("run archived")
	return nil
}

func (a *App) notify(ctx context.Context, sourceName string, res service.Result) {
	notifier := a.newNotifier()
	if notifier == nil {
		return
	}
	if res.Stats.Flagged < a.Config.Alerting.MinFlagged {
		a.Logger.Debug().Int("flagged", res.Stats.Flagged).
			Int("min_flagged", a.Config.Alerting.MinFlagged).
			Msg("below alerting threshold")
		return
	}

	note := alerting.Notification{
		RunID:       res.RunID.String(),
		Source:      sourceName,
		FinishedAt:  time.Now().UTC(),
		Valid:       res.Stats.Valid,
		Malformed:   res.Stats.Malformed,
		Flagged:     res.Stats.Flagged,
		Entities:    res.Stats.Entities,
		TopEntities: tally.Top(res.Entities, 5),
	}
	if err := notifier.Notify(ctx, note); err != nil {
		a.Logger.Error().Err(err).Str("run_id", note.RunID).Msg("run summary notification failed")
	}
}

func printSummary(out io.Writer, sourceName string, res service.Result, top int) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Run\t%s\n", res.RunID)
	fmt.Fprintf(writer, "Ledger\t%s\n", sourceName)
	fmt.Fprintf(writer, "Lines\t%d\n", res.Stats.Lines)
	fmt.Fprintf(writer, "Valid\t%d\n", res.Stats.Valid)
	fmt.Fprintf(writer, "Malformed\t%d\n", res.Stats.Malformed)
	fmt.Fprintf(writer, "Duplicates dropped\t%d\n", res.Stats.Duplicates)
	fmt.Fprintf(writer, "Buckets / batches\t%d / %d\n", res.Stats.Buckets, res.Stats.Batches)
	fmt.Fprintf(writer, "Flagged transactions\t%d\n", res.Stats.Flagged)
	fmt.Fprintf(writer, "Suspicious entities\t%d\n", res.Stats.Entities)
	writer.Flush()

	entities := tally.Top(res.Entities, top)
	if len(entities) == 0 {
		return
	}
	fmt.Fprintln(out)
	writer = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Entity\tSent\tReceived\tTotal")
	for _, e := range entities {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n", e.Entity, e.Sent, e.Received, e.Total)
	}
	writer.Flush()
}
