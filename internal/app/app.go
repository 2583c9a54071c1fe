package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"flowscreen/internal/alerting"
	"flowscreen/internal/config"
	"flowscreen/internal/report"
	"flowscreen/internal/source"
	"flowscreen/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives human-readable tables; stdout unless replaced.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
	}
}

func (a *App) newSource(location string) (source.LedgerSource, error) {
	return source.New(location, source.Options{
		HasHeader: a.Config.Ledger.HasHeader,
		Timeout:   a.Config.Source.Timeout,
		UserAgent: a.Config.Source.UserAgent,
	}, a.Logger)
}

func (a *App) newSinks() []report.Sink {
	out := a.Config.Output
	sinks := []report.Sink{
		report.NewCSVWriter(outputPath(out.Dir, out.TransactionsFile), outputPath(out.Dir, out.EntitiesFile), a.Logger),
	}
	if out.XLSXFile != "" {
		sinks = append(sinks, report.NewXLSXWriter(outputPath(out.Dir, out.XLSXFile), a.Logger))
	}
	if out.ChartFile != "" {
		sinks = append(sinks, report.NewChartWriter(outputPath(out.Dir, out.ChartFile), out.TopEntities, a.Logger))
	}
	return sinks
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, a.Config.Alerting.Timeout, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// outputPath joins name onto dir; an empty name disables the artifact.
func outputPath(dir, name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// ScreenOptions configure the screen command.
type ScreenOptions struct {
	Input       string
	SkipArchive bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
	Top   int
}

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	Output     string
	Days       int
	RowsPerDay int
	Entities   int
	Planted    int
	Reciprocal int
	Malformed  int
	Seed       int64
}
