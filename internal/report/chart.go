package report

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"flowscreen/internal/tally"
)

const (
	chartBarWidth   = 90
	chartBarSpacing = 24
	chartMinWidth   = 640
)

// ChartWriter renders a PNG bar chart of the most involved entities.
type ChartWriter struct {
	path   string
	top    int
	logger zerolog.Logger
}

// NewChartWriter constructs a chart sink plotting at most top entities (0 = all).
func NewChartWriter(path string, top int, logger zerolog.Logger) *ChartWriter {
	return &ChartWriter{
		path:   path,
		top:    top,
		logger: logger.With().Str("component", "chart_report").Logger(),
	}
}

// Name identifies the sink in logs.
func (w *ChartWriter) Name() string {
	return "chart"
}

// Write renders the chart; with no flagged entities there is nothing to plot.
func (w *ChartWriter) Write(tables Tables) error {
	entities := tally.Top(tables.Entities, w.top)
	if len(entities) == 0 {
		w.logger.Info().Str("path", w.path).Msg("no suspicious entities; chart skipped")
		return nil
	}

	if err := writeAtomic(w.path, func(out io.Writer) error {
		return RenderChart(out, entities)
	}); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	w.logger.Info().Str("path", w.path).Int("entities", len(entities)).Msg("chart written")
	return nil
}

// RenderChart draws entities as a PNG bar chart of their Total.
func RenderChart(out io.Writer, entities []tally.EntityTally) error {
	if len(entities) == 0 {
		return fmt.Errorf("render chart: no entities")
	}

	bars := make([]chart.Value, 0, len(entities))
	maxTotal := 0
	for _, e := range entities {
		bars = append(bars, chart.Value{Value: float64(e.Total), Label: e.Entity})
		if e.Total > maxTotal {
			maxTotal = e.Total
		}
	}

	width := len(entities)*(chartBarWidth+chartBarSpacing) + 160
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:      "Suspicious entities by involvement",
		Width:      width,
		Height:     600,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 50},
		},
		YAxis: chart.YAxis{
			Name: "Flagged transactions",
			// Explicit range: equal totals would otherwise collapse the axis.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxTotal) + 1},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, out)
}

var _ Sink = (*ChartWriter)(nil)
