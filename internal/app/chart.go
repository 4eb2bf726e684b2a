package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"cropintel/internal/storage"
)

// Chart renders the archived USD price history of a market as a PNG.
func (a *App) Chart(ctx context.Context, opts ChartOptions) error {
	if opts.PNGPath == "" {
		return errors.New("--png output path is required")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot chart")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}
	from := to.AddDate(0, 0, -90)
	if opts.From != nil {
		from = opts.From.UTC()
	}
	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	observations, err := store.ListObservationsBetween(ctx, opts.Crop, opts.Location, from, to)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		a.Logger.Info().Msg("no observations found for chart window")
		return nil
	}

	downsampled := downsampleObservations(observations, opts.MaxPoints)
	a.Logger.Info().Int("total", len(observations)).Int("charted", len(downsampled)).Msg("rendering chart")

	return writeObservationsPNG(opts.PNGPath, opts.Crop, downsampled)
}

func downsampleObservations(observations []storage.Observation, max int) []storage.Observation {
	if max <= 0 || len(observations) <= max {
		return observations
	}

	result := make([]storage.Observation, 0, max)
	step := float64(len(observations)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(observations) {
			idx = len(observations) - 1
		}
		result = append(result, observations[idx])
	}
	return result
}

func writeObservationsPNG(path, crop string, observations []storage.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(observations))
	y := make([]float64, len(observations))
	for i, obs := range observations {
		x[i] = obs.ObservedAt
		y[i] = obs.PriceUSD.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (USD/kg)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    crop,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
