package render

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"live-dashboard/internal/models"
)

var (
	// ErrTooFewPoints is returned when a line chart has fewer than two readings.
	ErrTooFewPoints = errors.New("at least two observations are needed for a chart")
	// ErrEmptyTable is returned when a bar chart has no rows.
	ErrEmptyTable = errors.New("price table has no rows")
)

// ChartOptions size the rendered PNGs.
type ChartOptions struct {
	Width  int
	Height int
}

func (o ChartOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}
	return w, h
}

// PriceBarChart renders one bar per coin as PNG.
func PriceBarChart(w io.Writer, table models.PriceTable, opts ChartOptions) error {
	if len(table.Quotes) == 0 {
		return ErrEmptyTable
	}

	bars := make([]chart.Value, 0, len(table.Quotes))
	maxPrice := 0.0
	for _, q := range table.Quotes {
		v := q.Price.InexactFloat64()
		maxPrice = math.Max(maxPrice, v)
		bars = append(bars, chart.Value{Label: q.Coin, Value: v})
	}
	if maxPrice <= 0 {
		maxPrice = 1
	}

	width, height := opts.size()
	graph := chart.BarChart{
		Title:  "Price (" + table.Currency + ")",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxPrice * 1.1},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// TemperatureChart renders temperature and wind speed over the session history as PNG.
func TemperatureChart(w io.Writer, history []models.WeatherObservation, opts ChartOptions) error {
	if len(history) < 2 {
		return ErrTooFewPoints
	}

	x := make([]time.Time, len(history))
	temps := make([]float64, len(history))
	winds := make([]float64, len(history))
	for i, obs := range history {
		x[i] = obs.Timestamp
		temps[i] = obs.Temperature
		winds[i] = obs.WindSpeed
	}

	floatFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	width, height := opts.size()
	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				return chart.TimeValueFormatterWithFormat("15:04")(v)
			},
		},
		YAxis: chart.YAxis{
			Name:           "Temperature (°C)",
			Range:          paddedRange(temps),
			ValueFormatter: floatFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Wind (m/s)",
			Range:          paddedRange(winds),
			ValueFormatter: floatFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Temperature",
				XValues: x,
				YValues: temps,
			},
			chart.TimeSeries{
				Name:    "Wind speed",
				XValues: x,
				YValues: winds,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// paddedRange never returns a zero-width range, which go-chart rejects.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// WriteFile creates path (and its directory) and hands the file to fn.
// The file is removed again when fn fails.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
