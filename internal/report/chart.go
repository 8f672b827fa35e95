package report

import (
	"errors"
	"os"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// WriteChartPNG renders daily inflow/outflow of the given currency across the
// collected rows.
func (e *Exporter) WriteChartPNG(path, currency string) error {
	if len(e.rows) == 0 {
		return errors.New("no rows to chart")
	}

	type flows struct {
		in  float64
		out float64
	}
	daily := map[time.Time]*flows{}

	for _, row := range e.rows {
		day := dayOf(row.Timestamp)
		f, ok := daily[day]
		if !ok {
			f = &flows{}
			daily[day] = f
		}
		if row.ReceivedCurrency == currency {
			f.in += row.ReceivedAmount.InexactFloat64()
		}
		if row.SentCurrency == currency {
			f.out += row.SentAmount.InexactFloat64()
		}
	}

	days := make([]time.Time, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// go-chart rejects a single-point series.
	if len(days) < 2 {
		e.logger.Warn().Str("currency", currency).Msg("not enough distinct days to chart; skipping")
		return nil
	}

	x := make([]time.Time, len(days))
	inflow := make([]float64, len(days))
	outflow := make([]float64, len(days))
	for i, day := range days {
		x[i] = day
		inflow[i] = daily[day].in
		outflow[i] = daily[day].out
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Amount (" + currency + ")",
			ValueFormatter: amountFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Inflow",
				XValues: x,
				YValues: inflow,
			},
			chart.TimeSeries{
				Name:    "Outflow",
				XValues: x,
				YValues: outflow,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
