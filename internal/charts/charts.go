// Package charts renders measurement analytics as static PNG images,
// used by the report tool. The browser frontend draws its own charts
// from the JSON endpoints, these are for files on disk.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dsimic/bodystats/internal/measurements"
)

var ErrNotEnoughDataPoints = errors.New("not enough data points to render a chart")

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
	}
}

// Scatter renders the measurement scatter chart with a linear
// regression trend line over it, slope and R^2 in the title.
func Scatter(sc *measurements.ScatterChart) ([]byte, error) {
	if len(sc.DataPoints) < 2 {
		return nil, ErrNotEnoughDataPoints
	}

	xs := make([]float64, 0, len(sc.DataPoints))
	ys := make([]float64, 0, len(sc.DataPoints))
	for _, p := range sc.DataPoints {
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}

	points := chart.ContinuousSeries{
		Name:    "Measurements",
		XValues: xs,
		YValues: ys,
		Style:   pointStyle(chart.ColorBlue),
	}

	trendStyle := lineStyle(chart.ColorRed)
	trendStyle.StrokeDashArray = []float64{4, 4}

	ch := chart.Chart{
		Title: fmt.Sprintf(
			"%s [slope: %.2f, R2: %.2f]",
			sc.Title, slope(xs, ys), sc.Correlation*sc.Correlation,
		),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: sc.XAxisTitle},
		YAxis:      chart.YAxis{Name: sc.YAxisTitle},
		Series: []chart.Series{
			points,
			&chart.LinearRegressionSeries{
				Name:        "Trend",
				InnerSeries: points,
				Style:       trendStyle,
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter chart: %w", err)
	}
	return buf.Bytes(), nil
}

// slope is the least squares slope of ys over xs.
func slope(xs, ys []float64) float64 {
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	n := float64(len(xs))
	meanX, meanY := sumX/n, sumY/n

	var cov, varX float64
	for i := range xs {
		cov += (xs[i] - meanX) * (ys[i] - meanY)
		varX += (xs[i] - meanX) * (xs[i] - meanX)
	}
	if varX == 0 {
		return 0
	}
	return cov / varX
}

// TimeProgression renders the windowed progression line together with a
// mean +/- std band around it.
func TimeProgression(tc *measurements.TimeProgressionChart) ([]byte, error) {
	if len(tc.DataPoints) < 2 {
		return nil, ErrNotEnoughDataPoints
	}

	times := make([]time.Time, 0, len(tc.DataPoints))
	values := make([]float64, 0, len(tc.DataPoints))
	upper := make([]float64, 0, len(tc.DataPoints))
	lower := make([]float64, 0, len(tc.DataPoints))
	for _, p := range tc.DataPoints {
		times = append(times, p.Date)
		values = append(values, p.Value)
		upper = append(upper, p.Value+p.Std)
		lower = append(lower, p.Value-p.Std)
	}

	bandStyle := chart.Style{
		StrokeWidth:     1,
		StrokeColor:     chart.ColorAlternateGray,
		StrokeDashArray: []float64{4, 4},
	}

	ch := chart.Chart{
		Title:      tc.Title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: tc.XAxisTitle},
		YAxis:      chart.YAxis{Name: tc.YAxisTitle},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Mean", XValues: times, YValues: values, Style: lineStyle(chart.ColorBlue)},
			chart.TimeSeries{Name: "Mean + Std", XValues: times, YValues: upper, Style: bandStyle},
			chart.TimeSeries{Name: "Mean - Std", XValues: times, YValues: lower, Style: bandStyle},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render time progression chart: %w", err)
	}
	return buf.Bytes(), nil
}

// BodyComposition renders the daily measurements as a stacked area
// chart: muscle mass at the bottom, body fat on top of it, the rest of
// the body weight above. The three bands sum to total weight.
func BodyComposition(ms []measurements.Measurement) ([]byte, error) {
	daily := measurements.CollapseDaily(ms)
	if len(daily) < 2 {
		return nil, ErrNotEnoughDataPoints
	}

	times := make([]time.Time, 0, len(daily))
	muscle := make([]float64, 0, len(daily))
	muscleAndFat := make([]float64, 0, len(daily))
	weight := make([]float64, 0, len(daily))
	for _, m := range daily {
		times = append(times, m.MeasuredAt)
		muscle = append(muscle, m.MuscleMass)
		muscleAndFat = append(muscleAndFat, m.MuscleMass+m.BodyFatMass)
		weight = append(weight, m.Weight)
	}

	// the series fill down to zero, so the widest band goes first and
	// the narrower ones paint over it
	bandStyle := func(col drawing.Color) chart.Style {
		return chart.Style{
			StrokeWidth: 1,
			StrokeColor: col,
			FillColor:   col.WithAlpha(110),
		}
	}

	ch := chart.Chart{
		Title:      "Body Composition",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: "Date"},
		YAxis:      chart.YAxis{Name: "kg"},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Rest", XValues: times, YValues: weight, Style: bandStyle(chart.ColorAlternateGray)},
			chart.TimeSeries{Name: "Body Fat Mass", XValues: times, YValues: muscleAndFat, Style: bandStyle(chart.ColorRed)},
			chart.TimeSeries{Name: "Muscle Mass", XValues: times, YValues: muscle, Style: bandStyle(chart.ColorGreen)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render body composition chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MonthlyDistribution renders a box plot style chart of one field over
// the raw (not daily collapsed) measurements: the monthly median as a
// solid line, the q1..q3 band dashed and the min/max whiskers dotted.
func MonthlyDistribution(ms []measurements.Measurement, field measurements.Field) ([]byte, error) {
	month2values := make(map[string][]float64)
	for _, m := range ms {
		month := m.MeasuredAt.Format("2006-01")
		month2values[month] = append(month2values[month], m.Value(field))
	}
	if len(month2values) < 2 {
		return nil, ErrNotEnoughDataPoints
	}

	monthKeys := make([]string, 0, len(month2values))
	for month := range month2values {
		monthKeys = append(monthKeys, month)
	}
	sort.Strings(monthKeys)

	months := make([]time.Time, 0, len(monthKeys))
	mins := make([]float64, 0, len(monthKeys))
	q1s := make([]float64, 0, len(monthKeys))
	medians := make([]float64, 0, len(monthKeys))
	q3s := make([]float64, 0, len(monthKeys))
	maxs := make([]float64, 0, len(monthKeys))
	for _, key := range monthKeys {
		month, err := time.Parse("2006-01", key)
		if err != nil {
			return nil, fmt.Errorf("parse month [%s]: %w", key, err)
		}
		values := month2values[key]
		sort.Float64s(values)

		months = append(months, month)
		mins = append(mins, values[0])
		q1s = append(q1s, quantile(values, 0.25))
		medians = append(medians, quantile(values, 0.5))
		q3s = append(q3s, quantile(values, 0.75))
		maxs = append(maxs, values[len(values)-1])
	}

	quartileStyle := chart.Style{
		StrokeWidth:     1,
		StrokeColor:     fieldColors[field],
		StrokeDashArray: []float64{4, 4},
	}
	whiskerStyle := chart.Style{
		StrokeWidth:     1,
		StrokeColor:     chart.ColorAlternateGray,
		StrokeDashArray: []float64{2, 2},
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s Monthly Distribution", field.DisplayName()),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: "Month"},
		YAxis:      chart.YAxis{Name: field.AxisTitle()},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Median", XValues: months, YValues: medians, Style: lineStyle(fieldColors[field])},
			chart.TimeSeries{Name: "Q1", XValues: months, YValues: q1s, Style: quartileStyle},
			chart.TimeSeries{Name: "Q3", XValues: months, YValues: q3s, Style: quartileStyle},
			chart.TimeSeries{Name: "Min", XValues: months, YValues: mins, Style: whiskerStyle},
			chart.TimeSeries{Name: "Max", XValues: months, YValues: maxs, Style: whiskerStyle},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly distribution chart: %w", err)
	}
	return buf.Bytes(), nil
}

// quantile interpolates linearly between the two nearest ranks, the
// values must be sorted.
func quantile(values []float64, q float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	pos := q * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return values[lo] + (values[hi]-values[lo])*(pos-float64(lo))
}

var fieldColors = map[measurements.Field]drawing.Color{
	measurements.FieldWeight:             chart.ColorBlue,
	measurements.FieldMuscleMass:         chart.ColorGreen,
	measurements.FieldBodyFatMass:        chart.ColorRed,
	measurements.FieldBasalMetabolicRate: chart.ColorOrange,
	measurements.FieldTotalBodyWater:     chart.ColorCyan,
}

// MonthlyOverview renders one line per selected field over the monthly
// means. Basal metabolic rate lives on a different scale than the kg
// fields, mixing them in one call makes a useless chart, that is up to
// the caller.
func MonthlyOverview(stats []measurements.MonthlyStats, fields []measurements.Field) ([]byte, error) {
	if len(stats) < 2 {
		return nil, ErrNotEnoughDataPoints
	}
	if len(fields) == 0 {
		return nil, errors.New("no fields selected")
	}

	months := make([]time.Time, 0, len(stats))
	for _, ms := range stats {
		month, err := time.Parse("2006-01", ms.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month [%s]: %w", ms.Month, err)
		}
		months = append(months, month)
	}

	series := make([]chart.Series, 0, len(fields))
	for _, f := range fields {
		values := make([]float64, 0, len(stats))
		for _, ms := range stats {
			values = append(values, ms.Fields[f].Mean)
		}
		series = append(series, chart.TimeSeries{
			Name:    f.DisplayName(),
			XValues: months,
			YValues: values,
			Style:   lineStyle(fieldColors[f]),
		})
	}

	ch := chart.Chart{
		Title:      "Monthly Overview",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: "Month"},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly overview chart: %w", err)
	}
	return buf.Bytes(), nil
}
