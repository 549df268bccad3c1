package measurements

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dsimic/bodystats/internal/telemetry/tracing"
	"github.com/dsimic/bodystats/pkg"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=measurements_test

type measurementsRepo interface {
	List(ctx context.Context, f Filter) ([]Measurement, error)
}

// Analyzer derives chart data from raw measurements: daily scatter
// points, grouped time progression and monthly variation stats.
// Raw measurements are never mutated.
type Analyzer struct {
	repo measurementsRepo
}

func NewAnalyzer(repo measurementsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

type ScatterPoint struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Date       time.Time `json:"date"`
	ElapseDays int       `json:"elapseDays"`
}

type ScatterChart struct {
	Title       string         `json:"title"`
	XAxisTitle  string         `json:"xAxisTitle"`
	YAxisTitle  string         `json:"yAxisTitle"`
	Correlation float64        `json:"correlation"`
	DataPoints  []ScatterPoint `json:"dataPoints"`
}

type TimeProgressionPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Std   float64   `json:"std"`
}

type TimeProgressionChart struct {
	Title      string                 `json:"title"`
	XAxisTitle string                 `json:"xAxisTitle"`
	YAxisTitle string                 `json:"yAxisTitle"`
	DataPoints []TimeProgressionPoint `json:"dataPoints"`
}

type VariationCard struct {
	Measure   string  `json:"measure"`
	Value     float64 `json:"value"`
	Variation float64 `json:"variation"`
	Positive  bool    `json:"positive"`
}

type FieldStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	// Variation is the month-over-month change of the mean, in percent;
	// nil for the first month
	Variation *float64 `json:"variation,omitempty"`
}

type MonthlyStats struct {
	Month   string               `json:"month"` // YYYY-MM
	Records int                  `json:"records"`
	Fields  map[Field]FieldStats `json:"fields"`
}

// Scatter returns the daily averaged points of two fields, with the
// Pearson correlation over the points. Days are colored by the number
// of days elapsed since the first record in range.
func (a *Analyzer) Scatter(
	ctx context.Context,
	filter Filter,
	xField, yField Field,
) (_ *ScatterChart, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.bodystats.scatter")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("x_field", string(xField)))
	span.SetAttributes(attribute.String("y_field", string(yField)))

	ms, err := a.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	daily := CollapseDaily(ms)

	points := make([]ScatterPoint, 0, len(daily))
	xs := make([]float64, 0, len(daily))
	ys := make([]float64, 0, len(daily))
	for _, m := range daily {
		x := m.Value(xField)
		y := m.Value(yField)
		points = append(points, ScatterPoint{
			X:          x,
			Y:          y,
			Date:       m.MeasuredAt,
			ElapseDays: ElapseDays(daily[0].MeasuredAt, m.MeasuredAt),
		})
		xs = append(xs, x)
		ys = append(ys, y)
	}

	return &ScatterChart{
		Title: fmt.Sprintf(
			"%s vs %s (total records: %d)",
			xField.DisplayName(), yField.DisplayName(), len(points),
		),
		XAxisTitle:  xField.AxisTitle(),
		YAxisTitle:  yField.AxisTitle(),
		Correlation: pkg.RoundTo2Decimals(pearson(xs, ys)),
		DataPoints:  points,
	}, nil
}

// TimeProgression groups the measurements of one field into fixed
// windows of groupDays days and returns per window mean and std. The
// representative date of a window is its end, capped at the last
// measurement in range.
func (a *Analyzer) TimeProgression(
	ctx context.Context,
	filter Filter,
	field Field,
	groupDays int,
) (_ *TimeProgressionChart, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.bodystats.timeProgression")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("field", string(field)))
	span.SetAttributes(attribute.Int("group_days", groupDays))

	if groupDays <= 0 {
		return nil, fmt.Errorf("group days must be greater than 0, got %d", groupDays)
	}

	ms, err := a.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	chart := &TimeProgressionChart{
		XAxisTitle: "Date",
		YAxisTitle: field.AxisTitle(),
		DataPoints: []TimeProgressionPoint{},
	}

	if len(ms) == 0 {
		chart.Title = fmt.Sprintf(
			"%s Progression (grouped by %d days, 0 periods)",
			field.DisplayName(), groupDays,
		)
		return chart, nil
	}

	start := ms[0].MeasuredAt
	if filter.From != nil {
		start = *filter.From
	}
	end := ms[len(ms)-1].MeasuredAt
	if filter.To != nil && filter.To.Before(end) {
		end = *filter.To
	}

	group2values := make(map[int][]float64)
	for _, m := range ms {
		group := ElapseDays(start, m.MeasuredAt) / groupDays
		group2values[group] = append(group2values[group], m.Value(field))
	}

	groups := make([]int, 0, len(group2values))
	for group := range group2values {
		groups = append(groups, group)
	}
	sort.Ints(groups)

	for _, group := range groups {
		values := group2values[group]
		// the window is represented by its end date, capped at the day
		// of the last measurement
		date := start.AddDate(0, 0, (group+1)*groupDays)
		if date.After(end) {
			date = dayOf(end)
		}
		chart.DataPoints = append(chart.DataPoints, TimeProgressionPoint{
			Date:  date,
			Value: pkg.RoundTo2Decimals(mean(values)),
			Std:   pkg.RoundTo2Decimals(stdDev(values)),
		})
	}

	chart.Title = fmt.Sprintf(
		"%s Progression (grouped by %d days, %d periods)",
		field.DisplayName(), groupDays, len(chart.DataPoints),
	)

	return chart, nil
}

// Monthly buckets the measurements per calendar month and computes
// mean, std and month-over-month variation per field.
func (a *Analyzer) Monthly(ctx context.Context, filter Filter) (_ []MonthlyStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.bodystats.monthly")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ms, err := a.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	month2measurements := make(map[string][]Measurement)
	for _, m := range ms {
		month := m.MeasuredAt.Format("2006-01")
		month2measurements[month] = append(month2measurements[month], m)
	}

	months := make([]string, 0, len(month2measurements))
	for month := range month2measurements {
		months = append(months, month)
	}
	sort.Strings(months)

	stats := make([]MonthlyStats, 0, len(months))
	for i, month := range months {
		monthMeasurements := month2measurements[month]
		monthStats := MonthlyStats{
			Month:   month,
			Records: len(monthMeasurements),
			Fields:  make(map[Field]FieldStats),
		}
		for _, field := range AllFields() {
			values := make([]float64, 0, len(monthMeasurements))
			for _, m := range monthMeasurements {
				values = append(values, m.Value(field))
			}
			fieldStats := FieldStats{
				Mean: pkg.RoundTo2Decimals(mean(values)),
				Std:  pkg.RoundTo2Decimals(stdDev(values)),
			}
			if i > 0 {
				prevMean := stats[i-1].Fields[field].Mean
				if prevMean != 0 {
					variation := pkg.RoundTo2Decimals(
						(fieldStats.Mean - prevMean) / prevMean * 100,
					)
					fieldStats.Variation = &variation
				}
			}
			monthStats.Fields[field] = fieldStats
		}
		stats = append(stats, monthStats)
	}

	return stats, nil
}

// VariationCards returns, for each field, the latest month mean and its
// variation against the previous month, flagged positive or negative
// per the field sign convention (less body fat is progress, more of
// everything else is).
func (a *Analyzer) VariationCards(ctx context.Context, filter Filter) (_ []VariationCard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.bodystats.variationCards")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	monthly, err := a.Monthly(ctx, filter)
	if err != nil {
		return nil, err
	}

	cards := []VariationCard{}
	if len(monthly) == 0 {
		return cards, nil
	}

	lastMonth := monthly[len(monthly)-1]
	for _, field := range AllFields() {
		fieldStats := lastMonth.Fields[field]
		var variation float64
		if fieldStats.Variation != nil {
			variation = *fieldStats.Variation
		}
		positive := true
		if variation != 0 {
			positive = (variation > 0) == field.IncreaseIsPositive()
		}
		cards = append(cards, VariationCard{
			Measure:   field.DisplayName(),
			Value:     fieldStats.Mean,
			Variation: variation,
			Positive:  positive,
		})
	}

	return cards, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation; a single value has std 0.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		sumSq += (v - m) * (v - m)
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	meanX := mean(xs)
	meanY := mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
