package charts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsimic/bodystats/internal/charts"
	"github.com/dsimic/bodystats/internal/measurements"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestScatter(t *testing.T) {
	png, err := charts.Scatter(&measurements.ScatterChart{
		Title:       "Muscle Mass vs Weight (total records: 3)",
		XAxisTitle:  "Muscle Mass (kg)",
		YAxisTitle:  "Weight (kg)",
		Correlation: 0.98,
		DataPoints: []measurements.ScatterPoint{
			{X: 36.0, Y: 80.0, Date: day(1)},
			{X: 36.5, Y: 80.6, Date: day(2), ElapseDays: 1},
			{X: 37.0, Y: 81.1, Date: day(4), ElapseDays: 3},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngMagic, png[:4])
}

func TestScatter_NotEnoughData(t *testing.T) {
	_, err := charts.Scatter(&measurements.ScatterChart{
		DataPoints: []measurements.ScatterPoint{{X: 36.0, Y: 80.0}},
	})
	require.ErrorIs(t, err, charts.ErrNotEnoughDataPoints)
}

func TestTimeProgression(t *testing.T) {
	png, err := charts.TimeProgression(&measurements.TimeProgressionChart{
		Title:      "Weight Progression (grouped by 7 days, 3 periods)",
		XAxisTitle: "Date",
		YAxisTitle: "Weight (kg)",
		DataPoints: []measurements.TimeProgressionPoint{
			{Date: day(8), Value: 80.5, Std: 0.4},
			{Date: day(15), Value: 80.2, Std: 0.3},
			{Date: day(22), Value: 79.9, Std: 0.5},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngMagic, png[:4])
}

func TestTimeProgression_NotEnoughData(t *testing.T) {
	_, err := charts.TimeProgression(&measurements.TimeProgressionChart{})
	require.ErrorIs(t, err, charts.ErrNotEnoughDataPoints)
}

func TestBodyComposition(t *testing.T) {
	ms := []measurements.Measurement{
		{DeviceID: "scale-1", MeasuredAt: day(1).Add(7 * time.Hour), Weight: 80.0, MuscleMass: 36.0, BodyFatMass: 18.0},
		{DeviceID: "scale-1", MeasuredAt: day(2).Add(7 * time.Hour), Weight: 80.4, MuscleMass: 36.2, BodyFatMass: 18.1},
		{DeviceID: "scale-1", MeasuredAt: day(3).Add(7 * time.Hour), Weight: 80.2, MuscleMass: 36.1, BodyFatMass: 18.0},
	}

	png, err := charts.BodyComposition(ms)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngMagic, png[:4])
}

func TestBodyComposition_NotEnoughData(t *testing.T) {
	_, err := charts.BodyComposition(nil)
	require.ErrorIs(t, err, charts.ErrNotEnoughDataPoints)
}

func TestMonthlyOverview(t *testing.T) {
	stats := []measurements.MonthlyStats{
		{
			Month:   "2025-01",
			Records: 20,
			Fields: map[measurements.Field]measurements.FieldStats{
				measurements.FieldWeight:     {Mean: 80.5, Std: 0.4},
				measurements.FieldMuscleMass: {Mean: 36.2, Std: 0.2},
			},
		},
		{
			Month:   "2025-02",
			Records: 18,
			Fields: map[measurements.Field]measurements.FieldStats{
				measurements.FieldWeight:     {Mean: 79.8, Std: 0.5},
				measurements.FieldMuscleMass: {Mean: 36.4, Std: 0.3},
			},
		},
	}

	png, err := charts.MonthlyOverview(stats, []measurements.Field{
		measurements.FieldWeight,
		measurements.FieldMuscleMass,
	})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngMagic, png[:4])
}

func TestMonthlyDistribution(t *testing.T) {
	ms := []measurements.Measurement{
		{MeasuredAt: day(2), Weight: 80.0},
		{MeasuredAt: day(10), Weight: 80.4},
		{MeasuredAt: day(25), Weight: 80.9},
		{MeasuredAt: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), Weight: 79.8},
		{MeasuredAt: time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC), Weight: 79.5},
	}

	png, err := charts.MonthlyDistribution(ms, measurements.FieldWeight)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngMagic, png[:4])
}

func TestMonthlyDistribution_SingleMonth(t *testing.T) {
	ms := []measurements.Measurement{
		{MeasuredAt: day(2), Weight: 80.0},
		{MeasuredAt: day(10), Weight: 80.4},
	}
	_, err := charts.MonthlyDistribution(ms, measurements.FieldWeight)
	require.ErrorIs(t, err, charts.ErrNotEnoughDataPoints)
}

func TestMonthlyOverview_NoFields(t *testing.T) {
	stats := []measurements.MonthlyStats{
		{Month: "2025-01"}, {Month: "2025-02"},
	}
	_, err := charts.MonthlyOverview(stats, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields selected")
}
