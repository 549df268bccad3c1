package measurements_test

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsimic/bodystats/internal/measurements"
)

const testExportCsv = `health_data.body_composition,2,0
create_time,deviceuuid,weight,skeletal_muscle_mass,body_fat_mass,basal_metabolic_rate,total_body_water
2025-01-05 07:31:00.000,scale-1,80.123,36.456,18.111,1700.6,42.333
2025-01-04 08:02:00.000,scale-1,80.5,36.2,18.3,1698,42.1
2025-01-06 07:45:00.000,other-scale,95.0,40.0,25.0,1900,50.0
2025-01-07 07:12:00.000,scale-1,,36.0,18.0,1700,42.0
2025-01-08 07:15:00.000,scale-1,79.9,36.1,17.9,1695,41.9
not-a-date,scale-1,80.0,36.0,18.0,1700,42.0
`

func newTestCSVRepo(t *testing.T) *measurements.CSVRepo {
	t.Helper()
	repo, err := measurements.NewCSVRepo(csv.NewReader(strings.NewReader(testExportCsv)))
	require.NoError(t, err)
	return repo
}

func TestNewCSVRepo(t *testing.T) {
	repo := newTestCSVRepo(t)

	// rows with missing weight and a bad date are skipped
	all := repo.All()
	require.Len(t, all, 4)

	// sorted by timestamp ascending
	assert.Equal(t, "2025-01-04", all[0].MeasuredAt.Format("2006-01-02"))
	assert.Equal(t, "2025-01-08", all[3].MeasuredAt.Format("2006-01-02"))

	// values rounded to 2 decimals, kcal to whole numbers
	assert.Equal(t, 80.12, all[1].Weight)
	assert.Equal(t, 36.46, all[1].MuscleMass)
	assert.Equal(t, 18.11, all[1].BodyFatMass)
	assert.Equal(t, 1701.0, all[1].BasalMetabolicRate)
	assert.Equal(t, 42.33, all[1].TotalBodyWater)
}

func TestCSVRepo_List_DeviceFilter(t *testing.T) {
	repo := newTestCSVRepo(t)

	ms, err := repo.List(context.Background(), measurements.Filter{DeviceID: "scale-1"})
	require.NoError(t, err)
	require.Len(t, ms, 3)
	for _, m := range ms {
		assert.Equal(t, "scale-1", m.DeviceID)
	}
}

func TestCSVRepo_List_DateRange(t *testing.T) {
	repo := newTestCSVRepo(t)

	from := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 6, 23, 59, 59, 0, time.UTC)
	ms, err := repo.List(context.Background(), measurements.Filter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	for _, m := range ms {
		assert.False(t, m.MeasuredAt.Before(from))
		assert.False(t, m.MeasuredAt.After(to))
	}
}

func TestCSVRepo_List_EmptyRange(t *testing.T) {
	repo := newTestCSVRepo(t)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ms, err := repo.List(context.Background(), measurements.Filter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestNewCSVRepo_MissingColumn(t *testing.T) {
	noWaterCsv := `preamble
create_time,deviceuuid,weight,skeletal_muscle_mass,body_fat_mass,basal_metabolic_rate
2025-01-05 07:31:00.000,scale-1,80.1,36.4,18.1,1700
`
	_, err := measurements.NewCSVRepo(csv.NewReader(strings.NewReader(noWaterCsv)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_body_water")
}

func TestNewCSVRepo_Empty(t *testing.T) {
	_, err := measurements.NewCSVRepo(csv.NewReader(strings.NewReader("")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty csv")
}
