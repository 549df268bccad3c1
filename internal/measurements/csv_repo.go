package measurements

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dsimic/bodystats/pkg"

	log "github.com/sirupsen/logrus"
)

// column names as found in the scale data export
const (
	colDeviceID           = "deviceuuid"
	colCreateTime         = "create_time"
	colWeight             = "weight"
	colMuscleMass         = "skeletal_muscle_mass"
	colBodyFatMass        = "body_fat_mass"
	colBasalMetabolicRate = "basal_metabolic_rate"
	colTotalBodyWater     = "total_body_water"
)

var csvTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// CSVRepo serves measurements loaded from a scale data export CSV.
// The export carries a one line preamble, so the first row is skipped
// and the second one is used as the header. Rows with missing or
// malformed values are skipped with a warning, the export is not
// curated data.
type CSVRepo struct {
	measurements []Measurement
}

func NewCSVRepo(csvReader *csv.Reader) (*CSVRepo, error) {
	csvReader.FieldsPerRecord = -1

	// the first line is the export preamble, not the header
	if _, err := csvReader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("read csv preamble: %w", err)
	}

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int)
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{
		colDeviceID, colCreateTime, colWeight, colMuscleMass,
		colBodyFatMass, colBasalMetabolicRate, colTotalBodyWater,
	} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("column [%s] missing in csv header", name)
		}
	}

	repo := &CSVRepo{}
	for line := 3; ; line++ {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warnf("skipping csv line %d: %s", line, err)
				continue
			}
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		m, err := measurementFromRecord(record, col)
		if err != nil {
			log.Warnf("skipping csv line %d: %s", line, err)
			continue
		}
		repo.measurements = append(repo.measurements, m)
	}

	sort.Slice(repo.measurements, func(i, j int) bool {
		return repo.measurements[i].MeasuredAt.Before(repo.measurements[j].MeasuredAt)
	})

	log.Printf("measurements CSV read, %d records", len(repo.measurements))

	return repo, nil
}

func measurementFromRecord(record []string, col map[string]int) (Measurement, error) {
	value := func(name string) (string, error) {
		i := col[name]
		if i >= len(record) {
			return "", fmt.Errorf("record too short, no [%s] value", name)
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return "", fmt.Errorf("empty [%s] value", name)
		}
		return v, nil
	}

	createTime, err := value(colCreateTime)
	if err != nil {
		return Measurement{}, err
	}

	var measuredAt time.Time
	var parseErr error
	for _, layout := range csvTimeLayouts {
		measuredAt, parseErr = time.Parse(layout, createTime)
		if parseErr == nil {
			break
		}
	}
	if parseErr != nil {
		return Measurement{}, fmt.Errorf("parse create time [%s]: %w", createTime, parseErr)
	}

	deviceID, err := value(colDeviceID)
	if err != nil {
		return Measurement{}, err
	}

	floatValue := func(name string) (float64, error) {
		v, err := value(name)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parse [%s] value [%s]: %w", name, v, err)
		}
		return pkg.RoundTo2Decimals(f), nil
	}

	m := Measurement{
		DeviceID:   deviceID,
		MeasuredAt: measuredAt,
	}
	if m.Weight, err = floatValue(colWeight); err != nil {
		return Measurement{}, err
	}
	if m.MuscleMass, err = floatValue(colMuscleMass); err != nil {
		return Measurement{}, err
	}
	if m.BodyFatMass, err = floatValue(colBodyFatMass); err != nil {
		return Measurement{}, err
	}
	if m.BasalMetabolicRate, err = floatValue(colBasalMetabolicRate); err != nil {
		return Measurement{}, err
	}
	// kcal values come as whole numbers
	m.BasalMetabolicRate = math.Round(m.BasalMetabolicRate)
	if m.TotalBodyWater, err = floatValue(colTotalBodyWater); err != nil {
		return Measurement{}, err
	}

	return m, nil
}

// List returns the measurements matching the filter, sorted by
// MeasuredAt ascending.
func (r *CSVRepo) List(_ context.Context, f Filter) ([]Measurement, error) {
	matched := make([]Measurement, 0, len(r.measurements))
	for _, m := range r.measurements {
		if f.Matches(m) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// All returns every loaded measurement, used by the importer.
func (r *CSVRepo) All() []Measurement {
	return r.measurements
}
