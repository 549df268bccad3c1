package measurements

import (
	"fmt"
	"sort"
	"time"

	"github.com/dsimic/bodystats/pkg"
)

// Measurement is a single body composition scale reading.
// Once loaded it is never mutated, all aggregates are derived copies.
type Measurement struct {
	ID                 int       `json:"id,omitempty"`
	DeviceID           string    `json:"deviceId"`
	MeasuredAt         time.Time `json:"measuredAt"`
	Weight             float64   `json:"weight"`
	MuscleMass         float64   `json:"muscleMass"`
	BodyFatMass        float64   `json:"bodyFatMass"`
	BasalMetabolicRate float64   `json:"basalMetabolicRate"`
	TotalBodyWater     float64   `json:"totalBodyWater"`
}

// Field is one of the five measured body composition fields, named
// as in the chart API query params (camelCase).
type Field string

const (
	FieldWeight             Field = "weight"
	FieldMuscleMass         Field = "muscleMass"
	FieldBodyFatMass        Field = "bodyFatMass"
	FieldBasalMetabolicRate Field = "basalMetabolicRate"
	FieldTotalBodyWater     Field = "totalBodyWater"
)

type fieldInfo struct {
	displayName string
	unit        string
	// whether an increase of this field counts as positive progress;
	// body fat is the one where going down is the good direction
	increaseIsPositive bool
}

var fieldInfos = map[Field]fieldInfo{
	FieldWeight:             {displayName: "Weight", unit: "kg", increaseIsPositive: true},
	FieldMuscleMass:         {displayName: "Muscle Mass", unit: "kg", increaseIsPositive: true},
	FieldBodyFatMass:        {displayName: "Body Fat Mass", unit: "Kg", increaseIsPositive: false},
	FieldBasalMetabolicRate: {displayName: "Basal Metabolic Rate", unit: "Kcal", increaseIsPositive: true},
	FieldTotalBodyWater:     {displayName: "Total Body Water", unit: "Kg", increaseIsPositive: true},
}

// AllFields returns the measured fields in a stable display order.
func AllFields() []Field {
	return []Field{
		FieldWeight,
		FieldMuscleMass,
		FieldBodyFatMass,
		FieldBasalMetabolicRate,
		FieldTotalBodyWater,
	}
}

func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldInfos[f]; !ok {
		return "", fmt.Errorf("invalid field selection: %s", s)
	}
	return f, nil
}

func (f Field) DisplayName() string {
	return fieldInfos[f].displayName
}

func (f Field) Unit() string {
	return fieldInfos[f].unit
}

func (f Field) IncreaseIsPositive() bool {
	return fieldInfos[f].increaseIsPositive
}

// AxisTitle is the chart axis label, e.g. "Muscle Mass (kg)".
func (f Field) AxisTitle() string {
	return fmt.Sprintf("%s (%s)", f.DisplayName(), f.Unit())
}

func (m Measurement) Value(f Field) float64 {
	switch f {
	case FieldWeight:
		return m.Weight
	case FieldMuscleMass:
		return m.MuscleMass
	case FieldBodyFatMass:
		return m.BodyFatMass
	case FieldBasalMetabolicRate:
		return m.BasalMetabolicRate
	case FieldTotalBodyWater:
		return m.TotalBodyWater
	}
	return 0
}

// Filter selects measurements by device and an inclusive time range.
type Filter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
}

func (f Filter) Matches(m Measurement) bool {
	if f.DeviceID != "" && m.DeviceID != f.DeviceID {
		return false
	}
	if f.From != nil && m.MeasuredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.MeasuredAt.After(*f.To) {
		return false
	}
	return true
}

// CollapseDaily averages all readings of the same calendar day into a
// single measurement, keeping the first timestamp of the day. The input
// is expected sorted by MeasuredAt ascending, and so is the output.
func CollapseDaily(measurements []Measurement) []Measurement {
	if len(measurements) == 0 {
		return nil
	}

	day2measurements := make(map[time.Time][]Measurement)
	for _, m := range measurements {
		day := dayOf(m.MeasuredAt)
		day2measurements[day] = append(day2measurements[day], m)
	}

	days := make([]time.Time, 0, len(day2measurements))
	for day := range day2measurements {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	collapsed := make([]Measurement, 0, len(days))
	for _, day := range days {
		dayMeasurements := day2measurements[day]
		avg := Measurement{
			DeviceID:   dayMeasurements[0].DeviceID,
			MeasuredAt: dayMeasurements[0].MeasuredAt,
		}
		for _, m := range dayMeasurements {
			avg.Weight += m.Weight
			avg.MuscleMass += m.MuscleMass
			avg.BodyFatMass += m.BodyFatMass
			avg.BasalMetabolicRate += m.BasalMetabolicRate
			avg.TotalBodyWater += m.TotalBodyWater
		}
		n := float64(len(dayMeasurements))
		avg.Weight = pkg.RoundTo2Decimals(avg.Weight / n)
		avg.MuscleMass = pkg.RoundTo2Decimals(avg.MuscleMass / n)
		avg.BodyFatMass = pkg.RoundTo2Decimals(avg.BodyFatMass / n)
		avg.BasalMetabolicRate = pkg.RoundTo2Decimals(avg.BasalMetabolicRate / n)
		avg.TotalBodyWater = pkg.RoundTo2Decimals(avg.TotalBodyWater / n)
		collapsed = append(collapsed, avg)
	}

	return collapsed
}

// ElapseDays returns the number of whole days between the first
// measurement and the given timestamp.
func ElapseDays(first, t time.Time) int {
	return int(dayOf(t).Sub(dayOf(first)).Hours() / 24)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
