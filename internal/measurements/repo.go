package measurements

import (
	"context"
	"errors"
	"fmt"

	"github.com/dsimic/bodystats/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrMeasurementNotFound = errors.New("measurement not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// EnsureSchema creates the measurement table if it is not there yet,
// ran by the importer before the first upload.
func (r *Repo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodystats.ensureSchema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`CREATE TABLE IF NOT EXISTS measurement (
			id SERIAL PRIMARY KEY,
			device_id TEXT NOT NULL,
			measured_at TIMESTAMPTZ NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			muscle_mass DOUBLE PRECISION NOT NULL,
			body_fat_mass DOUBLE PRECISION NOT NULL,
			basal_metabolic_rate DOUBLE PRECISION NOT NULL,
			total_body_water DOUBLE PRECISION NOT NULL,
			UNIQUE (device_id, measured_at)
		);`,
	)
	if err != nil {
		return fmt.Errorf("create measurement table: %w", err)
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, m Measurement) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodystats.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO measurement
				(device_id, measured_at, weight, muscle_mass, body_fat_mass, basal_metabolic_rate, total_body_water)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		m.DeviceID, m.MeasuredAt, m.Weight, m.MuscleMass, m.BodyFatMass, m.BasalMetabolicRate, m.TotalBodyWater,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("measurement.id", id))

	m.ID = id
	return &m, nil
}

// BatchUpsert writes all measurements in one round trip, upserting on
// (device_id, measured_at), so re-importing the same export is safe.
func (r *Repo) BatchUpsert(ctx context.Context, ms []Measurement) (inserted, updated int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodystats.batchUpsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("measurements", len(ms)))

	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(
			`INSERT INTO measurement
					(device_id, measured_at, weight, muscle_mass, body_fat_mass, basal_metabolic_rate, total_body_water)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (device_id, measured_at) DO UPDATE SET
					weight = EXCLUDED.weight,
					muscle_mass = EXCLUDED.muscle_mass,
					body_fat_mass = EXCLUDED.body_fat_mass,
					basal_metabolic_rate = EXCLUDED.basal_metabolic_rate,
					total_body_water = EXCLUDED.total_body_water
				RETURNING (xmax = 0) AS was_inserted;`,
			m.DeviceID, m.MeasuredAt, m.Weight, m.MuscleMass, m.BodyFatMass, m.BasalMetabolicRate, m.TotalBodyWater,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close batch results: %w", closeErr)
		}
	}()

	for range ms {
		var wasInserted bool
		if err := results.QueryRow().Scan(&wasInserted); err != nil {
			return inserted, updated, fmt.Errorf("batch upsert scan: %w", err)
		}
		if wasInserted {
			inserted++
		} else {
			updated++
		}
	}

	return inserted, updated, nil
}

// List returns the measurements matching the filter, sorted by
// measured_at ascending.
func (r *Repo) List(ctx context.Context, f Filter) (_ []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodystats.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("device_id", f.DeviceID))
	if f.From != nil {
		span.SetAttributes(attribute.String("from", f.From.String()))
	}
	if f.To != nil {
		span.SetAttributes(attribute.String("to", f.To.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				m.id, m.device_id, m.measured_at, m.weight, m.muscle_mass, m.body_fat_mass, m.basal_metabolic_rate, m.total_body_water
			FROM measurement m
				WHERE ($1::text = '' OR m.device_id = $1)
				AND ($2::timestamptz IS NULL OR m.measured_at >= $2)
				AND ($3::timestamptz IS NULL OR m.measured_at <= $3)
			ORDER BY m.measured_at ASC;`,
		f.DeviceID, f.From, f.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	ms, err := rows2measurements(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2measurements: %w", err)
	}
	return ms, nil
}

func (r *Repo) Count(ctx context.Context, f Filter) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodystats.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(
		ctx,
		`
			SELECT COUNT(*)
			FROM measurement m
				WHERE ($1::text = '' OR m.device_id = $1)
				AND ($2::timestamptz IS NULL OR m.measured_at >= $2)
				AND ($3::timestamptz IS NULL OR m.measured_at <= $3);`,
		f.DeviceID, f.From, f.To,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func rows2measurements(rows pgx.Rows) ([]Measurement, error) {
	var ms []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(
			&m.ID, &m.DeviceID, &m.MeasuredAt,
			&m.Weight, &m.MuscleMass, &m.BodyFatMass,
			&m.BasalMetabolicRate, &m.TotalBodyWater,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		ms = append(ms, m)
	}
	return ms, nil
}
