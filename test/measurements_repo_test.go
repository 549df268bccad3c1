package test

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"

	"github.com/dsimic/bodystats/internal/measurements"
)

type RepoTestSuite struct {
	suite.Suite

	db       *pgxpool.Pool
	repo     *measurements.Repo
	teardown []func()
}

func TestRepoTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping repo integration test in short mode")
	}
	suite.Run(t, new(RepoTestSuite))
}

func (s *RepoTestSuite) SetupSuite() {
	ctx := context.Background()

	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	if err := dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	pgResource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=bodystats",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		log.Fatalf("dockerpool run postgres: %s", err)
	}
	s.teardown = append(s.teardown, func() {
		if err := pgResource.Close(); err != nil {
			fmt.Printf("postgres teardown: %s\n", err)
		}
	})

	dsn := fmt.Sprintf(
		"postgres://postgres@localhost:%s/bodystats?sslmode=disable",
		pgResource.GetPort("5432/tcp"),
	)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("parse db config: %s", err)
	}
	s.db, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("create connection pool: %s", err)
	}

	if err := dockerPool.Retry(func() error {
		return s.db.Ping(ctx)
	}); err != nil {
		log.Fatalf("connect to db: %s", err)
	}

	s.repo = measurements.NewRepo(s.db)
	s.Require().NoError(s.repo.EnsureSchema(ctx))
}

func (s *RepoTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

func (s *RepoTestSuite) SetupTest() {
	_, err := s.db.Exec(context.Background(), "TRUNCATE measurement;")
	s.Require().NoError(err)
}

func (s *RepoTestSuite) newMeasurement(day int, weight float64) measurements.Measurement {
	return measurements.Measurement{
		DeviceID:           "scale-1",
		MeasuredAt:         time.Date(2025, 1, day, 7, 30, 0, 0, time.UTC),
		Weight:             weight,
		MuscleMass:         36.5,
		BodyFatMass:        18.2,
		BasalMetabolicRate: 1700,
		TotalBodyWater:     42.1,
	}
}

func (s *RepoTestSuite) TestAdd() {
	ctx := context.Background()

	added, err := s.repo.Add(ctx, s.newMeasurement(5, 80.5))
	s.Require().NoError(err)
	s.Require().NotNil(added)
	s.Assert().Greater(added.ID, 0)

	count, err := s.repo.Count(ctx, measurements.Filter{})
	s.Require().NoError(err)
	s.Assert().Equal(1, count)
}

func (s *RepoTestSuite) TestBatchUpsert() {
	ctx := context.Background()

	inserted, updated, err := s.repo.BatchUpsert(ctx, []measurements.Measurement{
		s.newMeasurement(4, 80.5),
		s.newMeasurement(5, 80.1),
		s.newMeasurement(6, 79.9),
	})
	s.Require().NoError(err)
	s.Assert().Equal(3, inserted)
	s.Assert().Equal(0, updated)

	// same export again, with one corrected value and one new record
	corrected := s.newMeasurement(5, 80.2)
	inserted, updated, err = s.repo.BatchUpsert(ctx, []measurements.Measurement{
		s.newMeasurement(4, 80.5),
		corrected,
		s.newMeasurement(6, 79.9),
		s.newMeasurement(7, 79.8),
	})
	s.Require().NoError(err)
	s.Assert().Equal(1, inserted)
	s.Assert().Equal(3, updated)

	ms, err := s.repo.List(ctx, measurements.Filter{})
	s.Require().NoError(err)
	s.Require().Len(ms, 4)
	s.Assert().Equal(corrected.Weight, ms[1].Weight)
}

func (s *RepoTestSuite) TestBatchUpsert_Bulk() {
	ctx := context.Background()

	ms := make([]measurements.Measurement, 0, 100)
	for day := 0; day < 100; day++ {
		ms = append(ms, measurements.Measurement{
			DeviceID:           gofakeit.UUID(),
			MeasuredAt:         time.Date(2025, 1, 1, 7, 30, 0, 0, time.UTC).AddDate(0, 0, day),
			Weight:             gofakeit.Float64Range(60, 100),
			MuscleMass:         gofakeit.Float64Range(25, 45),
			BodyFatMass:        gofakeit.Float64Range(10, 30),
			BasalMetabolicRate: gofakeit.Float64Range(1400, 2000),
			TotalBodyWater:     gofakeit.Float64Range(35, 55),
		})
	}

	inserted, updated, err := s.repo.BatchUpsert(ctx, ms)
	s.Require().NoError(err)
	s.Assert().Equal(100, inserted)
	s.Assert().Equal(0, updated)

	count, err := s.repo.Count(ctx, measurements.Filter{})
	s.Require().NoError(err)
	s.Assert().Equal(100, count)
}

func (s *RepoTestSuite) TestList() {
	ctx := context.Background()

	otherDevice := s.newMeasurement(5, 95.0)
	otherDevice.DeviceID = "scale-2"
	_, _, err := s.repo.BatchUpsert(ctx, []measurements.Measurement{
		s.newMeasurement(4, 80.5),
		s.newMeasurement(5, 80.1),
		s.newMeasurement(6, 79.9),
		otherDevice,
	})
	s.Require().NoError(err)

	// no filter returns everything, sorted by measured_at
	ms, err := s.repo.List(ctx, measurements.Filter{})
	s.Require().NoError(err)
	s.Require().Len(ms, 4)
	for i := 1; i < len(ms); i++ {
		s.Assert().False(ms[i].MeasuredAt.Before(ms[i-1].MeasuredAt))
	}

	ms, err = s.repo.List(ctx, measurements.Filter{DeviceID: "scale-2"})
	s.Require().NoError(err)
	s.Require().Len(ms, 1)
	s.Assert().Equal(95.0, ms[0].Weight)

	from := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 5, 23, 59, 59, 0, time.UTC)
	ms, err = s.repo.List(ctx, measurements.Filter{DeviceID: "scale-1", From: &from, To: &to})
	s.Require().NoError(err)
	s.Require().Len(ms, 1)
	s.Assert().Equal(80.1, ms[0].Weight)

	count, err := s.repo.Count(ctx, measurements.Filter{DeviceID: "scale-1"})
	s.Require().NoError(err)
	s.Assert().Equal(3, count)
}
