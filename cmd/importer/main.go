// The importer reads a body scale CSV export and upserts it into
// postgres. Re-running it on the same export is safe, records are
// keyed on (device_id, measured_at).
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"time"

	"github.com/dsimic/bodystats/internal/config"
	"github.com/dsimic/bodystats/internal/db"
	"github.com/dsimic/bodystats/internal/measurements"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	csvPath := flag.String("csv", "", "path of the body scale CSV export to import")
	flag.Parse()

	if *csvPath == "" {
		log.Fatalln("no CSV export given, use -csv")
	}

	if err := godotenv.Load(); err != nil {
		log.Tracef("no .env file loaded: %s", err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	csvFile, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv export: %s", err)
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			log.Warnf("close csv export: %s", err)
		}
	}()

	csvRepo, err := measurements.NewCSVRepo(csv.NewReader(csvFile))
	if err != nil {
		log.Fatalf("read csv export: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	repo := measurements.NewRepo(dbPool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %s", err)
	}

	inserted, updated, err := repo.BatchUpsert(ctx, csvRepo.All())
	if err != nil {
		log.Fatalf("batch upsert: %s", err)
	}

	total, err := repo.Count(ctx, measurements.Filter{})
	if err != nil {
		log.Fatalf("count measurements: %s", err)
	}

	log.Printf("import done: %d inserted, %d updated, %d total in db", inserted, updated, total)
}
