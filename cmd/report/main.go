// The report tool runs the measurement analytics over a CSV export
// directly, no database or server needed. It prints a monthly stats
// table and writes the charts as PNG files.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dsimic/bodystats/internal/charts"
	"github.com/dsimic/bodystats/internal/measurements"
	"github.com/dsimic/bodystats/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	csvPath := flag.String("csv", "", "path of the body scale CSV export")
	outputDir := flag.String("output", "./report", "directory for the rendered PNG charts")
	deviceID := flag.String("device", "", "only include measurements of this device")
	groupDays := flag.Int("group-days", 7, "time progression window size in days")
	flag.Parse()

	if *csvPath == "" {
		log.Fatalln("no CSV export given, use -csv")
	}
	if *groupDays < measurements.MinGroupTimeDays {
		log.Fatalf("group days must be at least %d", measurements.MinGroupTimeDays)
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

	outputDirExists, err := pkg.PathExists(*outputDir, true)
	if err != nil {
		log.Fatalf("check output dir: %s", err)
	}
	if !outputDirExists {
		if err := os.MkdirAll(*outputDir, 0o755); err != nil {
			log.Fatalf("create output dir: %s", err)
		}
	}

	ctx := context.Background()
	analyzer := measurements.NewAnalyzer(csvRepo)
	filter := measurements.Filter{DeviceID: *deviceID}

	monthly, err := analyzer.Monthly(ctx, filter)
	if err != nil {
		log.Fatalf("monthly stats: %s", err)
	}
	printMonthlyTable(monthly)

	ms, err := csvRepo.List(ctx, filter)
	if err != nil {
		log.Fatalf("list measurements: %s", err)
	}

	renderCharts(ctx, analyzer, filter, monthly, ms, *outputDir, *groupDays)
}

func printMonthlyTable(monthly []measurements.MonthlyStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() {
		if err := w.Flush(); err != nil {
			log.Errorf("flush monthly table: %s", err)
		}
	}()

	fmt.Fprint(w, "Month\tRecords")
	for _, f := range measurements.AllFields() {
		fmt.Fprintf(w, "\t%s (%s)", f.DisplayName(), f.Unit())
	}
	fmt.Fprintln(w)

	for _, ms := range monthly {
		fmt.Fprintf(w, "%s\t%d", ms.Month, ms.Records)
		for _, f := range measurements.AllFields() {
			stats := ms.Fields[f]
			if stats.Variation != nil {
				fmt.Fprintf(w, "\t%.2f ±%.2f (%+.2f%%)", stats.Mean, stats.Std, *stats.Variation)
			} else {
				fmt.Fprintf(w, "\t%.2f ±%.2f", stats.Mean, stats.Std)
			}
		}
		fmt.Fprintln(w)
	}
}

func renderCharts(
	ctx context.Context,
	analyzer *measurements.Analyzer,
	filter measurements.Filter,
	monthly []measurements.MonthlyStats,
	ms []measurements.Measurement,
	outputDir string,
	groupDays int,
) {
	writeChart := func(name string, png []byte, err error) {
		if err != nil {
			log.Errorf("render %s: %s", name, err)
			return
		}
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, png, 0o644); err != nil {
			log.Errorf("write %s: %s", name, err)
			return
		}
		log.Printf("chart written: %s", path)
	}

	scatter, err := analyzer.Scatter(ctx, filter, measurements.FieldMuscleMass, measurements.FieldWeight)
	if err != nil {
		log.Errorf("scatter chart data: %s", err)
	} else {
		png, err := charts.Scatter(scatter)
		writeChart("weight_vs_muscle_mass.png", png, err)
	}

	for _, f := range measurements.AllFields() {
		progression, err := analyzer.TimeProgression(ctx, filter, f, groupDays)
		if err != nil {
			log.Errorf("%s progression data: %s", f, err)
			continue
		}
		png, err := charts.TimeProgression(progression)
		writeChart(fmt.Sprintf("%s_progression.png", f), png, err)
	}

	// kg fields share a scale, kcal goes on its own chart
	png, err := charts.MonthlyOverview(monthly, []measurements.Field{
		measurements.FieldWeight,
		measurements.FieldMuscleMass,
		measurements.FieldBodyFatMass,
		measurements.FieldTotalBodyWater,
	})
	writeChart("monthly_overview.png", png, err)

	png, err = charts.MonthlyOverview(monthly, []measurements.Field{
		measurements.FieldBasalMetabolicRate,
	})
	writeChart("monthly_basal_metabolic_rate.png", png, err)

	for _, f := range measurements.AllFields() {
		png, err := charts.MonthlyDistribution(ms, f)
		writeChart(fmt.Sprintf("%s_monthly_distribution.png", f), png, err)
	}

	png, err = charts.BodyComposition(ms)
	writeChart("body_composition.png", png, err)
}
