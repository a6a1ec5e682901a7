// Command acseed ingests a monthly service sheet (CSV or its JSON
// export) and seeds assets and maintenance schedules. Assets are
// upserted by sku; schedule rows are inserted as-is, so re-running the
// same sheet duplicates them.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/seed"
	"ac-maintenance-backend/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "./config/config.yaml", "path to config file")
		input      = flag.String("input", "", "path to the service sheet (CSV or JSON)")
		format     = flag.String("format", "", "input format: csv or json (default: by extension)")
		month      = flag.String("month", "", "target month as YYYY-MM (default: current month)")
	)
	flag.Parse()

	if *input == "" {
		logrus.Fatal("-input is required")
	}

	target := time.Now()
	if *month != "" {
		var err error
		target, err = time.Parse("2006-01", *month)
		if err != nil {
			logrus.WithError(err).Fatalf("invalid -month %q, expected YYYY-MM", *month)
		}
	}

	f := *format
	if f == "" {
		if strings.HasSuffix(strings.ToLower(*input), ".json") {
			f = "json"
		} else {
			f = "csv"
		}
	}

	src, err := os.Open(*input)
	if err != nil {
		logrus.WithError(err).Fatal("could not open input")
	}
	defer src.Close()

	var plan seed.Plan
	switch f {
	case "csv":
		plan, err = seed.ParseCSV(src, target.Year(), target.Month())
	case "json":
		plan, err = seed.ParseJSON(src, target.Year(), target.Month())
	default:
		logrus.Fatalf("unknown format %q", f)
	}
	if err != nil {
		logrus.WithError(err).Fatal("could not parse service sheet")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	if err := seed.Apply(context.Background(), store.NewGormStore(gormDB), plan); err != nil {
		logrus.WithError(err).Fatal("seed failed")
	}
	logrus.WithFields(logrus.Fields{
		"assets":    len(plan.Assets),
		"schedules": len(plan.Rows),
	}).Info("seed applied")
}
