// Package seed ingests the facility's recurring maintenance plans (the
// semicolon-separated service sheet and its JSON export) and turns them
// into store operations: assets upserted by sku, schedule rows inserted
// unconditionally. Re-running a seed accumulates duplicate schedule rows;
// that is a known limitation of the plan sources, not guarded here.
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
)

// ScheduleRow is one planned service visit, keyed by asset sku because
// asset ids are only known after the upsert.
type ScheduleRow struct {
	SKU  string
	Date time.Time
}

// Plan is the parsed content of a seed source.
type Plan struct {
	Assets []model.Asset
	Rows   []ScheduleRow
}

// ParseCSV reads the semicolon-separated service sheet. Data rows start
// with a running number; the columns are number, location, sku, unit
// type, power rating, then one column per day of the month where a "v"
// marks a planned visit.
func ParseCSV(r io.Reader, year int, month time.Month) (Plan, error) {
	var plan Plan
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cols := strings.Split(scanner.Text(), ";")
		if len(cols) < 5 {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(cols[0])); err != nil {
			// Header or stray line.
			continue
		}

		location := strings.TrimSpace(cols[1])
		sku := strings.TrimSpace(cols[2])
		unitType := strings.TrimSpace(cols[3])
		power := strings.TrimSpace(cols[4])
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true

		plan.Assets = append(plan.Assets, sheetAsset(sku, location, unitType, power))

		for day := 1; day <= 31 && 4+day < len(cols); day++ {
			if !strings.Contains(strings.ToLower(cols[4+day]), "v") {
				continue
			}
			if date, ok := dayInMonth(year, month, day); ok {
				plan.Rows = append(plan.Rows, ScheduleRow{SKU: sku, Date: date})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Plan{}, fmt.Errorf("reading service sheet: %w", err)
	}
	return plan, nil
}

// jsonSheet mirrors the JSON export of the service sheet.
type jsonSheet struct {
	Schedule []jsonItem `json:"schedule"`
}

type jsonItem struct {
	SKU      string `json:"NO_AC"`
	Location string `json:"RUANGAN_LOKASI"`
	UnitType string `json:"JENIS"`
	Power    string `json:"PK"`
	Days     []int  `json:"JADWAL_SERVICE"`
}

// ParseJSON reads the JSON export of the service sheet.
func ParseJSON(r io.Reader, year int, month time.Month) (Plan, error) {
	var sheet jsonSheet
	if err := json.NewDecoder(r).Decode(&sheet); err != nil {
		return Plan{}, fmt.Errorf("decoding schedule json: %w", err)
	}

	var plan Plan
	seen := make(map[string]bool)
	for _, item := range sheet.Schedule {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" || strings.EqualFold(sku, "NO AC") || seen[sku] {
			continue
		}
		seen[sku] = true

		plan.Assets = append(plan.Assets, sheetAsset(sku, strings.TrimSpace(item.Location), strings.TrimSpace(item.UnitType), strings.TrimSpace(item.Power)))

		for _, day := range item.Days {
			if date, ok := dayInMonth(year, month, day); ok {
				plan.Rows = append(plan.Rows, ScheduleRow{SKU: sku, Date: date})
			}
		}
	}
	return plan, nil
}

// Apply upserts the plan's assets and inserts its schedule rows.
func Apply(ctx context.Context, st store.Store, plan Plan) error {
	if len(plan.Assets) == 0 {
		return fault.Validation("seed plan contains no assets")
	}

	logrus.WithField("assets", len(plan.Assets)).Info("upserting assets by sku")
	if err := st.UpsertAssetsBySKU(ctx, plan.Assets); err != nil {
		return err
	}

	skus := make([]string, 0, len(plan.Assets))
	for _, a := range plan.Assets {
		skus = append(skus, a.SKU)
	}
	assets, err := st.AssetsBySKU(ctx, skus)
	if err != nil {
		return err
	}
	idBySKU := make(map[string]uint, len(assets))
	for _, a := range assets {
		idBySKU[a.SKU] = a.ID
	}

	rows := make([]model.MaintenanceSchedule, 0, len(plan.Rows))
	for _, r := range plan.Rows {
		id, ok := idBySKU[r.SKU]
		if !ok {
			logrus.WithField("sku", r.SKU).Warn("schedule row references unknown sku, skipped")
			continue
		}
		rows = append(rows, model.MaintenanceSchedule{
			AssetID:       id,
			ScheduledDate: r.Date,
			Status:        model.ScheduleScheduled,
		})
	}

	logrus.WithField("schedules", len(rows)).Info("inserting schedule rows")
	return st.InsertSchedules(ctx, rows)
}

func sheetAsset(sku, location, unitType, power string) model.Asset {
	brand := unitType
	if brand == "" {
		brand = "Unknown"
	}
	return model.Asset{
		SKU:         sku,
		Name:        fmt.Sprintf("AC %s %s", location, sku),
		Location:    location,
		Brand:       brand,
		PowerRating: power,
		Status:      model.AssetGood,
		IsActive:    true,
	}
}

// dayInMonth validates a day number against the target month.
func dayInMonth(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}
