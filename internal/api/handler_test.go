package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/ledger"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
	"ac-maintenance-backend/internal/scheduler"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

var dbSeq int64

type nopSink struct{}

func (nopSink) Enqueue(audit.Entry) {}

type testEnv struct {
	store  store.Store
	router *gin.Engine
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	st := store.NewGormStore(gormDB)
	wf := workflow.New(st, nopSink{})
	l := ledger.New(st, nopSink{})
	sched := scheduler.New(st, wf, nopSink{})

	handler := NewHandler(st, wf, l, sched, 7)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	return testEnv{store: st, router: NewRouter(handler, cfg)}
}

func (e testEnv) addAsset(t *testing.T, a model.Asset) model.Asset {
	t.Helper()
	if a.Status == "" {
		a.Status = model.AssetGood
	}
	a.IsActive = true
	require.NoError(t, e.store.CreateAsset(context.Background(), &a))
	return a
}

func (e testEnv) do(method, path string, body any, actor *workflow.Actor) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(mw.HeaderActorNIK, actor.NIK)
		req.Header.Set(mw.HeaderActorName, actor.Name)
		req.Header.Set(mw.HeaderActorRole, string(actor.Role))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateReport(t *testing.T) {
	env := newTestEnv(t)
	asset := env.addAsset(t, model.Asset{SKU: "RA 001", Name: "AC Lobby RA 001", Location: "LOBBY"})

	t.Run("accepted report returns a tracking reference", func(t *testing.T) {
		w := env.do("POST", "/api/public/reports", gin.H{
			"asset_id":       asset.ID,
			"reporter_name":  "Eka",
			"issue_category": "not_cooling",
			"description":    "blows warm air",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.NotEmpty(t, body["reference"])
		assert.Equal(t, string(model.TicketPendingValidation), body["status"])

		// The reference can be polled on the public surface.
		poll := env.do("GET", "/api/public/reports/"+body["reference"].(string), nil, nil)
		require.Equal(t, http.StatusOK, poll.Code)
		assert.Equal(t, body["reference"], decodeBody(t, poll)["reference"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		w := env.do("POST", "/api/public/reports", gin.H{"asset_id": asset.ID}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown asset", func(t *testing.T) {
		w := env.do("POST", "/api/public/reports", gin.H{
			"asset_id": 9999, "reporter_name": "Eka", "issue_category": "not_cooling",
		}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown reference", func(t *testing.T) {
		w := env.do("GET", "/api/public/reports/no-such-ref", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	asset := env.addAsset(t, model.Asset{SKU: "RA 002", Name: "AC Aula RA 002", Location: "AULA"})

	w := env.do("POST", "/api/public/reports", gin.H{
		"asset_id": asset.ID, "reporter_name": "Eka", "issue_category": "leaking",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	ticket, err := env.store.GetTicketByReference(context.Background(), decodeBody(t, w)["reference"].(string))
	require.NoError(t, err)
	base := fmt.Sprintf("/api/tickets/%d", ticket.ID)

	validator := &workflow.Actor{NIK: "V200", Name: "Vina", Role: workflow.RoleValidator}
	dispatcher := &workflow.Actor{NIK: "D300", Name: "Dedi", Role: workflow.RoleDispatcher}
	technician := &workflow.Actor{NIK: "T400", Name: "Tono", Role: workflow.RoleTechnician}
	verifier := &workflow.Actor{NIK: "F500", Name: "Fira", Role: workflow.RoleVerifier}
	admin := &workflow.Actor{NIK: "A600", Name: "Agus", Role: workflow.RoleAdmin}

	steps := []struct {
		name  string
		path  string
		body  gin.H
		actor *workflow.Actor
		want  model.TicketStatus
	}{
		{"validate", base + "/validate", gin.H{"valid": true}, validator, model.TicketOpen},
		{"assign", base + "/assign", gin.H{"technician_id": "T400"}, dispatcher, model.TicketAssigned},
		{"start", base + "/start", nil, technician, model.TicketInProgress},
		{"submit", base + "/submit", gin.H{"notes": "replaced capacitor", "repair_cost": "350000"}, technician, model.TicketPendingVerification},
		{"verify", base + "/verify", gin.H{"notes": "checked on site"}, verifier, model.TicketResolved},
		{"close", base + "/close", nil, admin, model.TicketClosed},
	}
	for _, step := range steps {
		w := env.do("POST", step.path, step.body, step.actor)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step.name, w.Body.String())
		assert.Equal(t, string(step.want), decodeBody(t, w)["status"], step.name)
	}

	t.Run("wrong role is forbidden", func(t *testing.T) {
		w := env.do("POST", base+"/validate", gin.H{"valid": true}, technician)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("replayed transition conflicts", func(t *testing.T) {
		w := env.do("POST", base+"/close", nil, admin)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAssetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := &workflow.Actor{NIK: "A600", Name: "Agus", Role: workflow.RoleAdmin}

	t.Run("create and fetch with book value", func(t *testing.T) {
		w := env.do("POST", "/api/assets", gin.H{
			"sku":            "RA 010",
			"name":           "AC Server Room RA 010",
			"location":       "SERVER ROOM",
			"purchase_date":  "2020-01-01",
			"purchase_price": "10000000",
			"residual_value": "1000000",
		}, admin)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id := decodeBody(t, w)["id"]

		got := env.do("GET", fmt.Sprintf("/api/assets/%v", id), nil, admin)
		require.Equal(t, http.StatusOK, got.Code)
		raw, ok := decodeBody(t, got)["book_value"].(string)
		require.True(t, ok, "book_value missing")
		bv, err := decimal.NewFromString(raw)
		require.NoError(t, err)
		assert.True(t, bv.LessThan(decimal.RequireFromString("10000000")))
		assert.True(t, bv.GreaterThanOrEqual(decimal.RequireFromString("1000000")))
	})

	t.Run("dispose deactivates the asset", func(t *testing.T) {
		asset := env.addAsset(t, model.Asset{SKU: "RA 011", Name: "AC Gudang RA 011", Location: "GUDANG"})
		w := env.do("POST", fmt.Sprintf("/api/assets/%d/dispose", asset.ID), gin.H{
			"disposal_type": "scrapped", "notes": "compressor dead",
		}, admin)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		got, err := env.store.GetAsset(context.Background(), asset.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("dispose requires admin", func(t *testing.T) {
		asset := env.addAsset(t, model.Asset{SKU: "RA 012", Name: "AC Kantin RA 012", Location: "KANTIN"})
		tech := &workflow.Actor{NIK: "T400", Name: "Tono", Role: workflow.RoleTechnician}
		w := env.do("POST", fmt.Sprintf("/api/assets/%d/dispose", asset.ID), gin.H{
			"disposal_type": "scrapped",
		}, tech)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad id is rejected", func(t *testing.T) {
		w := env.do("GET", "/api/assets/abc", nil, admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMaintenanceEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := &workflow.Actor{NIK: "A600", Name: "Agus", Role: workflow.RoleAdmin}
	due := time.Now().AddDate(0, 0, 2)
	asset := env.addAsset(t, model.Asset{
		SKU: "RA 020", Name: "AC Lab RA 020", Location: "LAB",
		NextMaintenanceDate: &due, MaintenanceIntervalDays: 30,
	})

	t.Run("due assets within the horizon", func(t *testing.T) {
		w := env.do("GET", "/api/maintenance/due?days=7", nil, admin)
		require.Equal(t, http.StatusOK, w.Code)
		var assets []model.Asset
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assets))
		require.Len(t, assets, 1)
		assert.Equal(t, asset.ID, assets[0].ID)
	})

	t.Run("generate then complete", func(t *testing.T) {
		w := env.do("POST", "/api/maintenance/generate", gin.H{"asset_id": asset.ID}, admin)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeBody(t, w)
		sched := body["schedule"].(map[string]any)
		schedID := int(sched["id"].(float64))

		// A second generation for the same asset is rejected while the
		// first ticket is still working.
		again := env.do("POST", "/api/maintenance/generate", gin.H{"asset_id": asset.ID}, admin)
		assert.Equal(t, http.StatusBadRequest, again.Code)

		done := env.do("POST", fmt.Sprintf("/api/maintenance/%d/complete", schedID), gin.H{
			"notes": "cleaned filters",
		}, admin)
		require.Equal(t, http.StatusOK, done.Code, done.Body.String())
		assert.Equal(t, string(model.ScheduleCompleted), decodeBody(t, done)["status"])

		got, err := env.store.GetAsset(context.Background(), asset.ID)
		require.NoError(t, err)
		require.NotNil(t, got.NextMaintenanceDate)
		assert.True(t, got.NextMaintenanceDate.After(time.Now()))
	})

	t.Run("unknown schedule", func(t *testing.T) {
		w := env.do("POST", "/api/maintenance/9999/complete", gin.H{"notes": "x"}, admin)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
