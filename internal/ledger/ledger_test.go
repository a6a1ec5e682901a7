package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

var dbSeq int64

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB)
}

// captureSink records audit entries synchronously for assertions.
type captureSink struct {
	entries []audit.Entry
}

func (c *captureSink) Enqueue(e audit.Entry) {
	c.entries = append(c.entries, e)
}

func depreciableAsset() model.Asset {
	purchase := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Asset{
		PurchasePrice:   decimal.NewFromInt(10_000_000),
		PurchaseDate:    &purchase,
		UsefulLifeYears: 5,
		ResidualValue:   decimal.NewFromInt(1_000_000),
	}
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	diff := got.Sub(decimal.NewFromInt(want)).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)),
		"want %d, got %s", want, got)
}

func TestBookValue(t *testing.T) {
	a := depreciableAsset()
	purchase := *a.PurchaseDate

	// Hours per fractional year of the 365.25-day convention.
	yearHours := func(years float64) time.Duration {
		return time.Duration(years * 365.25 * 24 * float64(time.Hour))
	}

	t.Run("at purchase date equals purchase price", func(t *testing.T) {
		assertAmount(t, 10_000_000, BookValue(a, purchase))
	})

	t.Run("fully depreciated after useful life", func(t *testing.T) {
		assertAmount(t, 1_000_000, BookValue(a, purchase.Add(yearHours(5))))
		assertAmount(t, 1_000_000, BookValue(a, purchase.Add(yearHours(12))))
	})

	t.Run("halfway through life", func(t *testing.T) {
		assertAmount(t, 5_500_000, BookValue(a, purchase.Add(yearHours(2.5))))
	})

	t.Run("non-increasing over time and bounded", func(t *testing.T) {
		prev := BookValue(a, purchase)
		for i := 1; i <= 60; i++ {
			v := BookValue(a, purchase.AddDate(0, i, 0))
			assert.True(t, v.LessThanOrEqual(prev), "book value rose at month %d: %s > %s", i, v, prev)
			assert.True(t, v.GreaterThanOrEqual(a.ResidualValue))
			assert.True(t, v.LessThanOrEqual(a.PurchasePrice))
			prev = v
		}
	})

	t.Run("defaults to five year life", func(t *testing.T) {
		noLife := a
		noLife.UsefulLifeYears = 0
		assertAmount(t, 1_000_000, BookValue(noLife, purchase.Add(yearHours(5))))
	})

	t.Run("zero without purchase data", func(t *testing.T) {
		assert.True(t, BookValue(model.Asset{}, time.Now()).IsZero())

		noDate := a
		noDate.PurchaseDate = nil
		assert.True(t, BookValue(noDate, time.Now()).IsZero())
	})
}

func TestDispose(t *testing.T) {
	ctx := context.Background()
	admin := workflow.Actor{NIK: "A001", Name: "Admin", Role: workflow.RoleAdmin}

	newAsset := func(t *testing.T, st store.Store) model.Asset {
		a := model.Asset{SKU: "RA 001", Name: "AC Auditorium RA 001", Status: model.AssetGood, IsActive: true}
		require.NoError(t, st.CreateAsset(ctx, &a))
		return a
	}

	t.Run("records disposal and deactivates asset", func(t *testing.T) {
		st := newTestStore(t)
		sink := &captureSink{}
		l := New(st, sink)
		a := newAsset(t, st)

		d, err := l.Dispose(ctx, admin, a.ID, DisposalInput{Type: model.DisposalScrapped, Notes: "compressor beyond repair"})
		require.NoError(t, err)
		assert.Equal(t, model.DisposalScrapped, d.DisposalType)
		assert.Equal(t, "A001", d.AuthorizedBy)

		got, err := st.GetAsset(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, model.AssetBroken, got.Status)

		require.Len(t, sink.entries, 1)
		assert.Equal(t, audit.ActionAssetDisposed, sink.entries[0].Action)
		assert.Equal(t, "assets", sink.entries[0].TargetTable)
	})

	t.Run("second disposal fails", func(t *testing.T) {
		st := newTestStore(t)
		l := New(st, &captureSink{})
		a := newAsset(t, st)

		_, err := l.Dispose(ctx, admin, a.ID, DisposalInput{Type: model.DisposalSold})
		require.NoError(t, err)

		_, err = l.Dispose(ctx, admin, a.ID, DisposalInput{Type: model.DisposalSold})
		assert.True(t, fault.IsValidation(err), "got %v", err)
	})

	t.Run("rejects unknown disposal type", func(t *testing.T) {
		st := newTestStore(t)
		l := New(st, &captureSink{})
		a := newAsset(t, st)

		_, err := l.Dispose(ctx, admin, a.ID, DisposalInput{Type: "recycled"})
		assert.True(t, fault.IsValidation(err), "got %v", err)
	})

	t.Run("requires admin role", func(t *testing.T) {
		st := newTestStore(t)
		l := New(st, &captureSink{})
		a := newAsset(t, st)

		tech := workflow.Actor{NIK: "T001", Role: workflow.RoleTechnician}
		_, err := l.Dispose(ctx, tech, a.ID, DisposalInput{Type: model.DisposalSold})
		assert.True(t, fault.IsDenied(err), "got %v", err)
	})

	t.Run("unknown asset", func(t *testing.T) {
		st := newTestStore(t)
		l := New(st, &captureSink{})

		_, err := l.Dispose(ctx, admin, 9999, DisposalInput{Type: model.DisposalLost})
		assert.True(t, fault.IsNotFound(err), "got %v", err)
	})
}
