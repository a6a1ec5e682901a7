// Package ledger owns asset accounting: straight-line depreciation and
// the disposal flow that retires an asset from service.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

// daysPerYear converts elapsed days to years of use.
const daysPerYear = 365.25

// BookValue computes the asset's depreciated value at asOf under
// straight-line depreciation. Without a purchase price and date there is
// nothing to depreciate and the result is zero. The value never rises
// above the purchase price and never falls below the residual value.
func BookValue(a model.Asset, asOf time.Time) decimal.Decimal {
	if a.PurchaseDate == nil || !a.PurchasePrice.IsPositive() {
		return decimal.Zero
	}

	days := asOf.Sub(*a.PurchaseDate).Hours() / 24
	if days < 0 {
		days = 0
	}
	yearsUsed := decimal.NewFromFloat(days).Div(decimal.NewFromFloat(daysPerYear))
	life := decimal.NewFromInt(int64(a.Life()))

	if yearsUsed.GreaterThanOrEqual(life) {
		return a.ResidualValue
	}

	annualDep := a.PurchasePrice.Sub(a.ResidualValue).Div(life)
	value := a.PurchasePrice.Sub(annualDep.Mul(yearsUsed))
	if value.LessThan(a.ResidualValue) {
		return a.ResidualValue
	}
	if value.GreaterThan(a.PurchasePrice) {
		return a.PurchasePrice
	}
	return value
}

// DisposalInput describes a disposal event.
type DisposalInput struct {
	Type      model.DisposalType
	Date      *time.Time
	SalePrice *decimal.Decimal
	Notes     string
}

// Ledger performs asset disposals against the store.
type Ledger struct {
	store store.Store
	sink  audit.Sink
	now   func() time.Time
}

// New creates a Ledger.
func New(s store.Store, sink audit.Sink) *Ledger {
	return &Ledger{store: s, sink: sink, now: time.Now}
}

// WithClock replaces the time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Dispose records the one-time disposal of an asset and takes it out of
// service. Disposal of an already inactive asset fails.
func (l *Ledger) Dispose(ctx context.Context, actor workflow.Actor, assetID uint, in DisposalInput) (model.AssetDisposal, error) {
	if actor.Role != workflow.RoleAdmin {
		return model.AssetDisposal{}, fault.Denied("role %q may not dispose assets", actor.Role)
	}
	if !model.KnownDisposalType(in.Type) {
		return model.AssetDisposal{}, fault.Validation("unknown disposal type %q", in.Type)
	}

	date := l.now()
	if in.Date != nil {
		date = *in.Date
	}
	d := model.AssetDisposal{
		AssetID:      assetID,
		DisposalDate: date,
		DisposalType: in.Type,
		SalePrice:    in.SalePrice,
		Notes:        in.Notes,
		AuthorizedBy: actor.NIK,
	}
	if err := l.store.DisposeAsset(ctx, &d); err != nil {
		return model.AssetDisposal{}, err
	}

	l.sink.Enqueue(audit.Entry{
		Action:      audit.ActionAssetDisposed,
		TargetTable: "assets",
		TargetID:    fmt.Sprint(assetID),
		Actor:       actor.NIK,
		Details: map[string]any{
			"disposal_type": string(in.Type),
			"disposal_id":   d.ID,
		},
	})
	return d, nil
}
