package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
)

// ScheduleFilter selects which maintenance schedule rows to list.
type ScheduleFilter string

const (
	FilterUpcoming ScheduleFilter = "upcoming"
	FilterHistory  ScheduleFilter = "history"
	FilterAll      ScheduleFilter = "all"
)

// openTicketStatuses are the non-terminal working states a preventive
// ticket can be in. Used by the duplicate-work-order guard.
var openTicketStatuses = []model.TicketStatus{
	model.TicketOpen,
	model.TicketAssigned,
	model.TicketInProgress,
	model.TicketPendingVerification,
}

// Store is the record-store boundary. All core operations go through it;
// everything it returns is fully typed, and every error is classified by
// the fault taxonomy.
type Store interface {
	// Assets
	CreateAsset(ctx context.Context, a *model.Asset) error
	UpdateAsset(ctx context.Context, id uint, patch map[string]any) error
	GetAsset(ctx context.Context, id uint) (model.Asset, error)
	ListAssets(ctx context.Context) ([]model.Asset, error)
	AssetsDue(ctx context.Context, cutoff time.Time) ([]model.Asset, error)
	SetMaintenanceDates(ctx context.Context, assetID uint, last, next time.Time) error
	UpsertAssetsBySKU(ctx context.Context, assets []model.Asset) error
	AssetsBySKU(ctx context.Context, skus []string) ([]model.Asset, error)
	DisposeAsset(ctx context.Context, d *model.AssetDisposal) error

	// Tickets
	CreateTicket(ctx context.Context, t *model.Ticket) error
	CreatePreventiveWork(ctx context.Context, t *model.Ticket, s *model.MaintenanceSchedule) error
	GetTicket(ctx context.Context, id uint) (model.Ticket, error)
	GetTicketByReference(ctx context.Context, ref string) (model.Ticket, error)
	ListTickets(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error)
	TransitionTicket(ctx context.Context, op string, id uint, from model.TicketStatus, patch map[string]any) (model.Ticket, error)

	// Maintenance schedules
	GetSchedule(ctx context.Context, id uint) (model.MaintenanceSchedule, error)
	CompleteSchedule(ctx context.Context, id uint, completed time.Time, notes string) error
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.MaintenanceSchedule, error)
	InsertSchedules(ctx context.Context, rows []model.MaintenanceSchedule) error

	// Audit log
	AppendAudit(ctx context.Context, entry *model.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error)
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateAsset(ctx context.Context, a *model.Asset) error {
	return fault.Store(s.db.WithContext(ctx).Create(a).Error)
}

func (s *gormStore) UpdateAsset(ctx context.Context, id uint, patch map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return fault.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return fault.NotFound("asset", fmt.Sprint(id))
	}
	return nil
}

func (s *gormStore) GetAsset(ctx context.Context, id uint) (model.Asset, error) {
	var a model.Asset
	err := s.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a, fault.NotFound("asset", fmt.Sprint(id))
	}
	return a, fault.Store(err)
}

func (s *gormStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	var assets []model.Asset
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&assets).Error
	return assets, fault.Store(err)
}

// AssetsDue returns active assets whose next maintenance date falls on or
// before cutoff, ascending. Assets without a next date are excluded.
func (s *gormStore) AssetsDue(ctx context.Context, cutoff time.Time) ([]model.Asset, error) {
	var assets []model.Asset
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_maintenance_date IS NOT NULL AND next_maintenance_date <= ?", true, cutoff).
		Order("next_maintenance_date ASC").
		Find(&assets).Error
	return assets, fault.Store(err)
}

func (s *gormStore) SetMaintenanceDates(ctx context.Context, assetID uint, last, next time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", assetID).
		Updates(map[string]any{
			"last_maintenance_date": last,
			"next_maintenance_date": next,
		})
	if res.Error != nil {
		return fault.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return fault.NotFound("asset", fmt.Sprint(assetID))
	}
	return nil
}

// UpsertAssetsBySKU inserts assets keyed by sku; on conflict only the
// location, power rating and brand are refreshed.
func (s *gormStore) UpsertAssetsBySKU(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	return fault.Store(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"location", "power_rating", "brand", "updated_at"}),
		}).Create(&assets).Error
	}))
}

func (s *gormStore) AssetsBySKU(ctx context.Context, skus []string) ([]model.Asset, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var assets []model.Asset
	err := s.db.WithContext(ctx).Where("sku IN ?", skus).Find(&assets).Error
	return assets, fault.Store(err)
}

// DisposeAsset records the disposal and deactivates the asset in one
// transaction. The asset update is conditional on it still being active,
// so a second disposal fails instead of writing twice.
func (s *gormStore) DisposeAsset(ctx context.Context, d *model.AssetDisposal) error {
	return fault.Store(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Asset{}).
			Where("id = ? AND is_active = ?", d.AssetID, true).
			Updates(map[string]any{"is_active": false, "status": model.AssetBroken})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&model.Asset{}).Where("id = ?", d.AssetID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fault.NotFound("asset", fmt.Sprint(d.AssetID))
			}
			return fault.Validation("asset %d is already inactive", d.AssetID)
		}
		return tx.Create(d).Error
	}))
}

func (s *gormStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return fault.Store(s.db.WithContext(ctx).Create(t).Error)
}

// CreatePreventiveWork inserts a preventive ticket and its schedule row in
// one transaction, rejecting the insert when the asset already has a
// preventive ticket in a working state. The Postgres schema backs this
// check with a partial unique index; the transactional count makes the
// guard hold on any backend.
func (s *gormStore) CreatePreventiveWork(ctx context.Context, t *model.Ticket, sched *model.MaintenanceSchedule) error {
	return fault.Store(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.Ticket{}).
			Where("asset_id = ? AND issue_category = ? AND status IN ?",
				t.AssetID, model.CategoryPreventive, openTicketStatuses).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return fault.Validation("asset %d already has an open preventive ticket", t.AssetID)
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		sched.TicketID = &t.ID
		return tx.Create(sched).Error
	}))
}

func (s *gormStore) GetTicket(ctx context.Context, id uint) (model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t, fault.NotFound("ticket", fmt.Sprint(id))
	}
	return t, fault.Store(err)
}

func (s *gormStore) GetTicketByReference(ctx context.Context, ref string) (model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).Where("reference = ?", ref).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t, fault.NotFound("ticket", ref)
	}
	return t, fault.Store(err)
}

func (s *gormStore) ListTickets(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error) {
	var tickets []model.Ticket
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&tickets).Error
	return tickets, fault.Store(err)
}

// TransitionTicket applies a workflow transition as a compare-and-swap on
// status. The update only lands when the ticket is still in the required
// precondition state; a concurrent actor losing the race gets an
// InvalidStateTransition instead of silently overwriting.
func (s *gormStore) TransitionTicket(ctx context.Context, op string, id uint, from model.TicketStatus, patch map[string]any) (model.Ticket, error) {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Updates(patch)
	if res.Error != nil {
		return model.Ticket{}, fault.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.GetTicket(ctx, id)
		if err != nil {
			return model.Ticket{}, err
		}
		return model.Ticket{}, &fault.InvalidStateTransition{
			Op:       op,
			Required: string(from),
			Actual:   string(current.Status),
		}
	}
	return s.GetTicket(ctx, id)
}

func (s *gormStore) GetSchedule(ctx context.Context, id uint) (model.MaintenanceSchedule, error) {
	var sched model.MaintenanceSchedule
	err := s.db.WithContext(ctx).First(&sched, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sched, fault.NotFound("maintenance schedule", fmt.Sprint(id))
	}
	return sched, fault.Store(err)
}

func (s *gormStore) CompleteSchedule(ctx context.Context, id uint, completed time.Time, notes string) error {
	res := s.db.WithContext(ctx).Model(&model.MaintenanceSchedule{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":           model.ScheduleCompleted,
			"completed_date":   completed,
			"technician_notes": notes,
		})
	if res.Error != nil {
		return fault.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return fault.NotFound("maintenance schedule", fmt.Sprint(id))
	}
	return nil
}

func (s *gormStore) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.MaintenanceSchedule, error) {
	var rows []model.MaintenanceSchedule
	q := s.db.WithContext(ctx).Order("scheduled_date ASC")
	switch filter {
	case FilterUpcoming:
		q = q.Where("status NOT IN ?", []model.ScheduleStatus{model.ScheduleCompleted, model.ScheduleSkipped})
	case FilterHistory:
		q = q.Where("status IN ?", []model.ScheduleStatus{model.ScheduleCompleted, model.ScheduleSkipped})
	case FilterAll, "":
	default:
		return nil, fault.Validation("unknown schedule filter %q", filter)
	}
	err := q.Find(&rows).Error
	return rows, fault.Store(err)
}

func (s *gormStore) InsertSchedules(ctx context.Context, rows []model.MaintenanceSchedule) error {
	if len(rows) == 0 {
		return nil
	}
	return fault.Store(s.db.WithContext(ctx).Create(&rows).Error)
}

func (s *gormStore) AppendAudit(ctx context.Context, entry *model.AuditLog) error {
	return fault.Store(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *gormStore) ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []model.AuditLog
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, fault.Store(err)
}
