// Package scheduler computes which assets are due for preventive
// maintenance, turns them into work orders, and rolls the due dates
// forward on completion. There is no in-process timer: generation is
// invoked by an operator or an external periodic trigger through the API.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

// Scheduler generates and completes preventive maintenance work.
type Scheduler struct {
	store    store.Store
	workflow *workflow.Workflow
	sink     audit.Sink
	log      *logrus.Entry
	now      func() time.Time
}

// New creates a Scheduler.
func New(s store.Store, wf *workflow.Workflow, sink audit.Sink) *Scheduler {
	return &Scheduler{
		store:    s,
		workflow: wf,
		sink:     sink,
		log:      logrus.WithField("component", "scheduler"),
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// AssetsDue returns active assets whose next maintenance date falls
// within the next horizonDays, ascending by due date. Assets without a
// next date never appear. Pure read.
func (s *Scheduler) AssetsDue(ctx context.Context, horizonDays int) ([]model.Asset, error) {
	if horizonDays < 0 {
		return nil, fault.Validation("horizon days may not be negative")
	}
	cutoff := dateOnly(s.now()).AddDate(0, 0, horizonDays)
	return s.store.AssetsDue(ctx, cutoff)
}

// GeneratePreventiveTicket creates an open preventive work order and its
// schedule row for the asset. The insert is rejected when the asset
// already has a preventive ticket in a working state, so repeated or
// concurrent generation runs cannot stack duplicate work orders.
func (s *Scheduler) GeneratePreventiveTicket(ctx context.Context, assetID uint) (model.Ticket, model.MaintenanceSchedule, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return model.Ticket{}, model.MaintenanceSchedule{}, err
	}
	if !asset.IsActive {
		return model.Ticket{}, model.MaintenanceSchedule{}, fault.Validation("asset %d is no longer in service", assetID)
	}

	ticket, err := s.workflow.PreventiveTicket(workflow.SystemActor, asset)
	if err != nil {
		return model.Ticket{}, model.MaintenanceSchedule{}, err
	}
	sched := model.MaintenanceSchedule{
		AssetID:       asset.ID,
		ScheduledDate: dateOnly(s.now()),
		Status:        model.ScheduleInProgress,
	}
	if err := s.store.CreatePreventiveWork(ctx, &ticket, &sched); err != nil {
		return model.Ticket{}, model.MaintenanceSchedule{}, err
	}

	s.sink.Enqueue(audit.Entry{
		Action:      audit.ActionPMGenerated,
		TargetTable: "maintenance_schedules",
		TargetID:    fmt.Sprint(asset.ID),
		Actor:       workflow.SystemActor.NIK,
		Details: map[string]any{
			"asset_id":  asset.ID,
			"ticket_id": ticket.ID,
		},
	})
	return ticket, sched, nil
}

// CompleteSchedule marks the schedule completed and rolls the asset's
// maintenance dates forward. The schedule update is the operation of
// record: a failed or impossible date recompute is logged, never
// surfaced.
func (s *Scheduler) CompleteSchedule(ctx context.Context, scheduleID uint, notes string) (model.MaintenanceSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return model.MaintenanceSchedule{}, err
	}

	today := dateOnly(s.now())
	if err := s.store.CompleteSchedule(ctx, scheduleID, s.now(), notes); err != nil {
		return model.MaintenanceSchedule{}, err
	}

	s.recomputeDueDate(ctx, sched.AssetID, today)

	return s.store.GetSchedule(ctx, scheduleID)
}

// recomputeDueDate advances last/next maintenance dates after a completed
// visit. Best effort after the schedule commit.
func (s *Scheduler) recomputeDueDate(ctx context.Context, assetID uint, today time.Time) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		s.log.WithError(err).WithField("asset_id", assetID).
			Warn("could not load asset for due-date recompute")
		return
	}
	if asset.MaintenanceIntervalDays <= 0 {
		s.log.WithField("asset_id", assetID).
			Info("asset has no maintenance interval, due date left unchanged")
		return
	}
	next := today.AddDate(0, 0, asset.MaintenanceIntervalDays)
	if err := s.store.SetMaintenanceDates(ctx, assetID, today, next); err != nil {
		s.log.WithError(err).WithField("asset_id", assetID).
			Warn("due-date recompute failed after schedule completion")
	}
}

// Schedules lists maintenance schedules by filter, ascending by
// scheduled date.
func (s *Scheduler) Schedules(ctx context.Context, filter store.ScheduleFilter) ([]model.MaintenanceSchedule, error) {
	return s.store.ListSchedules(ctx, filter)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
