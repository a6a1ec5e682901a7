// Package workflow enacts the fault-report state machine. Every
// transition checks the actor's role and the ticket's precondition state
// before any mutation; the status change itself is a conditional update
// at the store, so two actors racing on the same ticket cannot both win.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
)

// Workflow is the ticket state machine bound to a store and an audit sink.
type Workflow struct {
	store store.Store
	sink  audit.Sink
	now   func() time.Time
}

// New creates a Workflow. The clock can be overridden in tests.
func New(s store.Store, sink audit.Sink) *Workflow {
	return &Workflow{store: s, sink: sink, now: time.Now}
}

// WithClock replaces the time source.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// FaultReport is the input of the public reporting path.
type FaultReport struct {
	AssetID       uint
	IssueCategory string
	Description   string
	PhotoURL      string
}

// CreateFaultReport files a new user-submitted fault report. The ticket
// starts in pending_validation and carries a fresh tracking reference the
// reporter can poll.
func (w *Workflow) CreateFaultReport(ctx context.Context, actor Actor, in FaultReport) (model.Ticket, error) {
	if actor.Name == "" {
		return model.Ticket{}, fault.Validation("reporter name is required")
	}
	if in.IssueCategory == "" {
		return model.Ticket{}, fault.Validation("issue category is required")
	}
	if in.IssueCategory == model.CategoryPreventive {
		return model.Ticket{}, fault.Validation("category %q is reserved for the scheduler", model.CategoryPreventive)
	}
	if _, err := w.store.GetAsset(ctx, in.AssetID); err != nil {
		return model.Ticket{}, err
	}

	t := model.Ticket{
		Reference:     uuid.NewString(),
		AssetID:       in.AssetID,
		ReporterNIK:   actor.NIK,
		ReporterName:  actor.Name,
		IssueCategory: in.IssueCategory,
		Description:   in.Description,
		PhotoURL:      in.PhotoURL,
		Status:        model.TicketPendingValidation,
	}
	if err := w.store.CreateTicket(ctx, &t); err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketCreated, t.ID, actor, map[string]any{
		"asset_id": t.AssetID,
		"category": t.IssueCategory,
	})
	return t, nil
}

// PreventiveTicket builds a scheduler-originated work order. Only the
// system actor may use this path; the ticket starts open, bypassing
// validation, and is inserted by the scheduler together with its
// schedule row.
func (w *Workflow) PreventiveTicket(actor Actor, asset model.Asset) (model.Ticket, error) {
	if actor.Role != RoleSystem {
		return model.Ticket{}, fault.Denied("only the system actor may create preventive tickets")
	}
	desc := fmt.Sprintf("Preventive maintenance for %s (%s), every %d days",
		asset.Name, asset.SKU, asset.MaintenanceIntervalDays)
	return model.Ticket{
		Reference:     uuid.NewString(),
		AssetID:       asset.ID,
		ReporterNIK:   actor.NIK,
		ReporterName:  actor.Name,
		IssueCategory: model.CategoryPreventive,
		Description:   desc,
		Status:        model.TicketOpen,
	}, nil
}

// Validate moves a pending_validation ticket to open, or to false_alarm
// when the validator rejects the report.
func (w *Workflow) Validate(ctx context.Context, actor Actor, id uint, valid bool, notes string) (model.Ticket, error) {
	if !actor.can(RoleValidator) {
		return model.Ticket{}, fault.Denied("role %q may not validate tickets", actor.Role)
	}

	if valid {
		t, err := w.transition(ctx, "validate", id, model.TicketPendingValidation, map[string]any{
			"status": model.TicketOpen,
		})
		if err != nil {
			return model.Ticket{}, err
		}
		w.record(audit.ActionTicketValidated, id, actor, nil)
		return t, nil
	}

	if notes == "" {
		return model.Ticket{}, fault.Validation("notes are required when rejecting a report")
	}
	t, err := w.transition(ctx, "validate", id, model.TicketPendingValidation, map[string]any{
		"status":           model.TicketFalseAlarm,
		"completed_at":     w.now(),
		"resolution_notes": notes,
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketRejected, id, actor, map[string]any{"notes": notes})
	return t, nil
}

// Assign hands an open ticket to a technician.
func (w *Workflow) Assign(ctx context.Context, actor Actor, id uint, technicianID string) (model.Ticket, error) {
	if !actor.can(RoleDispatcher) {
		return model.Ticket{}, fault.Denied("role %q may not assign tickets", actor.Role)
	}
	if technicianID == "" {
		return model.Ticket{}, fault.Validation("technician id is required")
	}
	t, err := w.transition(ctx, "assign", id, model.TicketOpen, map[string]any{
		"status":        model.TicketAssigned,
		"technician_id": technicianID,
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketAssigned, id, actor, map[string]any{"technician_id": technicianID})
	return t, nil
}

// StartWork moves an assigned ticket to in_progress. Only the assigned
// technician (or an admin) may start it.
func (w *Workflow) StartWork(ctx context.Context, actor Actor, id uint) (model.Ticket, error) {
	if !actor.can(RoleTechnician) {
		return model.Ticket{}, fault.Denied("role %q may not start work", actor.Role)
	}
	if err := w.requireAssignee(ctx, actor, id); err != nil {
		return model.Ticket{}, err
	}
	t, err := w.transition(ctx, "startWork", id, model.TicketAssigned, map[string]any{
		"status":     model.TicketInProgress,
		"started_at": w.now(),
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketStarted, id, actor, nil)
	return t, nil
}

// SubmitForVerification records the repair outcome and hands the ticket
// to a verifier.
func (w *Workflow) SubmitForVerification(ctx context.Context, actor Actor, id uint, notes string, cost decimal.Decimal) (model.Ticket, error) {
	if !actor.can(RoleTechnician) {
		return model.Ticket{}, fault.Denied("role %q may not submit repairs", actor.Role)
	}
	if cost.IsNegative() {
		return model.Ticket{}, fault.Validation("repair cost may not be negative")
	}
	if err := w.requireAssignee(ctx, actor, id); err != nil {
		return model.Ticket{}, err
	}
	t, err := w.transition(ctx, "submitForVerification", id, model.TicketInProgress, map[string]any{
		"status":           model.TicketPendingVerification,
		"resolution_notes": notes,
		"repair_cost":      cost,
		"completed_at":     w.now(),
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketSubmitted, id, actor, map[string]any{"repair_cost": cost.String()})
	return t, nil
}

// Verify resolves a ticket after checking the repair. The verifier must
// not be the technician who did the work.
func (w *Workflow) Verify(ctx context.Context, actor Actor, id uint, notes string) (model.Ticket, error) {
	if !actor.can(RoleVerifier) {
		return model.Ticket{}, fault.Denied("role %q may not verify tickets", actor.Role)
	}
	current, err := w.store.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if current.TechnicianID != "" && current.TechnicianID == actor.NIK {
		return model.Ticket{}, fault.Denied("technician %s may not verify their own repair", actor.NIK)
	}
	t, err := w.transition(ctx, "verify", id, model.TicketPendingVerification, map[string]any{
		"status":             model.TicketResolved,
		"verified_by":        actor.NIK,
		"verified_at":        w.now(),
		"verification_notes": notes,
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketVerified, id, actor, map[string]any{"notes": notes})
	return t, nil
}

// Close archives a resolved ticket.
func (w *Workflow) Close(ctx context.Context, actor Actor, id uint) (model.Ticket, error) {
	if actor.Role != RoleAdmin {
		return model.Ticket{}, fault.Denied("role %q may not close tickets", actor.Role)
	}
	t, err := w.transition(ctx, "close", id, model.TicketResolved, map[string]any{
		"status": model.TicketClosed,
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketClosed, id, actor, nil)
	return t, nil
}

// cancellable are the states a ticket can be withdrawn from before any
// work has started.
var cancellable = []model.TicketStatus{
	model.TicketPendingValidation,
	model.TicketOpen,
	model.TicketAssigned,
}

// Cancel withdraws a ticket that has not entered repair yet.
func (w *Workflow) Cancel(ctx context.Context, actor Actor, id uint, reason string) (model.Ticket, error) {
	if !actor.can(RoleDispatcher) {
		return model.Ticket{}, fault.Denied("role %q may not cancel tickets", actor.Role)
	}
	current, err := w.store.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	from := current.Status
	ok := false
	for _, s := range cancellable {
		if from == s {
			ok = true
			break
		}
	}
	if !ok {
		return model.Ticket{}, &fault.InvalidStateTransition{
			Op:       "cancel",
			Required: "pending_validation|open|assigned",
			Actual:   string(from),
		}
	}
	t, err := w.transition(ctx, "cancel", id, from, map[string]any{
		"status":           model.TicketCancelled,
		"resolution_notes": reason,
		"completed_at":     w.now(),
	})
	if err != nil {
		return model.Ticket{}, err
	}
	w.record(audit.ActionTicketCancelled, id, actor, map[string]any{"reason": reason})
	return t, nil
}

// requireAssignee rejects a technician acting on a ticket assigned to
// someone else. Admins bypass the check.
func (w *Workflow) requireAssignee(ctx context.Context, actor Actor, id uint) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	current, err := w.store.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if current.TechnicianID != "" && current.TechnicianID != actor.NIK {
		return fault.Denied("ticket %d is assigned to %s", id, current.TechnicianID)
	}
	return nil
}

func (w *Workflow) transition(ctx context.Context, op string, id uint, from model.TicketStatus, patch map[string]any) (model.Ticket, error) {
	return w.store.TransitionTicket(ctx, op, id, from, patch)
}

func (w *Workflow) record(action string, ticketID uint, actor Actor, details map[string]any) {
	w.sink.Enqueue(audit.Entry{
		Action:      action,
		TargetTable: "tickets",
		TargetID:    fmt.Sprint(ticketID),
		Actor:       actor.NIK,
		Details:     details,
	})
}
