// Package audit implements the best-effort action log. Entries are
// enqueued fire-and-forget and written by background workers; a slow or
// failing destination never blocks or fails the operation that produced
// the entry.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/internal/model"
)

// Actions recorded by the core components.
const (
	ActionTicketCreated   = "TICKET_CREATED"
	ActionTicketValidated = "TICKET_VALIDATED"
	ActionTicketRejected  = "TICKET_REJECTED"
	ActionTicketAssigned  = "TICKET_ASSIGNED"
	ActionTicketStarted   = "TICKET_STARTED"
	ActionTicketSubmitted = "TICKET_SUBMITTED"
	ActionTicketVerified  = "TICKET_VERIFIED"
	ActionTicketClosed    = "TICKET_CLOSED"
	ActionTicketCancelled = "TICKET_CANCELLED"
	ActionPMGenerated     = "PM_GENERATED"
	ActionAssetDisposed   = "ASSET_DISPOSED"
)

// Entry is one action to be recorded.
type Entry struct {
	Action      string
	TargetTable string
	TargetID    string
	Actor       string
	Details     map[string]any
}

// Sink accepts entries without blocking. Implementations must swallow
// their own failures.
type Sink interface {
	Enqueue(e Entry)
}

// Appender is the destination a worker pool writes to. The record store
// satisfies it.
type Appender interface {
	AppendAudit(ctx context.Context, entry *model.AuditLog) error
}

// Worker is a bounded-queue Sink backed by a pool of goroutines.
type Worker struct {
	jobs chan Entry
	size int
	dest Appender
	log  *logrus.Entry
}

// NewWorker creates a worker pool with the given queue capacity and
// worker count.
func NewWorker(queueSize, workers int, dest Appender) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &Worker{
		jobs: make(chan Entry, queueSize),
		size: workers,
		dest: dest,
		log:  logrus.WithField("component", "audit"),
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.size; i++ {
		go w.worker(ctx, i)
	}
}

// Enqueue hands an entry to the pool. When the queue is full the entry is
// dropped with a warning; enqueueing never blocks the caller.
func (w *Worker) Enqueue(e Entry) {
	select {
	case w.jobs <- e:
	default:
		w.log.WithField("action", e.Action).Warn("audit queue full, entry dropped")
	}
}

func (w *Worker) worker(ctx context.Context, id int) {
	for {
		select {
		case e := <-w.jobs:
			w.append(ctx, e)
		case <-ctx.Done():
			w.log.WithField("worker", id).Debug("audit worker shutting down")
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, e Entry) {
	details := ""
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			w.log.WithError(err).Warn("could not encode audit details")
		} else {
			details = string(b)
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry := &model.AuditLog{
		Action:      e.Action,
		TargetTable: e.TargetTable,
		TargetID:    e.TargetID,
		Actor:       e.Actor,
		Details:     details,
	}
	if err := w.dest.AppendAudit(writeCtx, entry); err != nil {
		// Best effort: log locally, never surface.
		w.log.WithError(err).WithField("action", e.Action).Warn("audit append failed")
	}
}
