package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ac-maintenance-backend/internal/model"
)

// mockAppender captures appended entries, optionally failing or blocking.
type mockAppender struct {
	mu      sync.Mutex
	entries []model.AuditLog
	err     error
	block   chan struct{}
	done    chan struct{}
}

func (m *mockAppender) AppendAudit(ctx context.Context, entry *model.AuditLog) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.entries = append(m.entries, *entry)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.err
}

func (m *mockAppender) all() []model.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.entries...)
}

func TestWorkerAppendsEntries(t *testing.T) {
	dest := &mockAppender{done: make(chan struct{}, 1)}
	w := NewWorker(8, 1, dest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(Entry{
		Action:      ActionPMGenerated,
		TargetTable: "maintenance_schedules",
		TargetID:    "42",
		Actor:       "SYSTEM",
		Details:     map[string]any{"ticket_id": 7},
	})

	select {
	case <-dest.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit append")
	}

	entries := dest.all()
	require.Len(t, entries, 1)
	assert.Equal(t, ActionPMGenerated, entries[0].Action)
	assert.Equal(t, "maintenance_schedules", entries[0].TargetTable)
	assert.Equal(t, "42", entries[0].TargetID)
	assert.Equal(t, "SYSTEM", entries[0].Actor)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Details), &details))
	assert.EqualValues(t, 7, details["ticket_id"])
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// No worker is draining and the destination would block forever;
	// every enqueue must still return immediately.
	dest := &mockAppender{block: make(chan struct{})}
	w := NewWorker(2, 1, dest)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			w.Enqueue(Entry{Action: ActionTicketCreated, TargetTable: "tickets"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}

func TestDestinationFailureIsSwallowed(t *testing.T) {
	dest := &mockAppender{err: errors.New("audit db down"), done: make(chan struct{}, 2)}
	w := NewWorker(8, 1, dest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Both entries are attempted despite the first failing.
	w.Enqueue(Entry{Action: ActionTicketCreated, TargetTable: "tickets", TargetID: "1"})
	w.Enqueue(Entry{Action: ActionTicketValidated, TargetTable: "tickets", TargetID: "1"})

	for i := 0; i < 2; i++ {
		select {
		case <-dest.done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for audit append")
		}
	}
	assert.Len(t, dest.all(), 2)
}

func TestWorkerShutdown(t *testing.T) {
	dest := &mockAppender{}
	w := NewWorker(8, 2, dest)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	// After shutdown enqueue still must not block or panic.
	w.Enqueue(Entry{Action: ActionTicketClosed, TargetTable: "tickets"})
}
