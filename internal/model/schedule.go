package model

import "time"

// ScheduleStatus is the lifecycle state of a maintenance schedule entry.
type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "scheduled"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleMissed     ScheduleStatus = "missed"
	ScheduleSkipped    ScheduleStatus = "skipped"
)

// MaintenanceSchedule is one planned or executed service visit for an asset.
// Rows are never deleted; history is kept by status.
type MaintenanceSchedule struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	AssetID uint `gorm:"index;not null" json:"asset_id"`

	ScheduledDate time.Time  `gorm:"index;not null" json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date"`

	Status ScheduleStatus `gorm:"size:32;not null;index" json:"status"`

	// TicketID links the work order generated for this visit, if any.
	TicketID        *uint  `json:"ticket_id"`
	TechnicianNotes string `gorm:"type:text" json:"technician_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
