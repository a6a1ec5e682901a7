package model

import "time"

// AuditLog is one append-only entry in the action log.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Action      string `gorm:"size:64;not null" json:"action"`
	TargetTable string `gorm:"size:64;not null" json:"target_table"`
	TargetID    string `gorm:"size:64" json:"target_id"`
	// Actor is the NIK of the user or the system identity that acted.
	Actor   string `gorm:"size:32" json:"actor"`
	Details string `gorm:"type:text" json:"details"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
