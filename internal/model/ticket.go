package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus is one of the nine workflow states of a fault report.
type TicketStatus string

const (
	TicketPendingValidation   TicketStatus = "pending_validation"
	TicketOpen                TicketStatus = "open"
	TicketAssigned            TicketStatus = "assigned"
	TicketInProgress          TicketStatus = "in_progress"
	TicketPendingVerification TicketStatus = "pending_verification"
	TicketResolved            TicketStatus = "resolved"
	TicketClosed              TicketStatus = "closed"
	TicketCancelled           TicketStatus = "cancelled"
	TicketFalseAlarm          TicketStatus = "false_alarm"
)

// Terminal reports whether the repair workflow has run to completion in
// s. A resolved ticket can still be archived via close.
func (s TicketStatus) Terminal() bool {
	switch s {
	case TicketResolved, TicketClosed, TicketCancelled, TicketFalseAlarm:
		return true
	}
	return false
}

// CategoryPreventive is the issue category reserved for scheduler-generated
// work orders. Public fault reports may not use it.
const CategoryPreventive = "preventive_maintenance"

// Ticket is a fault report or preventive work order against one asset.
type Ticket struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Reference is the public tracking code handed back to the reporter.
	Reference string `gorm:"size:36;uniqueIndex" json:"reference"`

	AssetID       uint   `gorm:"index;not null" json:"asset_id"`
	ReporterNIK   string `gorm:"size:32" json:"reporter_nik"`
	ReporterName  string `gorm:"size:128" json:"reporter_name"`
	IssueCategory string `gorm:"size:64;not null" json:"issue_category"`
	Description   string `gorm:"type:text" json:"description"`
	PhotoURL      string `gorm:"size:512" json:"photo_url"`

	Status TicketStatus `gorm:"size:32;not null;index" json:"status"`

	TechnicianID string     `gorm:"size:32" json:"technician_id"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`

	RepairCost      decimal.Decimal `gorm:"type:decimal(16,2)" json:"repair_cost"`
	ResolutionNotes string          `gorm:"type:text" json:"resolution_notes"`

	VerifiedBy        string     `gorm:"size:32" json:"verified_by"`
	VerifiedAt        *time.Time `json:"verified_at"`
	VerificationNotes string     `gorm:"type:text" json:"verification_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
