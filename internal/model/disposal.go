package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisposalType classifies how an asset left service.
type DisposalType string

const (
	DisposalSold     DisposalType = "sold"
	DisposalScrapped DisposalType = "scrapped"
	DisposalLost     DisposalType = "lost"
	DisposalDonated  DisposalType = "donated"
)

// KnownDisposalType reports whether t is one of the accepted disposal types.
func KnownDisposalType(t DisposalType) bool {
	switch t {
	case DisposalSold, DisposalScrapped, DisposalLost, DisposalDonated:
		return true
	}
	return false
}

// AssetDisposal records the terminal disposal event of an asset.
// Written exactly once; never updated afterwards.
type AssetDisposal struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	AssetID uint `gorm:"index;not null" json:"asset_id"`

	DisposalDate time.Time        `gorm:"not null" json:"disposal_date"`
	DisposalType DisposalType     `gorm:"size:32;not null" json:"disposal_type"`
	SalePrice    *decimal.Decimal `gorm:"type:decimal(16,2)" json:"sale_price"`
	Notes        string           `gorm:"type:text" json:"notes"`
	AuthorizedBy string           `gorm:"size:32" json:"authorized_by"`

	CreatedAt time.Time `json:"created_at"`
}
