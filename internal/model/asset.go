package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus is the operational state of an air-conditioning unit.
type AssetStatus string

const (
	AssetGood        AssetStatus = "good"
	AssetMaintenance AssetStatus = "maintenance"
	AssetBroken      AssetStatus = "broken"
)

// DefaultUsefulLifeYears is assumed when an asset has no explicit useful life.
const DefaultUsefulLifeYears = 5

// Asset represents a single air-conditioning unit tracked by the system.
type Asset struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	SKU      string      `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Name     string      `gorm:"size:256;not null" json:"name"`
	Location string      `gorm:"size:256" json:"location"`
	Brand    string      `gorm:"size:128" json:"brand"`
	// PowerRating is the cooling capacity as printed on the service sheets, e.g. "2 PK".
	PowerRating string      `gorm:"size:32" json:"power_rating"`
	Status      AssetStatus `gorm:"size:32;not null;default:good" json:"status"`

	PurchasePrice   decimal.Decimal `gorm:"type:decimal(16,2)" json:"purchase_price"`
	PurchaseDate    *time.Time      `json:"purchase_date"`
	UsefulLifeYears int             `json:"useful_life_years"`
	ResidualValue   decimal.Decimal `gorm:"type:decimal(16,2)" json:"residual_value"`

	MaintenanceIntervalDays int        `json:"maintenance_interval_days"`
	LastMaintenanceDate     *time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate     *time.Time `gorm:"index" json:"next_maintenance_date"`

	IsActive  bool `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Life returns the useful life in years, falling back to the default.
func (a *Asset) Life() int {
	if a.UsefulLifeYears > 0 {
		return a.UsefulLifeYears
	}
	return DefaultUsefulLifeYears
}
