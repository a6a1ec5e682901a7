package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/ledger"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
)

const dateLayout = "2006-01-02"

type assetRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location"`
	Brand       string `json:"brand"`
	PowerRating string `json:"power_rating"`

	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	PurchaseDate    string          `json:"purchase_date"`
	UsefulLifeYears int             `json:"useful_life_years"`
	ResidualValue   decimal.Decimal `json:"residual_value"`

	MaintenanceIntervalDays int    `json:"maintenance_interval_days"`
	LastMaintenanceDate     string `json:"last_maintenance_date"`
}

// assetResponse is an asset plus its current book value.
type assetResponse struct {
	model.Asset
	BookValue decimal.Decimal `json:"book_value"`
}

// ListAssets handles GET /api/assets.
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.store.ListAssets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// CreateAsset handles POST /api/assets.
func (h *Handler) CreateAsset(c *gin.Context) {
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid asset payload: %v", err))
		return
	}

	asset := model.Asset{
		SKU:                     req.SKU,
		Name:                    req.Name,
		Location:                req.Location,
		Brand:                   req.Brand,
		PowerRating:             req.PowerRating,
		Status:                  model.AssetGood,
		PurchasePrice:           req.PurchasePrice,
		UsefulLifeYears:         req.UsefulLifeYears,
		ResidualValue:           req.ResidualValue,
		MaintenanceIntervalDays: req.MaintenanceIntervalDays,
		IsActive:                true,
	}

	var err error
	if asset.PurchaseDate, err = parseOptionalDate(req.PurchaseDate); err != nil {
		respondError(c, err)
		return
	}
	if asset.LastMaintenanceDate, err = parseOptionalDate(req.LastMaintenanceDate); err != nil {
		respondError(c, err)
		return
	}
	syncNextMaintenance(&asset)

	if err := h.store.CreateAsset(c.Request.Context(), &asset); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// GetAsset handles GET /api/assets/:id.
func (h *Handler) GetAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assetResponse{
		Asset:     asset,
		BookValue: ledger.BookValue(asset, time.Now()),
	})
}

// UpdateAsset handles PUT /api/assets/:id.
func (h *Handler) UpdateAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid asset payload: %v", err))
		return
	}

	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	asset.SKU = req.SKU
	asset.Name = req.Name
	asset.Location = req.Location
	asset.Brand = req.Brand
	asset.PowerRating = req.PowerRating
	asset.PurchasePrice = req.PurchasePrice
	asset.UsefulLifeYears = req.UsefulLifeYears
	asset.ResidualValue = req.ResidualValue
	asset.MaintenanceIntervalDays = req.MaintenanceIntervalDays
	if asset.PurchaseDate, err = parseOptionalDate(req.PurchaseDate); err != nil {
		respondError(c, err)
		return
	}
	if asset.LastMaintenanceDate, err = parseOptionalDate(req.LastMaintenanceDate); err != nil {
		respondError(c, err)
		return
	}
	syncNextMaintenance(&asset)

	patch := map[string]any{
		"sku":                       asset.SKU,
		"name":                      asset.Name,
		"location":                  asset.Location,
		"brand":                     asset.Brand,
		"power_rating":              asset.PowerRating,
		"purchase_price":            asset.PurchasePrice,
		"purchase_date":             asset.PurchaseDate,
		"useful_life_years":         asset.UsefulLifeYears,
		"residual_value":            asset.ResidualValue,
		"maintenance_interval_days": asset.MaintenanceIntervalDays,
		"last_maintenance_date":     asset.LastMaintenanceDate,
		"next_maintenance_date":     asset.NextMaintenanceDate,
	}
	if err := h.store.UpdateAsset(c.Request.Context(), id, patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

type disposeRequest struct {
	DisposalType string           `json:"disposal_type" binding:"required"`
	DisposalDate string           `json:"disposal_date"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	Notes        string           `json:"notes"`
}

// DisposeAsset handles POST /api/assets/:id/dispose.
func (h *Handler) DisposeAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req disposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid disposal payload: %v", err))
		return
	}
	date, err := parseOptionalDate(req.DisposalDate)
	if err != nil {
		respondError(c, err)
		return
	}

	disposal, err := h.ledger.Dispose(c.Request.Context(), mw.ActorFrom(c), id, ledger.DisposalInput{
		Type:      model.DisposalType(req.DisposalType),
		Date:      date,
		SalePrice: req.SalePrice,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, disposal)
}

// syncNextMaintenance keeps the invariant that the next maintenance date
// is the last one plus the interval, whenever both are known.
func syncNextMaintenance(a *model.Asset) {
	if a.MaintenanceIntervalDays > 0 && a.LastMaintenanceDate != nil {
		next := a.LastMaintenanceDate.AddDate(0, 0, a.MaintenanceIntervalDays)
		a.NextMaintenanceDate = &next
	}
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fault.Validation("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fault.Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}
