package vehicles

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// VehicleDTO is the transport shape for an inventory record.
type VehicleDTO struct {
	ID                 uuid.UUID              `json:"id"`
	VIN                string                 `json:"vin"`
	RegistrationNumber *string                `json:"registration_number,omitempty"`
	Make               string                 `json:"make"`
	Model              string                 `json:"model"`
	Year               int                    `json:"year"`
	Color              string                 `json:"color"`
	Mileage            int                    `json:"mileage"`
	FuelType           enums.FuelType         `json:"fuel_type"`
	Transmission       enums.Transmission     `json:"transmission"`
	BodyType           enums.BodyType         `json:"body_type"`
	Condition          enums.VehicleCondition `json:"condition"`
	Seats              int                    `json:"seats"`
	Doors              int                    `json:"doors"`
	EngineSizeCC       *int                   `json:"engine_size_cc,omitempty"`
	PurchasePrice      decimal.Decimal        `json:"purchase_price"`
	SellingPrice       decimal.Decimal        `json:"selling_price"`
	DepositAmount      *decimal.Decimal       `json:"deposit_amount,omitempty"`
	Status             enums.VehicleStatus    `json:"status"`
	IsFeatured         bool                   `json:"is_featured"`
	Description        *string                `json:"description,omitempty"`
	DateSold           *time.Time             `json:"date_sold,omitempty"`
	Profit             decimal.Decimal        `json:"profit"`
	ProfitMargin       decimal.Decimal        `json:"profit_margin_percent"`
	Photos             []PhotoDTO             `json:"photos,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// PhotoDTO is one gallery entry.
type PhotoDTO struct {
	ID           uuid.UUID `json:"id"`
	Path         string    `json:"path"`
	Caption      *string   `json:"caption,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryDTO is one status transition row.
type HistoryDTO struct {
	ID        uuid.UUID           `json:"id"`
	OldStatus enums.VehicleStatus `json:"old_status"`
	NewStatus enums.VehicleStatus `json:"new_status"`
	Notes     *string             `json:"notes,omitempty"`
	ChangedBy *uuid.UUID          `json:"changed_by,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// CreateVehicleRequest carries the fields for a new inventory record.
type CreateVehicleRequest struct {
	VIN                string                 `json:"vin" validate:"required,len=17"`
	RegistrationNumber *string                `json:"registration_number,omitempty"`
	Make               string                 `json:"make" validate:"required"`
	Model              string                 `json:"model" validate:"required"`
	Year               int                    `json:"year" validate:"required"`
	Color              string                 `json:"color" validate:"required"`
	Mileage            int                    `json:"mileage" validate:"gte=0"`
	FuelType           enums.FuelType         `json:"fuel_type" validate:"required"`
	Transmission       enums.Transmission     `json:"transmission" validate:"required"`
	BodyType           enums.BodyType         `json:"body_type" validate:"required"`
	Condition          enums.VehicleCondition `json:"condition" validate:"required"`
	Seats              int                    `json:"seats"`
	Doors              int                    `json:"doors"`
	EngineSizeCC       *int                   `json:"engine_size_cc,omitempty"`
	PurchasePrice      decimal.Decimal        `json:"purchase_price" validate:"required"`
	SellingPrice       decimal.Decimal        `json:"selling_price" validate:"required"`
	DepositAmount      *decimal.Decimal       `json:"deposit_amount,omitempty"`
	IsFeatured         bool                   `json:"is_featured"`
	Description        *string                `json:"description,omitempty"`
}

// UpdateVehicleRequest carries partial updates. Nil means unchanged.
type UpdateVehicleRequest struct {
	RegistrationNumber *string                 `json:"registration_number,omitempty"`
	Color              *string                 `json:"color,omitempty"`
	Mileage            *int                    `json:"mileage,omitempty"`
	FuelType           *enums.FuelType         `json:"fuel_type,omitempty"`
	Transmission       *enums.Transmission     `json:"transmission,omitempty"`
	BodyType           *enums.BodyType         `json:"body_type,omitempty"`
	Condition          *enums.VehicleCondition `json:"condition,omitempty"`
	Seats              *int                    `json:"seats,omitempty"`
	Doors              *int                    `json:"doors,omitempty"`
	EngineSizeCC       *int                    `json:"engine_size_cc,omitempty"`
	PurchasePrice      *decimal.Decimal        `json:"purchase_price,omitempty"`
	SellingPrice       *decimal.Decimal        `json:"selling_price,omitempty"`
	DepositAmount      *decimal.Decimal        `json:"deposit_amount,omitempty"`
	IsFeatured         *bool                   `json:"is_featured,omitempty"`
	Description        *string                 `json:"description,omitempty"`
}

// ChangeStatusRequest moves a vehicle through its lifecycle.
type ChangeStatusRequest struct {
	Status enums.VehicleStatus `json:"status" validate:"required"`
	Notes  *string             `json:"notes,omitempty"`
}

// AddPhotoRequest registers a stored photo path.
type AddPhotoRequest struct {
	Path         string  `json:"path" validate:"required"`
	Caption      *string `json:"caption,omitempty"`
	DisplayOrder int     `json:"display_order"`
	IsPrimary    bool    `json:"is_primary"`
}

// ListFilter narrows the inventory listing.
type ListFilter struct {
	Status   *enums.VehicleStatus
	Make     *string
	Model    *string
	YearMin  *int
	YearMax  *int
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Featured *bool
	Search   string
}

// Page wraps a result slice with the cursor for the next page.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	normalized := pagination.NormalizeLimit(limit)
	page := Page[T]{Items: items}
	if len(items) > normalized {
		page.Items = items[:normalized]
		last := page.Items[len(page.Items)-1]
		encoded := pagination.EncodeCursor(cursorFor(last))
		page.NextCursor = &encoded
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func fromModel(v *models.Vehicle) *VehicleDTO {
	if v == nil {
		return nil
	}
	dto := &VehicleDTO{
		ID:                 v.ID,
		VIN:                v.VIN,
		RegistrationNumber: v.RegistrationNumber,
		Make:               v.Make,
		Model:              v.Model,
		Year:               v.Year,
		Color:              v.Color,
		Mileage:            v.Mileage,
		FuelType:           v.FuelType,
		Transmission:       v.Transmission,
		BodyType:           v.BodyType,
		Condition:          v.Condition,
		Seats:              v.Seats,
		Doors:              v.Doors,
		EngineSizeCC:       v.EngineSizeCC,
		PurchasePrice:      v.PurchasePrice,
		SellingPrice:       v.SellingPrice,
		DepositAmount:      v.DepositAmount,
		Status:             v.Status,
		IsFeatured:         v.IsFeatured,
		Description:        v.Description,
		DateSold:           v.DateSold,
		Profit:             v.Profit(),
		ProfitMargin:       v.ProfitMarginPercent(),
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
	for i := range v.Photos {
		dto.Photos = append(dto.Photos, photoFromModel(&v.Photos[i]))
	}
	return dto
}

func photoFromModel(p *models.VehiclePhoto) PhotoDTO {
	return PhotoDTO{
		ID:           p.ID,
		Path:         p.Path,
		Caption:      p.Caption,
		DisplayOrder: p.DisplayOrder,
		IsPrimary:    p.IsPrimary,
		CreatedAt:    p.CreatedAt,
	}
}

func historyFromModel(h *models.VehicleHistory) HistoryDTO {
	return HistoryDTO{
		ID:        h.ID,
		OldStatus: h.OldStatus,
		NewStatus: h.NewStatus,
		Notes:     h.Notes,
		ChangedBy: h.ChangedBy,
		CreatedAt: h.CreatedAt,
	}
}
