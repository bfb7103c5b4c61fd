package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Service exposes inventory operations.
type Service interface {
	Create(ctx context.Context, req CreateVehicleRequest, addedBy uuid.UUID) (*VehicleDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*VehicleDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[VehicleDTO], error)
	ListFeatured(ctx context.Context, limit int) ([]VehicleDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest, changedBy uuid.UUID) (*VehicleDTO, error)
	History(ctx context.Context, id uuid.UUID) ([]HistoryDTO, error)
	AddPhoto(ctx context.Context, vehicleID uuid.UUID, req AddPhotoRequest) (*PhotoDTO, error)
	ListPhotos(ctx context.Context, vehicleID uuid.UUID) ([]PhotoDTO, error)
	SetPrimaryPhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error
	DeletePhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error
	ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error)
	ExportPDF(ctx context.Context, filter ListFilter) ([]byte, error)
}

type repository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	FindByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Vehicle, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Vehicle, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	ChangeStatusTx(tx *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, notes *string, changedBy *uuid.UUID, now time.Time) error
	ListHistory(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleHistory, error)
	AddPhotoTx(tx *gorm.DB, photo *models.VehiclePhoto) error
	ListPhotos(ctx context.Context, vehicleID uuid.UUID) ([]models.VehiclePhoto, error)
	SetPrimaryPhotoTx(tx *gorm.DB, vehicleID, photoID uuid.UUID) error
	DeletePhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    repository
	db      txRunner
	emitter eventEmitter
}

// NewService wires the vehicle service.
func NewService(repo repository, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: repo, db: db, emitter: emitter}, nil
}

func (s *service) Create(ctx context.Context, req CreateVehicleRequest, addedBy uuid.UUID) (*VehicleDTO, error) {
	vin := strings.ToUpper(strings.TrimSpace(req.VIN))
	if err := ValidateVIN(vin); err != nil {
		return nil, err
	}
	if err := validateYear(req.Year); err != nil {
		return nil, err
	}
	seats := req.Seats
	if seats == 0 {
		seats = 5
	}
	doors := req.Doors
	if doors == 0 {
		doors = 4
	}
	if seats < 1 || seats > 50 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seats must be between 1 and 50")
	}
	if doors < 2 || doors > 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "doors must be between 2 and 6")
	}
	if !req.FuelType.IsValid() || !req.Transmission.IsValid() || !req.BodyType.IsValid() || !req.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle attribute")
	}
	if req.PurchasePrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}

	if _, err := s.repo.FindByVIN(ctx, vin); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "vin already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vin")
	}

	addedByID := addedBy
	vehicle := &models.Vehicle{
		VIN:                vin,
		RegistrationNumber: normalizeRegistration(req.RegistrationNumber),
		Make:               strings.TrimSpace(req.Make),
		Model:              strings.TrimSpace(req.Model),
		Year:               req.Year,
		Color:              strings.TrimSpace(req.Color),
		Mileage:            req.Mileage,
		FuelType:           req.FuelType,
		Transmission:       req.Transmission,
		BodyType:           req.BodyType,
		Condition:          req.Condition,
		Seats:              seats,
		Doors:              doors,
		EngineSizeCC:       req.EngineSizeCC,
		PurchasePrice:      req.PurchasePrice,
		SellingPrice:       req.SellingPrice,
		DepositAmount:      req.DepositAmount,
		Status:             enums.VehicleStatusAvailable,
		IsFeatured:         req.IsFeatured,
		Description:        req.Description,
		AddedBy:            &addedByID,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vehicle")
	}
	return fromModel(vehicle), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(vehicle), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[VehicleDTO], error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return Page[VehicleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles")
	}
	items := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item VehicleDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	}), nil
}

func (s *service) ListFeatured(ctx context.Context, limit int) ([]VehicleDTO, error) {
	rows, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured vehicles")
	}
	items := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RegistrationNumber != nil {
		vehicle.RegistrationNumber = normalizeRegistration(req.RegistrationNumber)
	}
	if req.Color != nil {
		vehicle.Color = strings.TrimSpace(*req.Color)
	}
	if req.Mileage != nil {
		if *req.Mileage < vehicle.Mileage {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot decrease")
		}
		vehicle.Mileage = *req.Mileage
	}
	if req.FuelType != nil {
		if !req.FuelType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fuel type")
		}
		vehicle.FuelType = *req.FuelType
	}
	if req.Transmission != nil {
		if !req.Transmission.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transmission")
		}
		vehicle.Transmission = *req.Transmission
	}
	if req.BodyType != nil {
		if !req.BodyType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid body type")
		}
		vehicle.BodyType = *req.BodyType
	}
	if req.Condition != nil {
		if !req.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
		}
		vehicle.Condition = *req.Condition
	}
	if req.Seats != nil {
		if *req.Seats < 1 || *req.Seats > 50 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "seats must be between 1 and 50")
		}
		vehicle.Seats = *req.Seats
	}
	if req.Doors != nil {
		if *req.Doors < 2 || *req.Doors > 6 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "doors must be between 2 and 6")
		}
		vehicle.Doors = *req.Doors
	}
	if req.EngineSizeCC != nil {
		vehicle.EngineSizeCC = req.EngineSizeCC
	}
	if req.PurchasePrice != nil {
		if req.PurchasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase price must not be negative")
		}
		vehicle.PurchasePrice = *req.PurchasePrice
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price must not be negative")
		}
		vehicle.SellingPrice = *req.SellingPrice
	}
	if req.DepositAmount != nil {
		vehicle.DepositAmount = req.DepositAmount
	}
	if req.IsFeatured != nil {
		vehicle.IsFeatured = *req.IsFeatured
	}
	if req.Description != nil {
		vehicle.Description = req.Description
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle")
	}
	return fromModel(vehicle), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return err
	}
	if vehicle.Status == enums.VehicleStatusSold {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sold vehicles cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete vehicle")
	}
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest, changedBy uuid.UUID) (*VehicleDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle status")
	}
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.Status == req.Status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle already in requested status")
	}

	changedByID := changedBy
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.ChangeStatusTx(tx, vehicle, req.Status, req.Notes, &changedByID, now); err != nil {
			return err
		}
		if s.emitter == nil {
			return nil
		}
		payload := payloads.VehicleStatusChangedEvent{
			VehicleID: vehicle.ID,
			VIN:       vehicle.VIN,
			OldStatus: vehicle.Status,
			NewStatus: req.Status,
		}
		if req.Notes != nil {
			payload.Notes = *req.Notes
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVehicleStatusChanged,
			AggregateType: enums.AggregateVehicle,
			AggregateID:   vehicle.ID,
			Actor:         &outbox.ActorRef{UserID: changedBy},
			Data:          payload,
			Version:       1,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "change vehicle status")
	}

	vehicle.Status = req.Status
	if req.Status == enums.VehicleStatusSold {
		vehicle.DateSold = &now
	}
	return fromModel(vehicle), nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]HistoryDTO, error) {
	if _, err := s.findVehicle(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicle history")
	}
	items := make([]HistoryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, historyFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) AddPhoto(ctx context.Context, vehicleID uuid.UUID, req AddPhotoRequest) (*PhotoDTO, error) {
	if _, err := s.findVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo path is required")
	}
	photo := &models.VehiclePhoto{
		VehicleID:    vehicleID,
		Path:         strings.TrimSpace(req.Path),
		Caption:      req.Caption,
		DisplayOrder: req.DisplayOrder,
		IsPrimary:    req.IsPrimary,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.AddPhotoTx(tx, photo)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add photo")
	}
	dto := photoFromModel(photo)
	return &dto, nil
}

func (s *service) ListPhotos(ctx context.Context, vehicleID uuid.UUID) ([]PhotoDTO, error) {
	rows, err := s.repo.ListPhotos(ctx, vehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list photos")
	}
	items := make([]PhotoDTO, 0, len(rows))
	for i := range rows {
		items = append(items, photoFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) SetPrimaryPhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.SetPrimaryPhotoTx(tx, vehicleID, photoID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set primary photo")
	}
	return nil
}

func (s *service) DeletePhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error {
	if err := s.repo.DeletePhoto(ctx, vehicleID, photoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete photo")
	}
	return nil
}

func (s *service) findVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find vehicle")
	}
	return vehicle, nil
}

// ValidateVIN enforces the 17-character format excluding I, O and Q.
func ValidateVIN(vin string) error {
	if len(vin) != 17 {
		return pkgerrors.New(pkgerrors.CodeValidation, "vin must be exactly 17 characters")
	}
	for _, ch := range vin {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'A' && ch <= 'Z':
			if ch == 'I' || ch == 'O' || ch == 'Q' {
				return pkgerrors.New(pkgerrors.CodeValidation, "vin must not contain I, O or Q")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "vin must be alphanumeric")
		}
	}
	return nil
}

func validateYear(year int) error {
	maxYear := time.Now().UTC().Year() + 1
	if year < 1900 || year > maxYear {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("year must be between 1900 and %d", maxYear))
	}
	return nil
}

func normalizeRegistration(reg *string) *string {
	if reg == nil {
		return nil
	}
	value := strings.ToUpper(strings.TrimSpace(*reg))
	if value == "" {
		return nil
	}
	return &value
}
