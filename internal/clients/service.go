package clients

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// vehicleStatusChanger lets the clients service reserve a vehicle when
// an agreement opens without importing the vehicles package wholesale.
type vehicleStatusChanger interface {
	ChangeStatusTx(tx *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, notes *string, changedBy *uuid.UUID, now time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

// Service exposes client and agreement operations.
type Service interface {
	Create(ctx context.Context, req CreateClientRequest, registeredBy uuid.UUID) (*ClientDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ClientDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[ClientDTO], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientDTO, error)
	Blacklist(ctx context.Context, id uuid.UUID, req BlacklistRequest) (*ClientDTO, error)
	Unblacklist(ctx context.Context, id uuid.UUID) (*ClientDTO, error)
	CreateAgreement(ctx context.Context, clientID uuid.UUID, req CreateAgreementRequest, createdBy uuid.UUID) (*AgreementDTO, error)
	GetAgreement(ctx context.Context, clientID, agreementID uuid.UUID) (*AgreementDTO, error)
	ListAgreements(ctx context.Context, clientID uuid.UUID) ([]AgreementDTO, error)
	ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error)
}

type repository interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Client, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Client, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	CreateAgreementTx(tx *gorm.DB, agreement *models.ClientVehicle) error
	FindAgreement(ctx context.Context, clientID, agreementID uuid.UUID) (*models.ClientVehicle, error)
	ListAgreements(ctx context.Context, clientID uuid.UUID) ([]models.ClientVehicle, error)
	AddDebtTx(tx *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     repository
	vehicles vehicleStatusChanger
	db       txRunner
}

// NewService wires the clients service.
func NewService(repo repository, vehicles vehicleStatusChanger, db txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository is required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicles repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: repo, vehicles: vehicles, db: db}, nil
}

var kenyanPhonePattern = regexp.MustCompile(`^(?:\+?254|0)(1\d{8}|7\d{8})$`)

// NormalizePhone validates a Kenyan number and returns the +254 form.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	match := kenyanPhonePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must be a valid Kenyan number")
	}
	return "+254" + match[1], nil
}

func (s *service) Create(ctx context.Context, req CreateClientRequest, registeredBy uuid.UUID) (*ClientDTO, error) {
	if !req.IDType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id type")
	}
	idNumber := strings.TrimSpace(req.IDNumber)
	if idNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id number is required")
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByIDNumber(ctx, idNumber); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "id number already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup id number")
	}

	creditLimit := decimal.Zero
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
		}
		creditLimit = *req.CreditLimit
	}

	registeredByID := registeredBy
	client := &models.Client{
		FirstName:         strings.TrimSpace(req.FirstName),
		MiddleName:        req.MiddleName,
		LastName:          strings.TrimSpace(req.LastName),
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		IDType:            req.IDType,
		IDNumber:          idNumber,
		Phone:             phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		Occupation:        req.Occupation,
		Employer:          req.Employer,
		MonthlyIncome:     req.MonthlyIncome,
		NextOfKinName:     req.NextOfKinName,
		NextOfKinPhone:    req.NextOfKinPhone,
		NextOfKinRelation: req.NextOfKinRelation,
		CreditLimit:       creditLimit,
		CurrentDebt:       decimal.Zero,
		Status:            enums.ClientStatusActive,
		RegisteredBy:      &registeredByID,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create client")
	}
	return fromModel(client), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ClientDTO, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(client), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[ClientDTO], error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return Page[ClientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list clients")
	}
	items := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item ClientDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientDTO, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		client.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.MiddleName != nil {
		client.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		client.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		phone, err := NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		client.Phone = phone
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Address != nil {
		client.Address = req.Address
	}
	if req.City != nil {
		client.City = req.City
	}
	if req.Occupation != nil {
		client.Occupation = req.Occupation
	}
	if req.Employer != nil {
		client.Employer = req.Employer
	}
	if req.MonthlyIncome != nil {
		client.MonthlyIncome = req.MonthlyIncome
	}
	if req.NextOfKinName != nil {
		client.NextOfKinName = req.NextOfKinName
	}
	if req.NextOfKinPhone != nil {
		client.NextOfKinPhone = req.NextOfKinPhone
	}
	if req.NextOfKinRelation != nil {
		client.NextOfKinRelation = req.NextOfKinRelation
	}
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
		}
		client.CreditLimit = *req.CreditLimit
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client status")
		}
		client.Status = *req.Status
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update client")
	}
	return fromModel(client), nil
}

func (s *service) Blacklist(ctx context.Context, id uuid.UUID, req BlacklistRequest) (*ClientDTO, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if client.IsBlacklisted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "client already blacklisted")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blacklist reason is required")
	}
	client.IsBlacklisted = true
	client.BlacklistReason = &reason
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "blacklist client")
	}
	return fromModel(client), nil
}

func (s *service) Unblacklist(ctx context.Context, id uuid.UUID) (*ClientDTO, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if !client.IsBlacklisted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "client is not blacklisted")
	}
	client.IsBlacklisted = false
	client.BlacklistReason = nil
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unblacklist client")
	}
	return fromModel(client), nil
}

func (s *service) CreateAgreement(ctx context.Context, clientID uuid.UUID, req CreateAgreementRequest, createdBy uuid.UUID) (*AgreementDTO, error) {
	client, err := s.findClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsBlacklisted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "blacklisted clients cannot open agreements")
	}
	if req.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase price must be positive")
	}
	if req.DepositPaid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit must not be negative")
	}
	if req.DepositPaid.GreaterThan(req.PurchasePrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit cannot exceed purchase price")
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find vehicle")
	}
	if vehicle.Status != enums.VehicleStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle is not available")
	}

	interestRate := decimal.Zero
	if req.InterestRate != nil {
		if req.InterestRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "interest rate must not be negative")
		}
		interestRate = *req.InterestRate
	}

	principal := req.PurchasePrice.Sub(req.DepositPaid)
	balance := principal
	var monthlyInstallment *decimal.Decimal
	if req.InstallmentMonths != nil {
		months := *req.InstallmentMonths
		if months < 1 || months > 120 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "installment months must be between 1 and 120")
		}
		// simple interest: principal * rate% * months/12
		interest := principal.
			Mul(interestRate).
			Div(decimal.NewFromInt(100)).
			Mul(decimal.NewFromInt(int64(months))).
			Div(decimal.NewFromInt(12)).
			Round(2)
		balance = principal.Add(interest)
		installment := balance.Div(decimal.NewFromInt(int64(months))).Round(2)
		monthlyInstallment = &installment
	}

	if balance.GreaterThan(client.AvailableCredit()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "agreement exceeds available credit")
	}

	createdByID := createdBy
	agreement := &models.ClientVehicle{
		ClientID:           clientID,
		VehicleID:          req.VehicleID,
		PurchasePrice:      req.PurchasePrice,
		DepositPaid:        req.DepositPaid,
		TotalPaid:          req.DepositPaid,
		Balance:            balance,
		MonthlyInstallment: monthlyInstallment,
		InstallmentMonths:  req.InstallmentMonths,
		InterestRate:       interestRate,
	}
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateAgreementTx(tx, agreement); err != nil {
			return err
		}
		if err := s.repo.AddDebtTx(tx, clientID, balance); err != nil {
			return err
		}
		note := "purchase agreement opened"
		return s.vehicles.ChangeStatusTx(tx, vehicle, enums.VehicleStatusReserved, &note, &createdByID, now)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create agreement")
	}
	return agreementFromModel(agreement), nil
}

func (s *service) GetAgreement(ctx context.Context, clientID, agreementID uuid.UUID) (*AgreementDTO, error) {
	agreement, err := s.repo.FindAgreement(ctx, clientID, agreementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find agreement")
	}
	return agreementFromModel(agreement), nil
}

func (s *service) ListAgreements(ctx context.Context, clientID uuid.UUID) ([]AgreementDTO, error) {
	if _, err := s.findClient(ctx, clientID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAgreements(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list agreements")
	}
	items := make([]AgreementDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *agreementFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) findClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find client")
	}
	return client, nil
}
