package clients

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeClientRepo struct {
	byID       map[uuid.UUID]*models.Client
	byIDNumber map[string]*models.Client
	agreements []*models.ClientVehicle
	debtDeltas map[uuid.UUID]decimal.Decimal
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{
		byID:       make(map[uuid.UUID]*models.Client),
		byIDNumber: make(map[string]*models.Client),
		debtDeltas: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeClientRepo) add(client *models.Client) {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	f.byID[client.ID] = client
	f.byIDNumber[client.IDNumber] = client
}

func (f *fakeClientRepo) Create(_ context.Context, client *models.Client) error {
	client.ID = uuid.New()
	client.CreatedAt = time.Now().UTC()
	f.add(client)
	return nil
}

func (f *fakeClientRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	client, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return client, nil
}

func (f *fakeClientRepo) FindByIDNumber(_ context.Context, idNumber string) (*models.Client, error) {
	client, ok := f.byIDNumber[idNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return client, nil
}

func (f *fakeClientRepo) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]models.Client, error) {
	out := make([]models.Client, 0, len(f.byID))
	for _, client := range f.byID {
		out = append(out, *client)
	}
	return out, nil
}

func (f *fakeClientRepo) ListAll(_ context.Context, _ ListFilter) ([]models.Client, error) {
	return f.List(context.Background(), ListFilter{}, pagination.Params{})
}

func (f *fakeClientRepo) Update(_ context.Context, client *models.Client) error {
	f.byID[client.ID] = client
	return nil
}

func (f *fakeClientRepo) CreateAgreementTx(_ *gorm.DB, agreement *models.ClientVehicle) error {
	agreement.ID = uuid.New()
	agreement.CreatedAt = time.Now().UTC()
	f.agreements = append(f.agreements, agreement)
	return nil
}

func (f *fakeClientRepo) FindAgreement(_ context.Context, clientID, agreementID uuid.UUID) (*models.ClientVehicle, error) {
	for _, agreement := range f.agreements {
		if agreement.ClientID == clientID && agreement.ID == agreementID {
			return agreement, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClientRepo) ListAgreements(_ context.Context, clientID uuid.UUID) ([]models.ClientVehicle, error) {
	var out []models.ClientVehicle
	for _, agreement := range f.agreements {
		if agreement.ClientID == clientID {
			out = append(out, *agreement)
		}
	}
	return out, nil
}

func (f *fakeClientRepo) AddDebtTx(_ *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error {
	f.debtDeltas[clientID] = f.debtDeltas[clientID].Add(delta)
	return nil
}

type fakeVehicleLookup struct {
	byID          map[uuid.UUID]*models.Vehicle
	statusChanges []enums.VehicleStatus
}

func newFakeVehicleLookup() *fakeVehicleLookup {
	return &fakeVehicleLookup{byID: make(map[uuid.UUID]*models.Vehicle)}
}

func (f *fakeVehicleLookup) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vehicle, nil
}

func (f *fakeVehicleLookup) ChangeStatusTx(_ *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, _ *string, _ *uuid.UUID, _ time.Time) error {
	vehicle.Status = newStatus
	f.statusChanges = append(f.statusChanges, newStatus)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *fakeClientRepo, *fakeVehicleLookup) {
	t.Helper()
	repo := newFakeClientRepo()
	vehicles := newFakeVehicleLookup()
	svc, err := NewService(repo, vehicles, fakeTxRunner{})
	require.NoError(t, err)
	return svc, repo, vehicles
}

func validCreateRequest() CreateClientRequest {
	return CreateClientRequest{
		FirstName: "Grace",
		LastName:  "Wanjiru",
		IDType:    enums.IDTypeNationalID,
		IDNumber:  "30112233",
		Phone:     "0712345678",
	}
}

func seedClient(repo *fakeClientRepo, creditLimit decimal.Decimal) *models.Client {
	client := &models.Client{
		ID:          uuid.New(),
		FirstName:   "Grace",
		LastName:    "Wanjiru",
		IDType:      enums.IDTypeNationalID,
		IDNumber:    "30112233",
		Phone:       "+254712345678",
		CreditLimit: creditLimit,
		CurrentDebt: decimal.Zero,
		Status:      enums.ClientStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	repo.add(client)
	return client
}

func seedVehicle(vehicles *fakeVehicleLookup, status enums.VehicleStatus) *models.Vehicle {
	vehicle := &models.Vehicle{
		ID:           uuid.New(),
		VIN:          "JTDBT923771012345",
		Make:         "Toyota",
		Model:        "Axio",
		Year:         2019,
		Status:       status,
		SellingPrice: decimal.NewFromInt(1250000),
	}
	vehicles.byID[vehicle.ID] = vehicle
	return vehicle
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "0712345678", want: "+254712345678"},
		{input: "+254712345678", want: "+254712345678"},
		{input: "254112345678", want: "+254112345678"},
		{input: "0712 345 678", want: "+254712345678"},
		{input: "0812345678", wantErr: true},
		{input: "071234567", wantErr: true},
		{input: "not-a-phone", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := NormalizePhone(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCreateClientNormalizesPhone(t *testing.T) {
	svc, _, _ := newTestService(t)

	dto, err := svc.Create(context.Background(), validCreateRequest(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "+254712345678", dto.Phone)
	assert.Equal(t, enums.ClientStatusActive, dto.Status)
	assert.True(t, dto.AvailableCredit.IsZero())
}

func TestCreateClientRejectsDuplicateIDNumber(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedClient(repo, decimal.Zero)

	_, err := svc.Create(context.Background(), validCreateRequest(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestBlacklistAndUnblacklist(t *testing.T) {
	svc, repo, _ := newTestService(t)
	client := seedClient(repo, decimal.Zero)

	dto, err := svc.Blacklist(context.Background(), client.ID, BlacklistRequest{Reason: "repeat defaulter"})
	require.NoError(t, err)
	assert.True(t, dto.IsBlacklisted)
	require.NotNil(t, dto.BlacklistReason)
	assert.Equal(t, "repeat defaulter", *dto.BlacklistReason)

	_, err = svc.Blacklist(context.Background(), client.ID, BlacklistRequest{Reason: "again"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	dto, err = svc.Unblacklist(context.Background(), client.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsBlacklisted)
	assert.Nil(t, dto.BlacklistReason)
}

func TestCreateAgreementReservesVehicleAndTracksDebt(t *testing.T) {
	svc, repo, vehicles := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(2000000))
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	months := 12
	rate := decimal.NewFromInt(10)
	dto, err := svc.CreateAgreement(context.Background(), client.ID, CreateAgreementRequest{
		VehicleID:         vehicle.ID,
		PurchasePrice:     decimal.NewFromInt(1250000),
		DepositPaid:       decimal.NewFromInt(250000),
		InstallmentMonths: &months,
		InterestRate:      &rate,
	}, uuid.New())
	require.NoError(t, err)

	// principal 1,000,000 at 10% simple interest over 12 months adds 100,000
	assert.True(t, dto.Balance.Equal(decimal.NewFromInt(1100000)), "balance was %s", dto.Balance)
	require.NotNil(t, dto.MonthlyInstallment)
	assert.True(t, dto.MonthlyInstallment.Equal(decimal.NewFromFloat(91666.67)), "installment was %s", dto.MonthlyInstallment)

	assert.Equal(t, enums.VehicleStatusReserved, vehicle.Status)
	assert.True(t, repo.debtDeltas[client.ID].Equal(decimal.NewFromInt(1100000)))
}

func TestCreateAgreementRejectsUnavailableVehicle(t *testing.T) {
	svc, repo, vehicles := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(2000000))
	vehicle := seedVehicle(vehicles, enums.VehicleStatusSold)

	_, err := svc.CreateAgreement(context.Background(), client.ID, CreateAgreementRequest{
		VehicleID:     vehicle.ID,
		PurchasePrice: decimal.NewFromInt(1250000),
		DepositPaid:   decimal.NewFromInt(250000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateAgreementRejectsBlacklistedClient(t *testing.T) {
	svc, repo, vehicles := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(2000000))
	client.IsBlacklisted = true
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	_, err := svc.CreateAgreement(context.Background(), client.ID, CreateAgreementRequest{
		VehicleID:     vehicle.ID,
		PurchasePrice: decimal.NewFromInt(500000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateAgreementRejectsExceededCredit(t *testing.T) {
	svc, repo, vehicles := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(500000))
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	_, err := svc.CreateAgreement(context.Background(), client.ID, CreateAgreementRequest{
		VehicleID:     vehicle.ID,
		PurchasePrice: decimal.NewFromInt(1250000),
		DepositPaid:   decimal.NewFromInt(250000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, vehicles.statusChanges)
}

func TestCreateAgreementRejectsDepositOverPrice(t *testing.T) {
	svc, repo, vehicles := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(2000000))
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	_, err := svc.CreateAgreement(context.Background(), client.ID, CreateAgreementRequest{
		VehicleID:     vehicle.ID,
		PurchasePrice: decimal.NewFromInt(500000),
		DepositPaid:   decimal.NewFromInt(600000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestExportCSVIncludesClientRows(t *testing.T) {
	svc, repo, _ := newTestService(t)
	client := seedClient(repo, decimal.NewFromInt(100000))
	client.CurrentDebt = decimal.NewFromInt(40000)

	out, err := svc.ExportCSV(context.Background(), ListFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Available Credit")
	assert.Contains(t, lines[1], "Grace Wanjiru")
	assert.Contains(t, lines[1], "60000.00")
}
