package insurance

import (
	"context"
	"fmt"
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
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeInsuranceRepo struct {
	providers map[uuid.UUID]*models.InsuranceProvider
	policies  map[uuid.UUID]*models.InsurancePolicy
	claims    map[uuid.UUID]*models.InsuranceClaim
}

func newFakeInsuranceRepo() *fakeInsuranceRepo {
	return &fakeInsuranceRepo{
		providers: make(map[uuid.UUID]*models.InsuranceProvider),
		policies:  make(map[uuid.UUID]*models.InsurancePolicy),
		claims:    make(map[uuid.UUID]*models.InsuranceClaim),
	}
}

func (f *fakeInsuranceRepo) CreateProvider(_ context.Context, provider *models.InsuranceProvider) error {
	provider.ID = uuid.New()
	provider.CreatedAt = time.Now().UTC()
	f.providers[provider.ID] = provider
	return nil
}

func (f *fakeInsuranceRepo) FindProvider(_ context.Context, id uuid.UUID) (*models.InsuranceProvider, error) {
	provider, ok := f.providers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return provider, nil
}

func (f *fakeInsuranceRepo) FindProviderByName(_ context.Context, name string) (*models.InsuranceProvider, error) {
	for _, provider := range f.providers {
		if provider.Name == name {
			return provider, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInsuranceRepo) ListProviders(_ context.Context, activeOnly bool) ([]models.InsuranceProvider, error) {
	var out []models.InsuranceProvider
	for _, provider := range f.providers {
		if activeOnly && !provider.IsActive {
			continue
		}
		out = append(out, *provider)
	}
	return out, nil
}

func (f *fakeInsuranceRepo) UpdateProvider(_ context.Context, provider *models.InsuranceProvider) error {
	f.providers[provider.ID] = provider
	return nil
}

func (f *fakeInsuranceRepo) CreatePolicyTx(_ *gorm.DB, policy *models.InsurancePolicy) error {
	policy.ID = uuid.New()
	policy.CreatedAt = time.Now().UTC()
	f.policies[policy.ID] = policy
	return nil
}

func (f *fakeInsuranceRepo) FindPolicy(_ context.Context, id uuid.UUID) (*models.InsurancePolicy, error) {
	policy, ok := f.policies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *policy
	return &copied, nil
}

func (f *fakeInsuranceRepo) FindPolicyByNumber(_ context.Context, number string) (*models.InsurancePolicy, error) {
	for _, policy := range f.policies {
		if policy.PolicyNumber == number {
			return policy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInsuranceRepo) ListPolicies(_ context.Context, _ PolicyFilter, _ pagination.Params) ([]models.InsurancePolicy, error) {
	var out []models.InsurancePolicy
	for _, policy := range f.policies {
		out = append(out, *policy)
	}
	return out, nil
}

func (f *fakeInsuranceRepo) UpdatePolicy(_ context.Context, policy *models.InsurancePolicy) error {
	f.policies[policy.ID] = policy
	return nil
}

func (f *fakeInsuranceRepo) TransitionPolicyTx(_ *gorm.DB, policyID uuid.UUID, from, to enums.PolicyStatus, updates map[string]any) (bool, error) {
	policy, ok := f.policies[policyID]
	if !ok || policy.Status != from {
		return false, nil
	}
	policy.Status = to
	if v, ok := updates["renewed_policy_id"]; ok {
		id := v.(uuid.UUID)
		policy.RenewedPolicyID = &id
	}
	return true, nil
}

func (f *fakeInsuranceRepo) MarkReminderSentTx(_ *gorm.DB, policyID uuid.UUID) (bool, error) {
	policy, ok := f.policies[policyID]
	if !ok || policy.ReminderSent {
		return false, nil
	}
	policy.ReminderSent = true
	return true, nil
}

func (f *fakeInsuranceRepo) ListExpiring(_ context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error) {
	limit := now.AddDate(0, 0, windowDays)
	var out []models.InsurancePolicy
	for _, policy := range f.policies {
		if policy.Status != enums.PolicyStatusActive || policy.ReminderSent {
			continue
		}
		if !policy.EndDate.Before(now) && !policy.EndDate.After(limit) {
			out = append(out, *policy)
		}
	}
	return out, nil
}

func (f *fakeInsuranceRepo) ListExpiringSoon(_ context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error) {
	limit := now.AddDate(0, 0, windowDays)
	var out []models.InsurancePolicy
	for _, policy := range f.policies {
		if policy.Status != enums.PolicyStatusActive {
			continue
		}
		if !policy.EndDate.Before(now) && !policy.EndDate.After(limit) {
			out = append(out, *policy)
		}
	}
	return out, nil
}

func (f *fakeInsuranceRepo) ListLapsed(_ context.Context, now time.Time) ([]models.InsurancePolicy, error) {
	var out []models.InsurancePolicy
	for _, policy := range f.policies {
		if policy.Status == enums.PolicyStatusActive && policy.EndDate.Before(now) {
			out = append(out, *policy)
		}
	}
	return out, nil
}

func (f *fakeInsuranceRepo) CreateClaimTx(_ *gorm.DB, claim *models.InsuranceClaim) error {
	claim.ID = uuid.New()
	claim.CreatedAt = time.Now().UTC()
	f.claims[claim.ID] = claim
	return nil
}

func (f *fakeInsuranceRepo) FindClaim(_ context.Context, id uuid.UUID) (*models.InsuranceClaim, error) {
	claim, ok := f.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *claim
	return &copied, nil
}

func (f *fakeInsuranceRepo) ListClaims(_ context.Context, _ ClaimFilter, _ pagination.Params) ([]models.InsuranceClaim, error) {
	var out []models.InsuranceClaim
	for _, claim := range f.claims {
		out = append(out, *claim)
	}
	return out, nil
}

func (f *fakeInsuranceRepo) UpdateClaim(_ context.Context, claim *models.InsuranceClaim) error {
	f.claims[claim.ID] = claim
	return nil
}

type fakeVehicleLookup struct {
	byID map[uuid.UUID]*models.Vehicle
}

func (f *fakeVehicleLookup) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vehicle, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T) (*service, *fakeInsuranceRepo, *fakeVehicleLookup, *fakeEmitter) {
	t.Helper()
	repo := newFakeInsuranceRepo()
	vehicles := &fakeVehicleLookup{byID: make(map[uuid.UUID]*models.Vehicle)}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, vehicles, fakeTxRunner{}, emitter)
	require.NoError(t, err)

	concrete := svc.(*service)
	claims := 0
	concrete.nextClaim = func(_ *gorm.DB, now time.Time) (string, error) {
		claims++
		return fmt.Sprintf("CLM-%s-%04d", now.Format("20060102"), claims), nil
	}
	return concrete, repo, vehicles, emitter
}

func seedProvider(repo *fakeInsuranceRepo, name string, active bool) *models.InsuranceProvider {
	provider := &models.InsuranceProvider{ID: uuid.New(), Name: name, IsActive: active}
	repo.providers[provider.ID] = provider
	return provider
}

func seedVehicle(vehicles *fakeVehicleLookup) *models.Vehicle {
	vehicle := &models.Vehicle{ID: uuid.New(), Status: enums.VehicleStatusAvailable}
	vehicles.byID[vehicle.ID] = vehicle
	return vehicle
}

func seedPolicy(repo *fakeInsuranceRepo, vehicleID, providerID uuid.UUID, start, end time.Time) *models.InsurancePolicy {
	policy := &models.InsurancePolicy{
		ID:           uuid.New(),
		PolicyNumber: fmt.Sprintf("POL-%s", uuid.NewString()[:8]),
		VehicleID:    vehicleID,
		ProviderID:   providerID,
		Type:         enums.PolicyComprehensive,
		Status:       enums.PolicyStatusActive,
		StartDate:    start,
		EndDate:      end,
		Premium:      decimal.NewFromInt(45000),
		SumInsured:   decimal.NewFromInt(1500000),
		CreatedAt:    time.Now().UTC(),
	}
	repo.policies[policy.ID] = policy
	return policy
}

func TestCreatePolicyValidatesTerms(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()

	req := CreatePolicyRequest{
		PolicyNumber: "POL-2026-001",
		VehicleID:    vehicle.ID,
		ProviderID:   provider.ID,
		Type:         enums.PolicyComprehensive,
		StartDate:    now,
		EndDate:      now.AddDate(1, 0, 0),
		Premium:      decimal.NewFromInt(45000),
		SumInsured:   decimal.NewFromInt(1500000),
	}
	dto, err := svc.CreatePolicy(context.Background(), req, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PolicyStatusActive, dto.Status)
	assert.Equal(t, "Jubilee", dto.ProviderName)

	// duplicate number
	_, err = svc.CreatePolicy(context.Background(), req, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// end before start
	bad := req
	bad.PolicyNumber = "POL-2026-002"
	bad.EndDate = now.AddDate(0, 0, -1)
	_, err = svc.CreatePolicy(context.Background(), bad, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreatePolicyRejectsInactiveProvider(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Dormant Underwriters", false)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()

	_, err := svc.CreatePolicy(context.Background(), CreatePolicyRequest{
		PolicyNumber: "POL-2026-003",
		VehicleID:    vehicle.ID,
		ProviderID:   provider.ID,
		Type:         enums.PolicyThirdParty,
		StartDate:    now,
		EndDate:      now.AddDate(1, 0, 0),
		Premium:      decimal.NewFromInt(12000),
		SumInsured:   decimal.NewFromInt(500000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRenewPolicyChainsAndMarksOld(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()
	old := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, 10))

	renewed, err := svc.RenewPolicy(context.Background(), old.ID, RenewPolicyRequest{
		PolicyNumber: "POL-2027-001",
		StartDate:    old.EndDate,
		EndDate:      old.EndDate.AddDate(1, 0, 0),
		Premium:      decimal.NewFromInt(48000),
		SumInsured:   decimal.NewFromInt(1400000),
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, enums.PolicyStatusActive, renewed.Status)
	assert.Equal(t, old.VehicleID, renewed.VehicleID)
	assert.Equal(t, old.Type, renewed.Type)

	stored := repo.policies[old.ID]
	assert.Equal(t, enums.PolicyStatusRenewed, stored.Status)
	require.NotNil(t, stored.RenewedPolicyID)
	assert.Equal(t, renewed.ID, *stored.RenewedPolicyID)

	// a renewed policy cannot be renewed again
	_, err = svc.RenewPolicy(context.Background(), old.ID, RenewPolicyRequest{
		PolicyNumber: "POL-2027-002",
		StartDate:    now,
		EndDate:      now.AddDate(1, 0, 0),
		Premium:      decimal.NewFromInt(48000),
		SumInsured:   decimal.NewFromInt(1400000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestScanExpiryExpiresAndRemindsOnce(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()

	lapsed := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, -2))
	expiring := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(-1, 0, 0), now.AddDate(0, 0, 14))
	healthy := seedPolicy(repo, vehicle.ID, provider.ID, now, now.AddDate(1, 0, 0))

	expired, reminded, err := svc.ScanExpiry(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, reminded)

	assert.Equal(t, enums.PolicyStatusExpired, repo.policies[lapsed.ID].Status)
	assert.True(t, repo.policies[expiring.ID].ReminderSent)
	assert.Equal(t, enums.PolicyStatusActive, repo.policies[healthy.ID].Status)

	require.Len(t, emitter.events, 2)
	assert.Equal(t, enums.EventInsuranceExpired, emitter.events[0].EventType)
	assert.Equal(t, enums.EventInsuranceExpiring, emitter.events[1].EventType)

	// second scan is a no-op
	expired, reminded, err = svc.ScanExpiry(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.Zero(t, reminded)
	assert.Len(t, emitter.events, 2)
}

func TestFileClaimAllocatesNumber(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()
	policy := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(0, -6, 0), now.AddDate(0, 6, 0))

	dto, err := svc.FileClaim(context.Background(), FileClaimRequest{
		PolicyID:            policy.ID,
		Type:                enums.ClaimAccident,
		IncidentDate:        now.AddDate(0, 0, -3),
		IncidentDescription: "Rear-end collision on Mombasa Road",
		ClaimedAmount:       decimal.NewFromInt(250000),
	}, uuid.New())
	require.NoError(t, err)

	assert.Contains(t, dto.ClaimNumber, "CLM-")
	assert.Equal(t, enums.ClaimStatusPending, dto.Status)
}

func TestFileClaimGuards(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()
	policy := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(0, -6, 0), now.AddDate(0, 6, 0))

	// incident before the policy started
	_, err := svc.FileClaim(context.Background(), FileClaimRequest{
		PolicyID:            policy.ID,
		Type:                enums.ClaimTheft,
		IncidentDate:        now.AddDate(-1, 0, 0),
		IncidentDescription: "Vehicle stolen from parking lot",
		ClaimedAmount:       decimal.NewFromInt(250000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// claim above the sum insured
	_, err = svc.FileClaim(context.Background(), FileClaimRequest{
		PolicyID:            policy.ID,
		Type:                enums.ClaimFire,
		IncidentDate:        now.AddDate(0, 0, -1),
		IncidentDescription: "Engine bay fire",
		ClaimedAmount:       decimal.NewFromInt(2000000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// cancelled policy
	policy.Status = enums.PolicyStatusCancelled
	_, err = svc.FileClaim(context.Background(), FileClaimRequest{
		PolicyID:            policy.ID,
		Type:                enums.ClaimOther,
		IncidentDate:        now.AddDate(0, 0, -1),
		IncidentDescription: "Windscreen cracked",
		ClaimedAmount:       decimal.NewFromInt(30000),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestClaimLifecycle(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)
	vehicle := seedVehicle(vehicles)
	now := time.Now().UTC()
	policy := seedPolicy(repo, vehicle.ID, provider.ID, now.AddDate(0, -6, 0), now.AddDate(0, 6, 0))

	filed, err := svc.FileClaim(context.Background(), FileClaimRequest{
		PolicyID:            policy.ID,
		Type:                enums.ClaimAccident,
		IncidentDate:        now.AddDate(0, 0, -3),
		IncidentDescription: "Side collision at junction",
		ClaimedAmount:       decimal.NewFromInt(400000),
	}, uuid.New())
	require.NoError(t, err)

	// cannot approve before review
	_, err = svc.ApproveClaim(context.Background(), filed.ID, ApproveClaimRequest{
		ApprovedAmount: decimal.NewFromInt(350000),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.ReviewClaim(context.Background(), filed.ID)
	require.NoError(t, err)

	// approved amount capped by the claim
	_, err = svc.ApproveClaim(context.Background(), filed.ID, ApproveClaimRequest{
		ApprovedAmount: decimal.NewFromInt(500000),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	approved, err := svc.ApproveClaim(context.Background(), filed.ID, ApproveClaimRequest{
		ApprovedAmount: decimal.NewFromInt(300000),
	})
	require.NoError(t, err)
	assert.True(t, approved.ApprovalPercentage.Equal(decimal.NewFromInt(75)))

	excess := decimal.NewFromInt(20000)
	settled, err := svc.SettleClaim(context.Background(), filed.ID, SettleClaimRequest{
		SettledAmount: decimal.NewFromInt(280000),
		ExcessPaid:    &excess,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ClaimStatusSettled, settled.Status)
	require.NotNil(t, settled.SettledAt)

	// settled claims are terminal
	_, err = svc.RejectClaim(context.Background(), filed.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateProviderTogglesActive(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	provider := seedProvider(repo, "Jubilee", true)

	inactive := false
	dto, err := svc.UpdateProvider(context.Background(), provider.ID, UpdateProviderRequest{
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, dto.IsActive)

	active, err := svc.ListProviders(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, active)
}
