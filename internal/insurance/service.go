package insurance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/refs"
)

// expiryWindowDays is how far ahead the expiry scan looks.
const expiryWindowDays = 30

// Service manages providers, policies and claims.
type Service interface {
	CreateProvider(ctx context.Context, req CreateProviderRequest) (*ProviderDTO, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*ProviderDTO, error)
	ListProviders(ctx context.Context, activeOnly bool) ([]ProviderDTO, error)
	UpdateProvider(ctx context.Context, id uuid.UUID, req UpdateProviderRequest) (*ProviderDTO, error)

	CreatePolicy(ctx context.Context, req CreatePolicyRequest, createdBy uuid.UUID) (*PolicyDTO, error)
	GetPolicy(ctx context.Context, id uuid.UUID) (*PolicyDTO, error)
	ListPolicies(ctx context.Context, filter PolicyFilter, params pagination.Params) (Page[PolicyDTO], error)
	RenewPolicy(ctx context.Context, id uuid.UUID, req RenewPolicyRequest, renewedBy uuid.UUID) (*PolicyDTO, error)
	CancelPolicy(ctx context.Context, id uuid.UUID) (*PolicyDTO, error)
	Expiring(ctx context.Context) ([]PolicyDTO, error)
	ScanExpiry(ctx context.Context, now time.Time) (expired, expiring int, err error)

	FileClaim(ctx context.Context, req FileClaimRequest, filedBy uuid.UUID) (*ClaimDTO, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error)
	ListClaims(ctx context.Context, filter ClaimFilter, params pagination.Params) (Page[ClaimDTO], error)
	ReviewClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error)
	ApproveClaim(ctx context.Context, id uuid.UUID, req ApproveClaimRequest) (*ClaimDTO, error)
	RejectClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error)
	SettleClaim(ctx context.Context, id uuid.UUID, req SettleClaimRequest) (*ClaimDTO, error)
}

type repository interface {
	CreateProvider(ctx context.Context, provider *models.InsuranceProvider) error
	FindProvider(ctx context.Context, id uuid.UUID) (*models.InsuranceProvider, error)
	FindProviderByName(ctx context.Context, name string) (*models.InsuranceProvider, error)
	ListProviders(ctx context.Context, activeOnly bool) ([]models.InsuranceProvider, error)
	UpdateProvider(ctx context.Context, provider *models.InsuranceProvider) error

	CreatePolicyTx(tx *gorm.DB, policy *models.InsurancePolicy) error
	FindPolicy(ctx context.Context, id uuid.UUID) (*models.InsurancePolicy, error)
	FindPolicyByNumber(ctx context.Context, number string) (*models.InsurancePolicy, error)
	ListPolicies(ctx context.Context, filter PolicyFilter, params pagination.Params) ([]models.InsurancePolicy, error)
	UpdatePolicy(ctx context.Context, policy *models.InsurancePolicy) error
	TransitionPolicyTx(tx *gorm.DB, policyID uuid.UUID, from, to enums.PolicyStatus, updates map[string]any) (bool, error)
	MarkReminderSentTx(tx *gorm.DB, policyID uuid.UUID) (bool, error)
	ListExpiring(ctx context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error)
	ListExpiringSoon(ctx context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error)
	ListLapsed(ctx context.Context, now time.Time) ([]models.InsurancePolicy, error)

	CreateClaimTx(tx *gorm.DB, claim *models.InsuranceClaim) error
	FindClaim(ctx context.Context, id uuid.UUID) (*models.InsuranceClaim, error)
	ListClaims(ctx context.Context, filter ClaimFilter, params pagination.Params) ([]models.InsuranceClaim, error)
	UpdateClaim(ctx context.Context, claim *models.InsuranceClaim) error
}

type vehicleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type claimAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo      repository
	vehicles  vehicleRepo
	db        txRunner
	emitter   eventEmitter
	nextClaim claimAllocator
}

// NewService wires the insurance service.
func NewService(repo repository, vehicles vehicleRepo, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicles repo is required")
	}
	if db == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{
		repo:     repo,
		vehicles: vehicles,
		db:       db,
		emitter:  emitter,
		nextClaim: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.Claim, now)
		},
	}, nil
}

func (s *service) CreateProvider(ctx context.Context, req CreateProviderRequest) (*ProviderDTO, error) {
	if req.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider name is required")
	}
	if existing, err := s.repo.FindProviderByName(ctx, req.Name); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a provider with this name already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check provider name")
	}

	provider := &models.InsuranceProvider{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.repo.CreateProvider(ctx, provider); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create provider")
	}
	return providerFromModel(provider), nil
}

func (s *service) GetProvider(ctx context.Context, id uuid.UUID) (*ProviderDTO, error) {
	provider, err := s.repo.FindProvider(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load provider")
	}
	return providerFromModel(provider), nil
}

func (s *service) ListProviders(ctx context.Context, activeOnly bool) ([]ProviderDTO, error) {
	rows, err := s.repo.ListProviders(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list providers")
	}
	items := make([]ProviderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *providerFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) UpdateProvider(ctx context.Context, id uuid.UUID, req UpdateProviderRequest) (*ProviderDTO, error) {
	provider, err := s.repo.FindProvider(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load provider")
	}

	if req.Name != nil && *req.Name != provider.Name {
		if *req.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider name cannot be empty")
		}
		if existing, err := s.repo.FindProviderByName(ctx, *req.Name); err == nil && existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a provider with this name already exists")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check provider name")
		}
		provider.Name = *req.Name
	}
	if req.ContactPerson != nil {
		provider.ContactPerson = req.ContactPerson
	}
	if req.Phone != nil {
		provider.Phone = req.Phone
	}
	if req.Email != nil {
		provider.Email = req.Email
	}
	if req.Address != nil {
		provider.Address = req.Address
	}
	if req.IsActive != nil {
		provider.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateProvider(ctx, provider); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update provider")
	}
	return providerFromModel(provider), nil
}

func (s *service) CreatePolicy(ctx context.Context, req CreatePolicyRequest, createdBy uuid.UUID) (*PolicyDTO, error) {
	if err := s.validatePolicyTerms(req.PolicyNumber, req.StartDate, req.EndDate, req.Premium, req.SumInsured, req.Excess); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid policy type %q", req.Type))
	}

	provider, err := s.repo.FindProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load provider")
	}
	if !provider.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "provider is not active")
	}
	if _, err := s.vehicles.FindByID(ctx, req.VehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}
	if existing, err := s.repo.FindPolicyByNumber(ctx, req.PolicyNumber); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a policy with this number already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check policy number")
	}

	actor := createdBy
	policy := &models.InsurancePolicy{
		PolicyNumber: req.PolicyNumber,
		VehicleID:    req.VehicleID,
		ProviderID:   req.ProviderID,
		Type:         req.Type,
		Status:       enums.PolicyStatusActive,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Premium:      req.Premium,
		SumInsured:   req.SumInsured,
		Excess:       req.Excess,
		Notes:        req.Notes,
		CreatedBy:    &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreatePolicyTx(tx, policy)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create policy")
	}
	policy.Provider = provider
	return policyFromModel(policy, time.Now().UTC()), nil
}

func (s *service) validatePolicyTerms(number string, start, end time.Time, premium, sumInsured decimal.Decimal, excess *decimal.Decimal) error {
	if number == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "policy number is required")
	}
	if !end.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if premium.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "premium must be positive")
	}
	if sumInsured.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sum insured must be positive")
	}
	if excess != nil && excess.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "excess cannot be negative")
	}
	return nil
}

func (s *service) GetPolicy(ctx context.Context, id uuid.UUID) (*PolicyDTO, error) {
	policy, err := s.findPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	return policyFromModel(policy, time.Now().UTC()), nil
}

func (s *service) ListPolicies(ctx context.Context, filter PolicyFilter, params pagination.Params) (Page[PolicyDTO], error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListPolicies(ctx, filter, params)
	if err != nil {
		return Page[PolicyDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list policies")
	}
	now := time.Now().UTC()
	items := make([]PolicyDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *policyFromModel(&rows[i], now))
	}
	return pageOf(items, params.Limit, func(p PolicyDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) RenewPolicy(ctx context.Context, id uuid.UUID, req RenewPolicyRequest, renewedBy uuid.UUID) (*PolicyDTO, error) {
	old, err := s.findPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	switch old.Status {
	case enums.PolicyStatusActive, enums.PolicyStatusExpired:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot renew a %s policy", old.Status))
	}
	if err := s.validatePolicyTerms(req.PolicyNumber, req.StartDate, req.EndDate, req.Premium, req.SumInsured, req.Excess); err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindPolicyByNumber(ctx, req.PolicyNumber); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a policy with this number already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check policy number")
	}

	actor := renewedBy
	successor := &models.InsurancePolicy{
		PolicyNumber: req.PolicyNumber,
		VehicleID:    old.VehicleID,
		ProviderID:   old.ProviderID,
		Type:         old.Type,
		Status:       enums.PolicyStatusActive,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Premium:      req.Premium,
		SumInsured:   req.SumInsured,
		Excess:       req.Excess,
		Notes:        req.Notes,
		CreatedBy:    &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreatePolicyTx(tx, successor); err != nil {
			return err
		}
		moved, err := s.repo.TransitionPolicyTx(tx, old.ID, old.Status, enums.PolicyStatusRenewed,
			map[string]any{"renewed_policy_id": successor.ID})
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "policy state changed, retry")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "renew policy")
	}
	successor.Provider = old.Provider
	return policyFromModel(successor, time.Now().UTC()), nil
}

func (s *service) CancelPolicy(ctx context.Context, id uuid.UUID) (*PolicyDTO, error) {
	policy, err := s.findPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.Status != enums.PolicyStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel a %s policy", policy.Status))
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionPolicyTx(tx, policy.ID,
			enums.PolicyStatusActive, enums.PolicyStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "policy state changed, retry")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel policy")
	}
	policy.Status = enums.PolicyStatusCancelled
	return policyFromModel(policy, time.Now().UTC()), nil
}

func (s *service) Expiring(ctx context.Context) ([]PolicyDTO, error) {
	now := time.Now().UTC()
	rows, err := s.repo.ListExpiringSoon(ctx, now, expiryWindowDays)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expiring policies")
	}
	items := make([]PolicyDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *policyFromModel(&rows[i], now))
	}
	return items, nil
}

// ScanExpiry expires lapsed policies and fires one expiring reminder per
// policy. Run from the scheduler.
func (s *service) ScanExpiry(ctx context.Context, now time.Time) (int, int, error) {
	lapsed, err := s.repo.ListLapsed(ctx, now)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lapsed policies")
	}
	expired := 0
	for i := range lapsed {
		policy := lapsed[i]
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			moved, err := s.repo.TransitionPolicyTx(tx, policy.ID,
				enums.PolicyStatusActive, enums.PolicyStatusExpired, nil)
			if err != nil {
				return err
			}
			if !moved {
				return nil
			}
			expired++
			return s.emitExpiry(ctx, tx, &policy, enums.EventInsuranceExpired, now)
		})
		if err != nil {
			return expired, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire policy")
		}
	}

	upcoming, err := s.repo.ListExpiring(ctx, now, expiryWindowDays)
	if err != nil {
		return expired, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expiring policies")
	}
	reminded := 0
	for i := range upcoming {
		policy := upcoming[i]
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			marked, err := s.repo.MarkReminderSentTx(tx, policy.ID)
			if err != nil {
				return err
			}
			if !marked {
				return nil
			}
			reminded++
			return s.emitExpiry(ctx, tx, &policy, enums.EventInsuranceExpiring, now)
		})
		if err != nil {
			return expired, reminded, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remind expiring policy")
		}
	}
	return expired, reminded, nil
}

func (s *service) emitExpiry(ctx context.Context, tx *gorm.DB, policy *models.InsurancePolicy, eventType enums.OutboxEventType, now time.Time) error {
	return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInsurancePolicy,
		AggregateID:   policy.ID,
		Data: payloads.InsuranceExpiryEvent{
			PolicyID:     policy.ID,
			PolicyNumber: policy.PolicyNumber,
			VehicleID:    policy.VehicleID,
			EndDate:      policy.EndDate,
			DaysLeft:     policy.DaysUntilExpiry(now),
		},
		Version:    1,
		OccurredAt: now,
	})
}

func (s *service) FileClaim(ctx context.Context, req FileClaimRequest, filedBy uuid.UUID) (*ClaimDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid claim type %q", req.Type))
	}
	if req.IncidentDescription == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incident description is required")
	}
	if req.ClaimedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "claimed amount must be positive")
	}
	now := time.Now().UTC()
	if req.IncidentDate.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incident date cannot be in the future")
	}

	policy, err := s.findPolicy(ctx, req.PolicyID)
	if err != nil {
		return nil, err
	}
	if policy.Status == enums.PolicyStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot file a claim on a cancelled policy")
	}
	if req.IncidentDate.Before(policy.StartDate) || req.IncidentDate.After(policy.EndDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incident date falls outside the policy term")
	}
	if req.ClaimedAmount.GreaterThan(policy.SumInsured) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "claimed amount exceeds the sum insured")
	}

	actor := filedBy
	claim := &models.InsuranceClaim{
		PolicyID:            policy.ID,
		Type:                req.Type,
		Status:              enums.ClaimStatusPending,
		IncidentDate:        req.IncidentDate,
		IncidentDescription: req.IncidentDescription,
		PoliceReportNumber:  req.PoliceReportNumber,
		ClaimedAmount:       req.ClaimedAmount,
		FiledBy:             &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextClaim(tx, now)
		if err != nil {
			return err
		}
		claim.ClaimNumber = number
		return s.repo.CreateClaimTx(tx, claim)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "file claim")
	}
	return claimFromModel(claim), nil
}

func (s *service) GetClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error) {
	claim, err := s.findClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	return claimFromModel(claim), nil
}

func (s *service) ListClaims(ctx context.Context, filter ClaimFilter, params pagination.Params) (Page[ClaimDTO], error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListClaims(ctx, filter, params)
	if err != nil {
		return Page[ClaimDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list claims")
	}
	items := make([]ClaimDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *claimFromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(c ClaimDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}), nil
}

var claimTransitions = map[enums.ClaimStatus][]enums.ClaimStatus{
	enums.ClaimStatusPending:     {enums.ClaimStatusUnderReview, enums.ClaimStatusRejected},
	enums.ClaimStatusUnderReview: {enums.ClaimStatusApproved, enums.ClaimStatusRejected},
	enums.ClaimStatusApproved:    {enums.ClaimStatusSettled},
	enums.ClaimStatusRejected:    {},
	enums.ClaimStatusSettled:     {},
}

func claimCanMove(from, to enums.ClaimStatus) bool {
	for _, allowed := range claimTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *service) ReviewClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error) {
	return s.moveClaim(ctx, id, enums.ClaimStatusUnderReview, nil)
}

func (s *service) ApproveClaim(ctx context.Context, id uuid.UUID, req ApproveClaimRequest) (*ClaimDTO, error) {
	if req.ApprovedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approved amount must be positive")
	}
	return s.moveClaim(ctx, id, enums.ClaimStatusApproved, func(claim *models.InsuranceClaim) error {
		if req.ApprovedAmount.GreaterThan(claim.ClaimedAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "approved amount exceeds the claimed amount")
		}
		amount := req.ApprovedAmount
		claim.ApprovedAmount = &amount
		return nil
	})
}

func (s *service) RejectClaim(ctx context.Context, id uuid.UUID) (*ClaimDTO, error) {
	return s.moveClaim(ctx, id, enums.ClaimStatusRejected, nil)
}

func (s *service) SettleClaim(ctx context.Context, id uuid.UUID, req SettleClaimRequest) (*ClaimDTO, error) {
	if req.SettledAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settled amount must be positive")
	}
	if req.ExcessPaid != nil && req.ExcessPaid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "excess paid cannot be negative")
	}
	return s.moveClaim(ctx, id, enums.ClaimStatusSettled, func(claim *models.InsuranceClaim) error {
		amount := req.SettledAmount
		claim.SettledAmount = &amount
		claim.ExcessPaid = req.ExcessPaid
		settledAt := time.Now().UTC()
		claim.SettledAt = &settledAt
		return nil
	})
}

func (s *service) moveClaim(ctx context.Context, id uuid.UUID, to enums.ClaimStatus, apply func(*models.InsuranceClaim) error) (*ClaimDTO, error) {
	claim, err := s.findClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimCanMove(claim.Status, to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("claim cannot move from %s to %s", claim.Status, to))
	}
	if apply != nil {
		if err := apply(claim); err != nil {
			return nil, err
		}
	}
	claim.Status = to
	if err := s.repo.UpdateClaim(ctx, claim); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update claim")
	}
	return claimFromModel(claim), nil
}

func (s *service) findPolicy(ctx context.Context, id uuid.UUID) (*models.InsurancePolicy, error) {
	policy, err := s.repo.FindPolicy(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "policy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load policy")
	}
	return policy, nil
}

func (s *service) findClaim(ctx context.Context, id uuid.UUID) (*models.InsuranceClaim, error) {
	claim, err := s.repo.FindClaim(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load claim")
	}
	return claim, nil
}
