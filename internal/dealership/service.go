package dealership

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

// Service exposes the dealership company profile.
type Service interface {
	Get(ctx context.Context) (*ProfileDTO, error)
	Update(ctx context.Context, req UpdateProfileRequest) (*ProfileDTO, error)
}

type repository interface {
	Find(ctx context.Context) (*models.Dealership, error)
	Save(ctx context.Context, dealership *models.Dealership) error
}

type service struct {
	repo repository
}

// NewService wires the dealership profile service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dealership repository is required")
	}
	return &service{repo: repo}, nil
}

// ProfileDTO is the outward company profile.
type ProfileDTO struct {
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               *string    `json:"phone,omitempty"`
	Address             *string    `json:"address,omitempty"`
	City                *string    `json:"city,omitempty"`
	LogoPath            *string    `json:"logo_path,omitempty"`
	PrimaryColor        string     `json:"primary_color"`
	SecondaryColor      string     `json:"secondary_color"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	IsActive            bool       `json:"is_active"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// UpdateProfileRequest carries partial profile edits.
type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	LogoPath       *string `json:"logo_path"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (s *service) Get(ctx context.Context) (*ProfileDTO, error) {
	profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return fromModel(profile), nil
}

func (s *service) Update(ctx context.Context, req UpdateProfileRequest) (*ProfileDTO, error) {
	profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
		}
		profile.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}
	if req.City != nil {
		profile.City = req.City
	}
	if req.LogoPath != nil {
		profile.LogoPath = req.LogoPath
	}
	if req.PrimaryColor != nil {
		if !hexColorPattern.MatchString(*req.PrimaryColor) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "primary color must be a #rrggbb value")
		}
		profile.PrimaryColor = strings.ToLower(*req.PrimaryColor)
	}
	if req.SecondaryColor != nil {
		if !hexColorPattern.MatchString(*req.SecondaryColor) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "secondary color must be a #rrggbb value")
		}
		profile.SecondaryColor = strings.ToLower(*req.SecondaryColor)
	}
	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save dealership profile")
	}
	return fromModel(profile), nil
}

func (s *service) load(ctx context.Context) (*models.Dealership, error) {
	profile, err := s.repo.Find(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealership profile not set up")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dealership profile")
	}
	return profile, nil
}

func fromModel(d *models.Dealership) *ProfileDTO {
	return &ProfileDTO{
		Name:                d.Name,
		Email:               d.Email,
		Phone:               d.Phone,
		Address:             d.Address,
		City:                d.City,
		LogoPath:            d.LogoPath,
		PrimaryColor:        d.PrimaryColor,
		SecondaryColor:      d.SecondaryColor,
		SubscriptionEndDate: d.SubscriptionEndDate,
		IsActive:            d.IsActive,
		UpdatedAt:           d.UpdatedAt,
	}
}
