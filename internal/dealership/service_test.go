package dealership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

type fakeDealershipRepo struct {
	profile *models.Dealership
}

func (f *fakeDealershipRepo) Find(context.Context) (*models.Dealership, error) {
	if f.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.profile
	return &copied, nil
}

func (f *fakeDealershipRepo) Save(_ context.Context, dealership *models.Dealership) error {
	copied := *dealership
	f.profile = &copied
	return nil
}

func seededRepo() *fakeDealershipRepo {
	return &fakeDealershipRepo{profile: &models.Dealership{
		Name:           "Karume Motors",
		Email:          "info@karumemotors.co.ke",
		PrimaryColor:   "#1a73e8",
		SecondaryColor: "#f8f9fa",
		IsActive:       true,
	}}
}

func TestGetReturnsNotFoundBeforeSetup(t *testing.T) {
	svc, err := NewService(&fakeDealershipRepo{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateValidatesAndNormalizes(t *testing.T) {
	repo := seededRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	badEmail := "not-an-email"
	_, err = svc.Update(ctx, UpdateProfileRequest{Email: &badEmail})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	badColor := "blue"
	_, err = svc.Update(ctx, UpdateProfileRequest{PrimaryColor: &badColor})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	email := "Sales@KarumeMotors.co.ke"
	color := "#FF8800"
	updated, err := svc.Update(ctx, UpdateProfileRequest{Email: &email, PrimaryColor: &color})
	require.NoError(t, err)
	assert.Equal(t, "sales@karumemotors.co.ke", updated.Email)
	assert.Equal(t, "#ff8800", updated.PrimaryColor)
	assert.Equal(t, "Karume Motors", updated.Name) // untouched fields survive
}
