package controllers

import (
	"net/http"

	"github.com/dealerdeskhq/dealerdesk-backend/api/responses"
	"github.com/dealerdeskhq/dealerdesk-backend/api/validators"
	dealershipsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/dealership"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

func GetDealershipProfile(svc dealershipsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UpdateDealershipProfile(svc dealershipsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload dealershipsvc.UpdateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Update(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
