package controllers

import (
	"net/http"

	"github.com/dealerdeskhq/dealerdesk-backend/api/responses"
	auditsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/audit"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

func ListAuditLogs(svc auditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter auditsvc.LogFilter
		var err error
		if filter.UserID, err = queryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := queryString(r, "action"); raw != nil {
			action, err := enums.ParseAuditAction(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action filter"))
				return
			}
			filter.Action = &action
		}
		filter.EntityName = queryString(r, "entity")
		if filter.From, err = queryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = queryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListLogs(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ListLoginHistory(svc auditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter auditsvc.LoginHistoryFilter
		var err error
		if filter.UserID, err = queryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Success, err = queryBool(r, "success"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SuspiciousOnly = queryFlag(r, "suspicious_only")
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListLoginHistory(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
