package controllers

import (
	"net/http"

	"github.com/dealerdeskhq/dealerdesk-backend/api/responses"
	"github.com/dealerdeskhq/dealerdesk-backend/api/validators"
	auctionsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/auctions"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

func auctionFilter(r *http.Request) (auctionsvc.ListFilter, error) {
	var filter auctionsvc.ListFilter
	if raw := queryString(r, "status"); raw != nil {
		status, err := enums.ParseAuctionStatus(*raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := queryString(r, "type"); raw != nil {
		auctionType, err := enums.ParseAuctionType(*raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		filter.Type = &auctionType
	}
	var err error
	if filter.VehicleID, err = queryUUID(r, "vehicle_id"); err != nil {
		return filter, err
	}
	if search := queryString(r, "search"); search != nil {
		filter.Search = *search
	}
	return filter, nil
}

func bidMeta(r *http.Request) auctionsvc.BidMeta {
	return auctionsvc.BidMeta{IPAddress: requestIP(r), UserAgent: r.UserAgent()}
}

func CreateAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		createdBy, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.CreateAuctionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auction, err := svc.Create(r.Context(), payload, createdBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, auction)
	}
}

func GetAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auction, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

func ListAuctions(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := auctionFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func UpdateAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.UpdateAuctionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auction, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

// auctionTransition handles schedule/activate/cancel, which share a shape.
func auctionTransition(move func(svc auctionsvc.Service, r *http.Request) (*auctionsvc.AuctionDTO, error), svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auction, err := move(svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

func ScheduleAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return auctionTransition(func(svc auctionsvc.Service, r *http.Request) (*auctionsvc.AuctionDTO, error) {
		actor, err := actorID(r)
		if err != nil {
			return nil, err
		}
		id, err := pathUUID(r, "auctionID")
		if err != nil {
			return nil, err
		}
		return svc.Schedule(r.Context(), id, actor)
	}, svc, logg)
}

func ActivateAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return auctionTransition(func(svc auctionsvc.Service, r *http.Request) (*auctionsvc.AuctionDTO, error) {
		actor, err := actorID(r)
		if err != nil {
			return nil, err
		}
		id, err := pathUUID(r, "auctionID")
		if err != nil {
			return nil, err
		}
		return svc.Activate(r.Context(), id, actor)
	}, svc, logg)
}

func CancelAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return auctionTransition(func(svc auctionsvc.Service, r *http.Request) (*auctionsvc.AuctionDTO, error) {
		actor, err := actorID(r)
		if err != nil {
			return nil, err
		}
		id, err := pathUUID(r, "auctionID")
		if err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), id, actor)
	}, svc, logg)
}

func RegisterAuctionParticipant(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participant, err := svc.Register(r.Context(), auctionID, userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, participant)
	}
}

func ApproveAuctionParticipant(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		approvedBy, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participant, err := svc.ApproveParticipant(r.Context(), auctionID, userID, approvedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, participant)
	}
}

func ListAuctionParticipants(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participants, err := svc.ListParticipants(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, participants)
	}
}

func PlaceBid(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.PlaceBidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bid, err := svc.PlaceBid(r.Context(), auctionID, bidderID, payload, bidMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bid)
	}
}

func BuyNow(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auction, err := svc.BuyNow(r.Context(), auctionID, bidderID, bidMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

func ListBids(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bids, err := svc.ListBids(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids)
	}
}

func FinalizeAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Finalize(r.Context(), auctionID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WatchAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.WatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		watch, err := svc.Watch(r.Context(), auctionID, userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, watch)
	}
}

func UnwatchAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unwatch(r.Context(), auctionID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unwatched"})
	}
}

func MyWatchlist(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		watchlist, err := svc.Watchlist(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, watchlist)
	}
}

func GetAuctionResult(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Result(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UpdateAuctionResult(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := pathUUID(r, "auctionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload auctionsvc.UpdateResultRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateResult(r.Context(), auctionID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
