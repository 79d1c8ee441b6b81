package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/api/responses"
	"github.com/zaikoworks/zaiko-backend/api/validators"
	ordersvc "github.com/zaikoworks/zaiko-backend/internal/orders"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
)

type createOrderRequest struct {
	StockID     string `json:"stock_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Destination string `json:"destination" validate:"required,max=255"`
}

func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockID, err := uuid.Parse(payload.StockID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), userID, ordersvc.CreateOrderInput{
			StockID:     stockID,
			Quantity:    payload.Quantity,
			Destination: payload.Destination,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

func transitionOrder(
	logg *logger.Logger,
	apply func(r *http.Request, orderID uuid.UUID) (*ordersvc.OrderDTO, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := apply(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func ConfirmOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder(logg, func(r *http.Request, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
		return svc.Confirm(r.Context(), orderID)
	})
}

func CompleteOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder(logg, func(r *http.Request, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
		return svc.Complete(r.Context(), orderID)
	})
}

func RevertOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder(logg, func(r *http.Request, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
		return svc.Revert(r.Context(), orderID)
	})
}

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := ordersvc.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}
		stockID, err := validators.ParseQueryUUID(r, "stock_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.StockID = stockID

		result, err := svc.List(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// OrderBoard returns open orders grouped by stage for the warehouse view.
func OrderBoard(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := svc.Board(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}
