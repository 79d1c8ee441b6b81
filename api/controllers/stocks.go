package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/api/responses"
	"github.com/zaikoworks/zaiko-backend/api/validators"
	stocksvc "github.com/zaikoworks/zaiko-backend/internal/stocks"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
)

type recordInboundRequest struct {
	GroupID     string  `json:"group_id" validate:"required,uuid"`
	ProductName string  `json:"product_name" validate:"required,max=255"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Supplier    *string `json:"supplier,omitempty" validate:"omitempty,max=255"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// RecordInbound registers received goods, creating the stock row on first
// receipt.
func RecordInbound(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordInboundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := uuid.Parse(payload.GroupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.RecordInbound(r.Context(), userID, stocksvc.RecordInboundInput{
			GroupID:     groupID,
			ProductName: payload.ProductName,
			Quantity:    payload.Quantity,
			Supplier:    payload.Supplier,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, stock)
	}
}

type bulkAdjustRequest struct {
	Rows []bulkAdjustRowRequest `json:"rows" validate:"required,min=1,max=500,dive"`
}

type bulkAdjustRowRequest struct {
	StockID  string `json:"stock_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// BulkAdjust reconciles on-hand counts against a submitted list, such as a
// stocktake sheet. Rows succeed or fail independently.
func BulkAdjust(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bulkAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows := make([]stocksvc.BulkAdjustRow, 0, len(payload.Rows))
		for _, row := range payload.Rows {
			stockID, err := uuid.Parse(row.StockID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			rows = append(rows, stocksvc.BulkAdjustRow{
				StockID:  stockID,
				Quantity: row.Quantity,
			})
		}

		result, err := svc.BulkAdjust(r.Context(), userID, rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type editStockRequest struct {
	GroupID     *string `json:"group_id,omitempty" validate:"omitempty,uuid"`
	ProductName *string `json:"product_name,omitempty" validate:"omitempty,max=255"`
	Supplier    *string `json:"supplier,omitempty" validate:"omitempty,max=255"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func EditStock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockID, err := pathUUID(r, "stockID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload editStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stocksvc.EditStockInput{
			ProductName: payload.ProductName,
			Supplier:    payload.Supplier,
			Quantity:    payload.Quantity,
			Note:        payload.Note,
		}
		if payload.GroupID != nil {
			groupID, err := uuid.Parse(*payload.GroupID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.GroupID = &groupID
		}

		stock, err := svc.EditStock(r.Context(), userID, stockID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stock)
	}
}

func DeleteStock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockID, err := pathUUID(r, "stockID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDeleteStock(r.Context(), stockID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ListStocks(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := validators.ParseQueryUUID(r, "group_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowOnly, err := validators.ParseQueryBool(r, "low_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := stocksvc.ListFilters{
			GroupID: groupID,
			Query:   strings.TrimSpace(r.URL.Query().Get("q")),
			LowOnly: lowOnly,
		}
		if supplier := strings.TrimSpace(r.URL.Query().Get("supplier")); supplier != "" {
			filters.Supplier = &supplier
		}

		result, err := svc.List(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func GetStockDetail(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockID, err := pathUUID(r, "stockID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), stockID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

func ListSuppliers(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suppliers, err := svc.Suppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"suppliers": suppliers})
	}
}

func DashboardSummary(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
