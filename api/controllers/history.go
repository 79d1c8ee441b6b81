package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/zaikoworks/zaiko-backend/api/responses"
	"github.com/zaikoworks/zaiko-backend/api/validators"
	historysvc "github.com/zaikoworks/zaiko-backend/internal/history"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
)

// QueryHistory returns the filtered transaction log, newest first.
func QueryHistory(svc historysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := historysvc.QueryFilters{}

		filters.StockID, err = validators.ParseQueryUUID(r, "stock_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.GroupID, err = validators.ParseQueryUUID(r, "group_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.UserID, err = validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			parsed, err := enums.ParseTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			filters.Type = &parsed
		}

		filters.Product = strings.TrimSpace(r.URL.Query().Get("q"))
		filters.Note = strings.TrimSpace(r.URL.Query().Get("note"))

		filters.From, err = parseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.To, err = parseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be RFC3339 time").
			WithDetails(map[string]any{"field": key})
	}
	return &t, nil
}
