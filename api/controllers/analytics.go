package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopfronthq/shopfront-backend/api/responses"
	analyticssvc "github.com/shopfronthq/shopfront-backend/internal/analytics"
	analyticstypes "github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

const defaultSalesWindow = 30 * 24 * time.Hour

// SalesSummary handles GET /api/v1/analytics/sales. The window defaults to
// the trailing 30 days.
func SalesSummary(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "analytics unavailable"))
			return
		}

		end := time.Now().UTC()
		start := end.Add(-defaultSalesWindow)

		if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start"))
				return
			}
			start = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end"))
				return
			}
			end = parsed
		}
		if !start.Before(end) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start must be before end"))
			return
		}

		summary, err := svc.SalesSummary(r.Context(), analyticstypes.SalesQueryRequest{Start: start, End: end})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
