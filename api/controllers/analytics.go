package controllers

import (
	"net/http"

	"github.com/jdelacruz/tradepost-backend/api/responses"
	"github.com/jdelacruz/tradepost-backend/api/validators"
	"github.com/jdelacruz/tradepost-backend/internal/analytics"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

// SellerDashboard aggregates order and revenue figures for the seller's
// window. Omitting from/to yields the trailing thirty days.
func SellerDashboard(svc analytics.Dashboard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		sellerID, err := actorSellerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dashboard, err := svc.SellerDashboard(r.Context(), sellerID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboard)
	}
}
