package controllers

import (
	"net/http"

	"github.com/aryankapoor/zapkart-backend/api/responses"
	"github.com/aryankapoor/zapkart-backend/api/validators"
	"github.com/aryankapoor/zapkart-backend/internal/analytics"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

// AnalyticsSummary returns headline revenue numbers.
func AnalyticsSummary(svc *analytics.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Summary())
	}
}

// AnalyticsTopProducts ranks products by units sold.
func AnalyticsTopProducts(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": svc.TopProducts(limit)})
	}
}

// AnalyticsRevenueByDay returns the daily revenue series.
func AnalyticsRevenueByDay(svc *analytics.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"series": svc.RevenueByDay()})
	}
}
