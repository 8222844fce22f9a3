package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/logger"
)

// DefaultForecastDays is used when ?days is omitted
const DefaultForecastDays = 5

// ForecastService produces structured forecast results
type ForecastService interface {
	Recommend(ctx context.Context, ticker string, days int) *contracts.RecommendationResult
	PredictNext(ctx context.Context, ticker string) *contracts.PredictionResult
}

// ForecastHandler handles forecast API endpoints
// ⭐ SSOT: Forecast API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	service ForecastService
	logger  *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastService, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		service: service,
		logger:  log,
	}
}

// Predict returns the next trading day's predicted price
// GET /api/v1/predict/{ticker}
func (h *ForecastHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	res := h.service.PredictNext(r.Context(), ticker)
	respondJSON(w, resultStatus(res.Status), res)
}

// Forecast returns a multi-day forecast and the cheapest day to buy
// GET /api/v1/forecast/{ticker}?days=N
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	days := DefaultForecastDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	res := h.service.Recommend(r.Context(), ticker, days)
	respondJSON(w, resultStatus(res.Status), res)
}

// 실패 결과도 동일한 레코드 형식으로 반환
func resultStatus(status string) int {
	if status == contracts.StatusSuccess {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}
