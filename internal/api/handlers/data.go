package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/logger"
)

// BatchRunner runs the collection batches
type BatchRunner interface {
	Backfill(ctx context.Context) (contracts.BatchSummary, error)
	CollectDaily(ctx context.Context) (contracts.BatchSummary, error)
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	store     contracts.FeatureStore
	collector BatchRunner
	lookback  int
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(store contracts.FeatureStore, col BatchRunner, lookback int, log *logger.Logger) *DataHandler {
	return &DataHandler{
		store:     store,
		collector: col,
		lookback:  lookback,
		logger:    log,
	}
}

// GetQuality returns per-symbol stored history and quality
// GET /api/v1/data/quality
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.SymbolStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get symbol stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data quality")
		return
	}

	report := contracts.DataQualityReport{
		GeneratedAt: time.Now(),
		Lookback:    h.lookback,
		Symbols:     stats,
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report":          report,
		"total_records":   report.TotalRecords(),
		"average_quality": report.AverageQuality(),
		"ready_symbols":   report.ReadySymbols(),
	})
}

// CollectRequest represents a data collection request
type CollectRequest struct {
	Type string `json:"type"` // "daily" (default), "backfill"
}

// CollectResponse represents a data collection response
type CollectResponse struct {
	Status  string                 `json:"status"`
	Type    string                 `json:"type"`
	Summary contracts.BatchSummary `json:"summary"`
}

// Collect runs a collection batch synchronously
// POST /api/v1/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = "daily"
	}

	var run func(context.Context) (contracts.BatchSummary, error)
	switch req.Type {
	case "daily":
		run = h.collector.CollectDaily
	case "backfill":
		run = h.collector.Backfill
	default:
		respondError(w, http.StatusBadRequest, "Invalid collection type (valid: daily, backfill)")
		return
	}

	h.logger.WithField("type", req.Type).Info("Data collection triggered")

	summary, err := run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Data collection interrupted")
		respondError(w, http.StatusServiceUnavailable, "Data collection interrupted")
		return
	}

	respondJSON(w, http.StatusOK, CollectResponse{
		Status:  contracts.StatusSuccess,
		Type:    req.Type,
		Summary: summary,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
