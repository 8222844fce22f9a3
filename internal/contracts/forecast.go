package contracts

import "time"

// Result status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ForecastPoint is one predicted trading day
type ForecastPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// RecommendationResult is the process-boundary record for a multi-day forecast
// ⭐ SSOT: 예측 결과 직렬화 포맷은 여기서만
type RecommendationResult struct {
	Status             string          `json:"status"`
	Ticker             string          `json:"ticker,omitempty"`
	Recommendation     string          `json:"recommendation,omitempty"`
	RecommendationDate string          `json:"recommendation_date,omitempty"`
	RecommendedPrice   float64         `json:"recommended_price,omitempty"`
	ForecastWindowDays int             `json:"forecast_window_days,omitempty"`
	Forecast           []ForecastPoint `json:"forecast,omitempty"`
	Message            string          `json:"message,omitempty"`
}

// PricePoint is a (date, price) pair used in result payloads
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// DataUsed describes the lookback window a prediction was made from
type DataUsed struct {
	StartPoint PricePoint `json:"start_point"`
	EndPoint   PricePoint `json:"end_point"`
}

// PredictionResult is the process-boundary record for a next-day prediction
type PredictionResult struct {
	Status         string    `json:"status"`
	Ticker         string    `json:"ticker,omitempty"`
	PredictionDate string    `json:"prediction_date,omitempty"`
	PredictedPrice float64   `json:"predicted_price,omitempty"`
	DataUsed       *DataUsed `json:"data_used,omitempty"`
	Message        string    `json:"message,omitempty"`
}

// ErrorRecommendation builds the failure form of a recommendation
func ErrorRecommendation(err error) *RecommendationResult {
	return &RecommendationResult{Status: StatusError, Message: err.Error()}
}

// ErrorPrediction builds the failure form of a prediction
func ErrorPrediction(err error) *PredictionResult {
	return &PredictionResult{Status: StatusError, Message: err.Error()}
}

// BatchSummary accumulates per-symbol outcomes of a collection run
type BatchSummary struct {
	Stage        Stage             `json:"stage"`
	Total        int               `json:"total"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	Skipped      int               `json:"skipped"`
	RecordsSaved int               `json:"records_saved"`
	Failures     map[string]string `json:"failures,omitempty"`
	Degraded     []string          `json:"degraded,omitempty"` // 갭 미보정 상태로 저장된 심볼
	StartedAt    time.Time         `json:"started_at"`
	Duration     time.Duration     `json:"duration"`
}

// NewBatchSummary starts an empty summary for a stage
func NewBatchSummary(stage Stage, total int) BatchSummary {
	return BatchSummary{
		Stage:     stage,
		Total:     total,
		Failures:  make(map[string]string),
		StartedAt: time.Now(),
	}
}

// RecordSuccess counts a symbol that completed and how many new rows it stored
func (s *BatchSummary) RecordSuccess(saved int) {
	s.Succeeded++
	s.RecordsSaved += saved
}

// RecordDegraded marks a stored symbol whose gaps were left unfilled
func (s *BatchSummary) RecordDegraded(symbol string) {
	s.Degraded = append(s.Degraded, symbol)
}

// RecordSkip counts a symbol that had nothing usable
func (s *BatchSummary) RecordSkip(symbol string, reason error) {
	s.Skipped++
	s.Failures[symbol] = reason.Error()
}

// RecordFailure counts a symbol that errored
func (s *BatchSummary) RecordFailure(symbol string, err error) {
	s.Failed++
	s.Failures[symbol] = err.Error()
}
