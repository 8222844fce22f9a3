package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestDataQualityReport_Aggregates(t *testing.T) {
	report := DataQualityReport{
		Lookback: 60,
		Symbols: []SymbolStats{
			{Symbol: "RELIANCE.NS", Count: 60, AvgQualityScore: 4.0},
			{Symbol: "TCS.NS", Count: 40, AvgQualityScore: 3.0},
		},
	}

	if got := report.TotalRecords(); got != 100 {
		t.Errorf("TotalRecords() = %d, want 100", got)
	}

	expected := (60*4.0 + 40*3.0) / 100
	if got := report.AverageQuality(); math.Abs(got-expected) > 1e-12 {
		t.Errorf("AverageQuality() = %v, want %v", got, expected)
	}

	ready := report.ReadySymbols()
	if len(ready) != 1 || ready[0] != "RELIANCE.NS" {
		t.Errorf("ReadySymbols() = %v, want [RELIANCE.NS]", ready)
	}
}

func TestDataQualityReport_Empty(t *testing.T) {
	report := DataQualityReport{Lookback: 60}
	if report.AverageQuality() != 0 {
		t.Errorf("AverageQuality() on empty report = %v, want 0", report.AverageQuality())
	}
}

func TestFreshnessDays(t *testing.T) {
	last := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 18, 13, 45, 0, 0, time.UTC)
	if got := FreshnessDays(last, now); got != 3 {
		t.Errorf("FreshnessDays() = %d, want 3", got)
	}
}

func TestRecommendationResult_ErrorJSON(t *testing.T) {
	res := ErrorRecommendation(ErrNoScaler)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded["status"] != StatusError {
		t.Errorf("status = %v, want %s", decoded["status"], StatusError)
	}
	if decoded["message"] != ErrNoScaler.Error() {
		t.Errorf("message = %v, want %s", decoded["message"], ErrNoScaler.Error())
	}
	if _, ok := decoded["forecast"]; ok {
		t.Error("error result should not carry a forecast list")
	}
}
