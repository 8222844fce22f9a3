package quality

import (
	"math"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data/stats"
)

// Score bounds
const (
	MinScore = 1.0
	MaxScore = 5.0
)

// Config holds scoring weights and bands
type Config struct {
	Base float64 `yaml:"base"` // 3.0

	VolumePercentile float64 `yaml:"volume_percentile"` // 0.75 (배치 기준)
	VolumeBonus      float64 `yaml:"volume_bonus"`      // +0.5

	VolatilityLow   float64 `yaml:"volatility_low"`   // 0.01 (exclusive)
	VolatilityHigh  float64 `yaml:"volatility_high"`  // 0.05 (exclusive)
	VolatilityBonus float64 `yaml:"volatility_bonus"` // +0.5

	RSILow   float64 `yaml:"rsi_low"`   // 20 (exclusive)
	RSIHigh  float64 `yaml:"rsi_high"`  // 80 (exclusive)
	RSIBonus float64 `yaml:"rsi_bonus"` // +0.3

	RecentRows      int     `yaml:"recent_rows"`      // 마지막 5행
	RecentBonus     float64 `yaml:"recent_bonus"`     // +0.2
	NearRecentRows  int     `yaml:"near_recent_rows"` // 마지막 15행
	NearRecentBonus float64 `yaml:"near_recent_bonus"`
}

// DefaultConfig returns the production scoring weights
func DefaultConfig() Config {
	return Config{
		Base:             3.0,
		VolumePercentile: 0.75,
		VolumeBonus:      0.5,
		VolatilityLow:    0.01,
		VolatilityHigh:   0.05,
		VolatilityBonus:  0.5,
		RSILow:           20,
		RSIHigh:          80,
		RSIBonus:         0.3,
		RecentRows:       5,
		RecentBonus:      0.2,
		NearRecentRows:   15,
		NearRecentBonus:  0.1,
	}
}

// Scorer assigns a bounded confidence score to each row of a batch
// ⭐ SSOT: 행 단위 품질 점수 규칙은 여기서만
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given weights
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score returns one score per row in [MinScore, MaxScore].
// Volume threshold and recency are relative to this batch.
func (s *Scorer) Score(rows []contracts.FeatureRow) []float64 {
	scores := make([]float64, len(rows))
	if len(rows) == 0 {
		return scores
	}

	volumes := make([]float64, len(rows))
	for i, r := range rows {
		volumes[i] = r.Volume
	}
	volumeThreshold := stats.Percentile(volumes, s.config.VolumePercentile)

	for i, r := range rows {
		score := s.config.Base

		if r.Volume >= volumeThreshold {
			score += s.config.VolumeBonus
		}
		if r.Volatility20D > s.config.VolatilityLow && r.Volatility20D < s.config.VolatilityHigh {
			score += s.config.VolatilityBonus
		}
		if r.RSI14 > s.config.RSILow && r.RSI14 < s.config.RSIHigh {
			score += s.config.RSIBonus
		}

		// 마지막 행 = 1
		fromEnd := len(rows) - i
		switch {
		case fromEnd <= s.config.RecentRows:
			score += s.config.RecentBonus
		case fromEnd <= s.config.NearRecentRows:
			score += s.config.NearRecentBonus
		}

		scores[i] = clamp(score)
	}
	return scores
}

// Apply scores the batch and writes each score into its row
func (s *Scorer) Apply(rows []contracts.FeatureRow) []contracts.FeatureRow {
	scores := s.Score(rows)
	out := make([]contracts.FeatureRow, len(rows))
	for i, r := range rows {
		r.QualityScore = scores[i]
		out[i] = r
	}
	return out
}

// Mean returns the average quality score of rows
func Mean(rows []contracts.FeatureRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += r.QualityScore
	}
	return sum / float64(len(rows))
}

func clamp(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}
