package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/stockcast/internal/contracts"
)

// ScalerParams are the fitted parameters of a min-max scaler as exported at training time
type ScalerParams struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
	Features     []string   `json:"features,omitempty"`
}

// Scaler is a per-symbol min-max transform fit jointly over all feature columns.
// Immutable after construction.
type Scaler struct {
	symbol   string
	features []string
	scale    []float64
	offset   []float64
}

// NewScaler builds a scaler from fitted parameters.
// A constant column (max == min) uses a unit range.
// The symbol is stored upper-cased to match normalized tickers.
func NewScaler(symbol string, p ScalerParams) (*Scaler, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	n := len(p.DataMin)
	if n == 0 || len(p.DataMax) != n {
		return nil, fmt.Errorf("scaler %s: data_min/data_max width mismatch (%d vs %d)", symbol, len(p.DataMin), len(p.DataMax))
	}
	if len(p.Features) > 0 && len(p.Features) != n {
		return nil, fmt.Errorf("scaler %s: %d feature names for width %d", symbol, len(p.Features), n)
	}

	lo, hi := p.FeatureRange[0], p.FeatureRange[1]
	if lo == 0 && hi == 0 {
		hi = 1
	}
	if hi <= lo {
		return nil, fmt.Errorf("scaler %s: invalid feature_range [%v, %v]", symbol, lo, hi)
	}

	s := &Scaler{
		symbol:   symbol,
		features: append([]string(nil), p.Features...),
		scale:    make([]float64, n),
		offset:   make([]float64, n),
	}
	for j := 0; j < n; j++ {
		dataRange := p.DataMax[j] - p.DataMin[j]
		if dataRange == 0 {
			dataRange = 1
		}
		s.scale[j] = (hi - lo) / dataRange
		s.offset[j] = lo - p.DataMin[j]*s.scale[j]
	}
	return s, nil
}

// Symbol returns the ticker this scaler was fit on
func (s *Scaler) Symbol() string {
	return s.symbol
}

// Width returns the feature count the scaler was fit over
func (s *Scaler) Width() int {
	return len(s.scale)
}

// Features returns the fitted column order when recorded
func (s *Scaler) Features() []string {
	return append([]string(nil), s.features...)
}

// Transform scales every column of m (rows × Width) into a new matrix
func (s *Scaler) Transform(m mat.Matrix) (*mat.Dense, error) {
	if err := s.checkWidth(m); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.scale[j] + s.offset[j]
	}, m)
	return &out, nil
}

// InverseTransform maps scaled values back to feature units
func (s *Scaler) InverseTransform(m mat.Matrix) (*mat.Dense, error) {
	if err := s.checkWidth(m); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.offset[j]) / s.scale[j]
	}, m)
	return &out, nil
}

func (s *Scaler) checkWidth(m mat.Matrix) error {
	if _, c := m.Dims(); c != len(s.scale) {
		return fmt.Errorf("scaler %s: got %d columns, fitted on %d", s.symbol, c, len(s.scale))
	}
	return nil
}

// ScalerSet maps symbol → fitted scaler
type ScalerSet struct {
	scalers map[string]*Scaler
}

// NewScalerSet builds a set from already constructed scalers
func NewScalerSet(scalers ...*Scaler) *ScalerSet {
	set := &ScalerSet{scalers: make(map[string]*Scaler, len(scalers))}
	for _, s := range scalers {
		set.scalers[s.symbol] = s
	}
	return set
}

// Get returns the scaler for symbol or ErrNoScaler
func (s *ScalerSet) Get(symbol string) (*Scaler, error) {
	sc, ok := s.scalers[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, fmt.Errorf("%w %s", contracts.ErrNoScaler, symbol)
	}
	return sc, nil
}

// CheckCompatible verifies every scaler against the preparer's columns
func (s *ScalerSet) CheckCompatible(p *Preparer) error {
	for _, sc := range s.scalers {
		if err := p.CheckScaler(sc); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of symbols with a scaler
func (s *ScalerSet) Len() int {
	return len(s.scalers)
}

// LoadScalers reads a {symbol: ScalerParams} JSON file
func LoadScalers(path string) (*ScalerSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: scalers file %s", contracts.ErrArtifactMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read scalers file: %w", err)
	}

	var raw map[string]ScalerParams
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scalers file %s: %w", path, err)
	}

	set := &ScalerSet{scalers: make(map[string]*Scaler, len(raw))}
	for symbol, params := range raw {
		sc, err := NewScaler(symbol, params)
		if err != nil {
			return nil, err
		}
		if _, dup := set.scalers[sc.symbol]; dup {
			return nil, fmt.Errorf("scalers file %s: duplicate symbol %s", path, sc.symbol)
		}
		set.scalers[sc.symbol] = sc
	}
	return set, nil
}
