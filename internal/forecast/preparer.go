package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/stockcast/internal/contracts"
)

// Tensor is a dense row-major [samples, steps, features] model input
type Tensor struct {
	Shape [3]int
	Data  []float64
}

// At returns the feature vector of one timestep of one sample
func (t Tensor) At(sample, step int) []float64 {
	width := t.Shape[2]
	start := (sample*t.Shape[1] + step) * width
	return t.Data[start : start+width]
}

// Nested returns the tensor as [][][]float64 for JSON transport
func (t Tensor) Nested() [][][]float64 {
	out := make([][][]float64, t.Shape[0])
	for s := range out {
		out[s] = make([][]float64, t.Shape[1])
		for i := range out[s] {
			row := make([]float64, t.Shape[2])
			copy(row, t.At(s, i))
			out[s][i] = row
		}
	}
	return out
}

// Preparer turns a lookback window into the model's input tensor and maps
// the model's scaled target back to a price.
// ⭐ SSOT: 모델 입력 shape / 역변환 컬럼 인덱스는 여기서만
type Preparer struct {
	features  []string
	targetIdx int
	lookback  int
}

// NewPreparer fixes the window length, column order and target column
func NewPreparer(features []string, target string, lookback int) (*Preparer, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d", lookback)
	}

	idx := -1
	for i, f := range features {
		if f == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: target %s not in features", contracts.ErrMissingFeature, target)
	}

	return &Preparer{
		features:  append([]string(nil), features...),
		targetIdx: idx,
		lookback:  lookback,
	}, nil
}

// Features returns the model column order
func (p *Preparer) Features() []string {
	return append([]string(nil), p.features...)
}

// Target returns the target column name
func (p *Preparer) Target() string {
	return p.features[p.targetIdx]
}

// Lookback returns the fixed window length
func (p *Preparer) Lookback() int {
	return p.lookback
}

// CheckScaler rejects a scaler fitted over a different width or, when the
// scaler records its columns, a different column order
func (p *Preparer) CheckScaler(scaler *Scaler) error {
	if scaler.Width() != len(p.features) {
		return fmt.Errorf("scaler %s fitted on %d features, model uses %d", scaler.Symbol(), scaler.Width(), len(p.features))
	}

	// 컬럼 순서가 다르면 역변환 위치가 어긋남
	for i, name := range scaler.Features() {
		if name != p.features[i] {
			return fmt.Errorf("%w: scaler %s column %d is %s, model expects %s",
				contracts.ErrMissingFeature, scaler.Symbol(), i, name, p.features[i])
		}
	}
	return nil
}

// Prepare scales the window's feature matrix and reshapes it to [1, lookback, features]
func (p *Preparer) Prepare(window contracts.LookbackWindow, scaler *Scaler) (Tensor, error) {
	if scaler == nil {
		return Tensor{}, fmt.Errorf("%w %s", contracts.ErrNoScaler, window.Symbol)
	}
	if err := p.CheckScaler(scaler); err != nil {
		return Tensor{}, err
	}
	if window.Len() != p.lookback {
		return Tensor{}, &contracts.InsufficientDataError{Symbol: window.Symbol, Found: window.Len(), Required: p.lookback}
	}
	if err := window.Validate(); err != nil {
		return Tensor{}, err
	}

	rows, err := window.Matrix(p.features)
	if err != nil {
		return Tensor{}, err
	}

	width := len(p.features)
	raw := mat.NewDense(p.lookback, width, nil)
	for i, r := range rows {
		raw.SetRow(i, r)
	}

	scaled, err := scaler.Transform(raw)
	if err != nil {
		return Tensor{}, err
	}

	// mat.Dense 는 row-major: RawMatrix().Data 가 곧 [1, N, F] 배치
	data := make([]float64, p.lookback*width)
	copy(data, scaled.RawMatrix().Data)

	return Tensor{Shape: [3]int{1, p.lookback, width}, Data: data}, nil
}

// Invert maps one scaled target value back to a price. The scaler only
// inverts full feature vectors, so the value is placed at the target column
// of a zero vector and read back from the same column.
func (p *Preparer) Invert(scaled float64, scaler *Scaler) (float64, error) {
	if scaler == nil {
		return 0, contracts.ErrNoScaler
	}
	if err := p.CheckScaler(scaler); err != nil {
		return 0, err
	}

	placeholder := mat.NewDense(1, len(p.features), nil)
	placeholder.Set(0, p.targetIdx, scaled)

	inv, err := scaler.InverseTransform(placeholder)
	if err != nil {
		return 0, err
	}
	return inv.At(0, p.targetIdx), nil
}
