package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/httputil"
)

// Model is a pre-trained sequence model: one scaled target value per sample
type Model interface {
	Predict(ctx context.Context, t Tensor) ([]float64, error)
}

// Model kinds
const (
	KindServing = "serving" // TensorFlow Serving REST
	KindLinear  = "linear"  // in-file weights (offline/dev)
)

// Descriptor is the model artifact file
type Descriptor struct {
	Kind     string   `yaml:"kind"`
	Name     string   `yaml:"name"`
	Lookback int      `yaml:"lookback"`
	Features []string `yaml:"features"`

	Serving ServingConfig `yaml:"serving"`
	Linear  LinearConfig  `yaml:"linear"`
}

// ServingConfig locates a TF-Serving endpoint
type ServingConfig struct {
	URL       string `yaml:"url"`
	ModelName string `yaml:"model_name"`
	Version   string `yaml:"version"`
}

// LinearConfig weights the last timestep of the scaled window
type LinearConfig struct {
	Weights []float64 `yaml:"weights"`
	Bias    float64   `yaml:"bias"`
}

// LoadDescriptor reads and validates a model descriptor
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: model file %s", contracts.ErrArtifactMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}

	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}
	return &d, nil
}

func (d *Descriptor) validate() error {
	if d.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive")
	}
	if len(d.Features) == 0 {
		return fmt.Errorf("features must not be empty")
	}

	switch d.Kind {
	case KindServing:
		if d.Serving.URL == "" {
			return fmt.Errorf("serving.url is required")
		}
		if d.Serving.ModelName == "" {
			d.Serving.ModelName = d.Name
		}
		if d.Serving.ModelName == "" {
			return fmt.Errorf("serving.model_name or name is required")
		}
	case KindLinear:
		if len(d.Linear.Weights) != len(d.Features) {
			return fmt.Errorf("linear.weights has %d entries for %d features", len(d.Linear.Weights), len(d.Features))
		}
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	return nil
}

// CheckCompatible verifies the model was trained on the configured window shape
func (d *Descriptor) CheckCompatible(lookback int, features []string) error {
	if d.Lookback != lookback {
		return fmt.Errorf("model lookback %d != configured %d", d.Lookback, lookback)
	}
	if len(d.Features) != len(features) {
		return fmt.Errorf("model has %d features, configured %d", len(d.Features), len(features))
	}
	for i := range features {
		if d.Features[i] != features[i] {
			return fmt.Errorf("feature %d: model %q != configured %q", i, d.Features[i], features[i])
		}
	}
	return nil
}

// NewModel constructs the model a descriptor points at
func NewModel(d *Descriptor, client *httputil.Client) (Model, error) {
	switch d.Kind {
	case KindServing:
		if client == nil {
			return nil, fmt.Errorf("serving model requires an http client")
		}
		return &ServingModel{client: client, endpoint: d.Serving.endpoint()}, nil
	case KindLinear:
		return &LinearModel{weights: append([]float64(nil), d.Linear.Weights...), bias: d.Linear.Bias}, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", d.Kind)
	}
}

func (s ServingConfig) endpoint() string {
	base := strings.TrimRight(s.URL, "/")
	if s.Version != "" {
		return fmt.Sprintf("%s/v1/models/%s/versions/%s:predict", base, s.ModelName, s.Version)
	}
	return fmt.Sprintf("%s/v1/models/%s:predict", base, s.ModelName)
}

// ServingModel calls a TensorFlow Serving predict endpoint
type ServingModel struct {
	client   *httputil.Client
	endpoint string
}

type servingRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type servingResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// Predict sends the tensor as one instance and returns one value per instance
func (m *ServingModel) Predict(ctx context.Context, t Tensor) ([]float64, error) {
	var resp servingResponse
	if err := m.client.PostJSONDecode(ctx, m.endpoint, servingRequest{Instances: t.Nested()}, &resp); err != nil {
		return nil, fmt.Errorf("model serving request: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model serving error: %s", resp.Error)
	}

	out := make([]float64, 0, len(resp.Predictions))
	for i, raw := range resp.Predictions {
		v, err := firstScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		out = append(out, v)
	}
	if len(out) != t.Shape[0] {
		return nil, fmt.Errorf("model returned %d predictions for %d samples", len(out), t.Shape[0])
	}
	return out, nil
}

// firstScalar accepts either x or [x] (a Dense(1) head)
func firstScalar(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0, fmt.Errorf("unexpected prediction %s", string(raw))
	}
	if len(arr) == 0 {
		return 0, fmt.Errorf("empty prediction")
	}
	return arr[0], nil
}

// LinearModel predicts bias + w·x over the last timestep of each sample
type LinearModel struct {
	weights []float64
	bias    float64
}

// Predict implements Model
func (m *LinearModel) Predict(_ context.Context, t Tensor) ([]float64, error) {
	samples, steps, width := t.Shape[0], t.Shape[1], t.Shape[2]
	if width != len(m.weights) {
		return nil, fmt.Errorf("linear model expects %d features, got %d", len(m.weights), width)
	}

	out := make([]float64, samples)
	for s := 0; s < samples; s++ {
		last := t.At(s, steps-1)
		v := m.bias
		for j, w := range m.weights {
			v += w * last[j]
		}
		out[s] = v
	}
	return out, nil
}
