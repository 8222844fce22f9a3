package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []float64{10, 1, 4, 3, 2} // sorted: 1 2 3 4 10

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"min", 0, 1},
		{"max", 1, 10},
		{"median", 0.5, 3},
		{"p5 interpolates", 0.05, 1.2},
		{"p75 exact rank", 0.75, 4},
		{"p90 interpolates", 0.9, 7.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(values, tt.p), 1e-12)
		})
	}
}

func TestPercentile_IgnoresNaNAndEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 0.5)))
	assert.InDelta(t, 2.0, Percentile([]float64{math.NaN(), 1, 3}, 0.5), 1e-12)
}

func TestReturns(t *testing.T) {
	r := Returns([]float64{100, 110, 99})

	assert.True(t, math.IsNaN(r[0]))
	assert.InDelta(t, 0.10, r[1], 1e-12)
	assert.InDelta(t, -0.10, r[2], 1e-12)
}
