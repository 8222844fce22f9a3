package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/stockcast/internal/s0_data/stats"
)

// Indicator periods
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	VolatilityWindow = 20
)

// RSI computes Wilder RSI over closes.
// Gains/losses are smoothed with an adjusted exponential mean (alpha = 1/period);
// the first period values are NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) <= period {
		return out
	}

	alpha := 1.0 / float64(period)
	decay := 1 - alpha
	var gainNum, lossNum, den float64

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		gainNum = gainNum*decay + gain
		lossNum = lossNum*decay + loss
		den = den*decay + 1

		if i < period {
			continue
		}

		avgGain := gainNum / den
		avgLoss := lossNum / den
		if avgGain+avgLoss == 0 {
			out[i] = 50.0 // 변동 없음: 중립
			continue
		}
		out[i] = 100 * avgGain / (avgGain + avgLoss)
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the first
// period values (alpha = 2/(period+1)); the first period-1 values are NaN.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if len(values) < period || period <= 0 {
		return out
	}

	seed := stat.Mean(values[:period], nil)
	out[period-1] = seed

	alpha := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// MACD returns the MACD line (EMA fast − EMA slow) and its signal line
func MACD(closes []float64, fast, slow, signal int) (line, signalLine []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line = nanSlice(len(closes))
	first := -1
	for i := range closes {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}
		line[i] = fastEMA[i] - slowEMA[i]
		if first < 0 {
			first = i
		}
	}

	signalLine = nanSlice(len(closes))
	if first >= 0 {
		tail := EMA(line[first:], signal)
		copy(signalLine[first:], tail)
	}
	return line, signalLine
}

// RollingStd computes the sample standard deviation of daily returns over a
// trailing window; returns[0] is undefined so the first window values are NaN.
func RollingStd(closes []float64, window int) []float64 {
	returns := stats.Returns(closes)
	out := nanSlice(len(closes))

	for i := window; i < len(returns); i++ {
		out[i] = stat.StdDev(returns[i-window+1:i+1], nil)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
