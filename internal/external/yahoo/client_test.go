package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockcast/pkg/httputil"
	"github.com/wonny/stockcast/pkg/logger"
)

// 2024-01-15 / 16 / 17 09:15 IST
const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "TCS.NS", "currency": "INR", "gmtoffset": 19800},
      "timestamp": [1705290300, 1705376700, 1705463100],
      "indicators": {
        "quote": [{
          "open":   [3800.0, 3850.0, null],
          "high":   [3900.0, 3890.0, 3870.0],
          "low":    [3790.0, 3820.0, 3800.0],
          "close":  [3880.0, 3860.0, 3810.0],
          "volume": [2000000, 1800000, 1500000]
        }],
        "adjclose": [{"adjclose": [1940.0, 3860.0, 3810.0]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(serverURL string) *Client {
	return NewClient(httputil.New(5*time.Second, logger.Nop()).DisableRetry(), serverURL, logger.Nop())
}

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/TCS.NS", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1705276800", r.URL.Query().Get("period1"))
		assert.Equal(t, "1705536000", r.URL.Query().Get("period2"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	bars, err := newTestClient(server.URL).FetchHistory(context.Background(), "TCS.NS", from, to)
	require.NoError(t, err)

	// 세 번째 행은 open 누락으로 제외
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), bars[1].Date)

	// adjclose/close = 0.5 → OHLC 절반, 거래량 유지
	assert.InDelta(t, 1900.0, bars[0].Open, 1e-9)
	assert.InDelta(t, 1950.0, bars[0].High, 1e-9)
	assert.InDelta(t, 1895.0, bars[0].Low, 1e-9)
	assert.InDelta(t, 1940.0, bars[0].Close, 1e-9)
	assert.Equal(t, 2000000.0, bars[0].Volume)

	assert.InDelta(t, 3860.0, bars[1].Close, 1e-9)
}

func TestFetchHistory_EmptyAndMissing(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "no result", status: http.StatusOK, body: `{"chart": {"result": [], "error": null}}`},
		{name: "no timestamps", status: http.StatusOK, body: `{"chart": {"result": [{"meta": {}, "indicators": {"quote": [{}]}}], "error": null}}`},
		{name: "unknown symbol", status: http.StatusNotFound, body: `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			bars, err := newTestClient(server.URL).FetchHistory(context.Background(), "NOPE.NS", time.Now().AddDate(0, 0, -5), time.Now())
			require.NoError(t, err)
			assert.Empty(t, bars)
		})
	}
}

func TestFetchHistory_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchHistory(context.Background(), "TCS.NS", time.Now().AddDate(0, 0, -5), time.Now())
	assert.Error(t, err)
}

func TestFetchHistory_ChartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Bad Request", "description": "Invalid input"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchHistory(context.Background(), "TCS.NS", time.Now().AddDate(0, 0, -5), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")
}
