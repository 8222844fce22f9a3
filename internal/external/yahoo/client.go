package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/httputil"
	"github.com/wonny/stockcast/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily bars from the Yahoo Finance chart API
// ⭐ SSOT: 외부 일봉 조회는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new chart API client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory returns split/dividend-adjusted daily bars in [from, to].
// An unknown symbol or an empty range yields no bars and no error.
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", contracts.DateOnly(from).Unix()))
	params.Set("period2", fmt.Sprintf("%d", contracts.DateOnly(to).AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,split")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			c.logger.WithSymbol(symbol).Warn("Symbol not found")
			return nil, nil
		}
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error for %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	bars, skipped := parseBars(resp.Chart.Result[0])

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"count":   len(bars),
		"skipped": skipped,
	}).Debug("Fetched daily bars")
	return bars, nil
}

// parseBars converts the column arrays into bars. Rows with any missing value
// are skipped; OHLC are scaled by adjclose/close when adjusted closes exist.
func parseBars(r chartResult) ([]contracts.Bar, int) {
	if len(r.Indicators.Quote) == 0 {
		return nil, 0
	}
	q := r.Indicators.Quote[0]

	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	// 거래소 현지 날짜 기준
	loc := time.FixedZone("exchange", r.Meta.GMTOffset)

	bars := make([]contracts.Bar, 0, len(r.Timestamp))
	skipped := 0
	for i, ts := range r.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		cl, ok4 := at(q.Close, i)
		vol, ok5 := at(q.Volume, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			skipped++
			continue
		}

		factor := 1.0
		if a, ok := at(adj, i); ok && cl != 0 {
			factor = a / cl
		}

		bars = append(bars, contracts.Bar{
			Date:   contracts.DateOnly(time.Unix(ts, 0).In(loc)),
			Open:   open * factor,
			High:   high * factor,
			Low:    low * factor,
			Close:  cl * factor,
			Volume: vol,
		})
	}
	return bars, skipped
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}
