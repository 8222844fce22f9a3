// Package tradingcal steps calendar days across exchange trading sessions.
package tradingcal

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"github.com/wonny/stockcast/internal/contracts"
)

// suffix → ISO 10383 MIC (Yahoo ticker convention)
var suffixMIC = map[string]string{
	".NS": "xnse",
	".BO": "xbom",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".KQ": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

const defaultMIC = "xnys"

// Calendar answers trading-day questions for one exchange.
// Without exchange holiday data it falls back to Monday–Friday.
type Calendar struct {
	mic string
	cal *calendar.Calendar
	loc *time.Location
}

// ForSymbol returns the calendar of the exchange a ticker trades on
func ForSymbol(symbol string) *Calendar {
	mic := defaultMIC
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if m, ok := suffixMIC[strings.ToUpper(symbol[i:])]; ok {
			mic = m
		}
	}
	return ForMIC(mic)
}

// ForMIC returns the calendar for an exchange MIC, or the weekday fallback
func ForMIC(mic string) *Calendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return &Calendar{mic: mic, loc: time.UTC}
	}
	loc := cal.Loc
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{mic: mic, cal: cal, loc: loc}
}

// Weekdays returns a Monday–Friday calendar with no holidays
func Weekdays() *Calendar {
	return &Calendar{mic: "weekdays", loc: time.UTC}
}

// MIC returns the exchange code
func (c *Calendar) MIC() string {
	return c.mic
}

// Fallback reports whether holiday data is unavailable
func (c *Calendar) Fallback() bool {
	return c.cal == nil
}

// IsTradingDay reports whether the calendar day of d is a session day
func (c *Calendar) IsTradingDay(d time.Time) bool {
	y, m, day := d.Date()
	if c.cal == nil {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	// 거래소 현지 정오 기준으로 판정 (자정 경계 회피)
	return c.cal.IsBusinessDay(time.Date(y, m, day, 12, 0, 0, 0, c.loc))
}

// Next returns the first trading day strictly after d
func (c *Calendar) Next(d time.Time) time.Time {
	next := contracts.DateOnly(d).AddDate(0, 0, 1)
	for !c.IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Add steps n trading days forward from d (n ≤ 0 returns d's calendar day)
func (c *Calendar) Add(d time.Time, n int) time.Time {
	out := contracts.DateOnly(d)
	for i := 0; i < n; i++ {
		out = c.Next(out)
	}
	return out
}

