package contracts

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy
// ⭐ SSOT: 심볼 단위 실패 분류는 여기서만
var (
	// ErrNoData: empty source fetch, empty cleaned set or empty feature set
	ErrNoData = errors.New("no data available")

	// ErrNoScaler: no fitted scaler for the requested symbol
	ErrNoScaler = errors.New("no scaler for symbol")

	// ErrMissingFeature: a configured feature column is not produced
	ErrMissingFeature = errors.New("missing feature column")

	// ErrArtifactMissing: model or scaler file absent at startup
	ErrArtifactMissing = errors.New("model artifact missing")
)

// InsufficientDataError reports fewer stored rows than the lookback requires
type InsufficientDataError struct {
	Symbol   string
	Found    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data in store for %s: need %d, found %d", e.Symbol, e.Required, e.Found)
}

// IsInsufficientData reports whether err wraps an InsufficientDataError
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}
