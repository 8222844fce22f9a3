package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/tradingcal"
)

// MaxHorizonDays bounds a single multi-day forecast
const MaxHorizonDays = 30

// Step is one forecasted trading day
type Step struct {
	Date  time.Time
	Price float64
}

// Driver runs the model autoregressively over a rolling window
type Driver struct {
	model    Model
	preparer *Preparer
	log      zerolog.Logger
}

// NewDriver creates a forecast driver
func NewDriver(model Model, preparer *Preparer, log zerolog.Logger) *Driver {
	return &Driver{
		model:    model,
		preparer: preparer,
		log:      log.With().Str("component", "forecast.driver").Logger(),
	}
}

// Preparer returns the driver's tensor preparer
func (d *Driver) Preparer() *Preparer {
	return d.preparer
}

// PredictNext runs one inference step and returns the predicted target value
func (d *Driver) PredictNext(ctx context.Context, window contracts.LookbackWindow, scaler *Scaler) (float64, error) {
	tensor, err := d.preparer.Prepare(window, scaler)
	if err != nil {
		return 0, err
	}

	out, err := d.model.Predict(ctx, tensor)
	if err != nil {
		return 0, fmt.Errorf("model predict for %s: %w", window.Symbol, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("model returned %d outputs for one sample", len(out))
	}

	return d.preparer.Invert(out[0], scaler)
}

// Forecast predicts horizon consecutive trading days.
//
// After each step the window slides forward by one synthesized row: it copies
// the last row's non-target features unchanged, sets the target column to the
// predicted value and is dated on the next trading day.
func (d *Driver) Forecast(ctx context.Context, window contracts.LookbackWindow, scaler *Scaler, cal *tradingcal.Calendar, horizon int) ([]Step, error) {
	if horizon < 1 || horizon > MaxHorizonDays {
		return nil, fmt.Errorf("horizon must be within [1, %d], got %d", MaxHorizonDays, horizon)
	}
	if window.Len() == 0 {
		return nil, contracts.ErrNoData
	}

	rows := make([]contracts.FeatureRow, window.Len())
	copy(rows, window.Rows)
	current := contracts.LookbackWindow{Symbol: window.Symbol, Rows: rows}

	steps := make([]Step, 0, horizon)
	for i := 0; i < horizon; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		price, err := d.PredictNext(ctx, current, scaler)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		next := d.synthesize(current.Rows[len(current.Rows)-1], price, cal)
		steps = append(steps, Step{Date: next.Date, Price: price})

		current = slide(current, next)
	}

	d.log.Debug().
		Str("symbol", window.Symbol).
		Int("horizon", horizon).
		Time("last_known", window.LastDate()).
		Str("calendar", cal.MIC()).
		Bool("weekday_fallback", cal.Fallback()).
		Msg("forecast complete")

	return steps, nil
}

func (d *Driver) synthesize(last contracts.FeatureRow, price float64, cal *tradingcal.Calendar) contracts.FeatureRow {
	next := last
	next.Date = cal.Next(last.Date)
	next.SetFeature(d.preparer.Target(), price)
	return next
}

func slide(w contracts.LookbackWindow, next contracts.FeatureRow) contracts.LookbackWindow {
	rows := make([]contracts.FeatureRow, 0, len(w.Rows))
	rows = append(rows, w.Rows[1:]...)
	rows = append(rows, next)
	return contracts.LookbackWindow{Symbol: w.Symbol, Rows: rows}
}

// LowestIndex returns the index of the minimum predicted price; ties keep the earliest
func LowestIndex(steps []Step) int {
	if len(steps) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(steps); i++ {
		if steps[i].Price < steps[best].Price {
			best = i
		}
	}
	return best
}
