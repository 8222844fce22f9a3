package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wonny/stockcast/internal/api/handlers"
	"github.com/wonny/stockcast/internal/contracts"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [ticker]",
	Short: "N 거래일 예측 및 매수 추천일",
	Long: `저장된 lookback 윈도우로 N 거래일을 재귀 예측하고
예측 가격이 가장 낮은 날을 매수 추천일로 반환합니다.

결과는 API 응답과 같은 JSON 레코드로 출력됩니다.

Example:
  go run ./cmd/quant forecast TCS.NS
  go run ./cmd/quant forecast RELIANCE.NS --days 10`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

var predictCmd = &cobra.Command{
	Use:   "predict [ticker]",
	Short: "다음 거래일 종가 예측",
	Long: `저장된 lookback 윈도우로 다음 거래일 종가 하나를 예측합니다.

Example:
  go run ./cmd/quant predict INFY.NS`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var (
	// forecast 플래그
	forecastDays int
)

// errResult marks a structured error result already printed
var errResult = errors.New("forecast returned an error result")

func init() {
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(predictCmd)

	forecastCmd.Flags().IntVar(&forecastDays, "days", handlers.DefaultForecastDays, "예측 거래일 수 (1-30)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.forecastService()
	if err != nil {
		return err
	}

	res := svc.Recommend(ctx, args[0], forecastDays)
	if err := PrintJSON(res); err != nil {
		return err
	}
	if res.Status != contracts.StatusSuccess {
		return errResult
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.forecastService()
	if err != nil {
		return err
	}

	res := svc.PredictNext(ctx, args[0])
	if err := PrintJSON(res); err != nil {
		return err
	}
	if res.Status != contracts.StatusSuccess {
		return errResult
	}
	return nil
}
