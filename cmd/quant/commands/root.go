package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "stockcast - 일봉 피처 파이프라인 및 가격 예측",
	Long: `stockcast Unified CLI

일봉 수집 → 정제 → 피처 → 품질 점수 → 저장,
저장된 lookback 윈도우로 다음 거래일 가격을 예측합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backfill
  go run ./cmd/quant collect
  go run ./cmd/quant forecast TCS.NS --days 5
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
