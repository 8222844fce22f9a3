package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/internal/s0_data"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "저장 데이터 상태 확인",
	Long: `피처 저장소의 최신 상태를 확인합니다.

확인 항목:
- 가장 최근 저장 행의 피처 값
- 최신 데이터 경과 일수 (freshness)
- 종목별 저장 행 수 (상위 5개)

Example:
  go run ./cmd/quant verify`,
	RunE: runVerify,
}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "종목별 데이터 품질 리포트",
	Long: `종목별 저장 행 수, 기간, 평균 품질 점수를 출력합니다.
lookback 이상 저장된 종목만 예측에 사용할 수 있습니다.

Example:
  go run ./cmd/quant report`,
	RunE: runReport,
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "피처 이력 Parquet 내보내기",
	Long: `저장된 피처 행을 학습용 Parquet 스냅샷으로 내보냅니다.

Example:
  go run ./cmd/quant export --out features.parquet
  go run ./cmd/quant export --from 2024-01-01 --to 2024-06-30 --tickers TCS.NS`,
	RunE: runExport,
}

var (
	// export 플래그
	exportFrom    string
	exportTo      string
	exportOut     string
	exportTickers []string
)

const verifyTopN = 5

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "시작일 (YYYY-MM-DD, 기본: 1년 전)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "종료일 (YYYY-MM-DD, 기본: 오늘)")
	exportCmd.Flags().StringVar(&exportOut, "out", "features.parquet", "출력 파일 경로")
	exportCmd.Flags().StringSliceVar(&exportTickers, "tickers", nil, "종목 (기본: TICKERS 설정)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Feature Store Verification")
	PrintSeparator()

	latest, err := rt.store.LatestRecord(ctx)
	if errors.Is(err, contracts.ErrNoData) {
		PrintWarning("No feature rows stored yet (run backfill first)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest record: %w", err)
	}

	// 1. Latest record
	fmt.Println("📊 Latest record")
	PrintKeyValue("Symbol", latest.Symbol, 16)
	PrintKeyValue("Date", latest.Date.Format("2006-01-02"), 16)
	for _, name := range rt.cfg.Pipeline.Features {
		if v, ok := latest.Feature(name); ok {
			PrintKeyValue(name, fmt.Sprintf("%.4f", v), 16)
		}
	}
	PrintKeyValue("QualityScore", fmt.Sprintf("%.1f", latest.QualityScore), 16)

	// 2. Freshness
	age := contracts.FreshnessDays(latest.Date, time.Now())
	fmt.Println()
	if age <= 3 {
		PrintSuccess(fmt.Sprintf("Data is fresh (%d days old)", age))
	} else {
		PrintWarning(fmt.Sprintf("Latest data is %d days old", age))
	}

	// 3. Records per ticker
	stats, err := rt.store.SymbolStats(ctx)
	if err != nil {
		return fmt.Errorf("symbol stats: %w", err)
	}
	if len(stats) > verifyTopN {
		stats = stats[:verifyTopN]
	}

	fmt.Printf("\n📈 Records per ticker (top %d)\n", verifyTopN)
	widths := []int{16, 8}
	PrintTableHeader([]string{"Symbol", "Rows"}, widths)
	for _, s := range stats {
		PrintTableRow([]string{s.Symbol, fmt.Sprintf("%d", s.Count)}, widths)
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.store.SymbolStats(ctx)
	if err != nil {
		return fmt.Errorf("symbol stats: %w", err)
	}

	report := contracts.DataQualityReport{
		GeneratedAt: time.Now(),
		Lookback:    rt.cfg.Pipeline.LookbackPeriod,
		Symbols:     stats,
	}

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Data Quality Report")
	PrintSeparator()

	widths := []int{16, 8, 12, 12, 8, 6}
	PrintTableHeader([]string{"Symbol", "Rows", "First", "Last", "Quality", "Ready"}, widths)
	for _, s := range report.Symbols {
		ready := "no"
		if s.Count >= report.Lookback {
			ready = "yes"
		}
		PrintTableRow([]string{
			s.Symbol,
			fmt.Sprintf("%d", s.Count),
			s.FirstDate.Format("2006-01-02"),
			s.LastDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", s.AvgQualityScore),
			ready,
		}, widths)
	}

	PrintSeparator()
	PrintKeyValue("Total records", fmt.Sprintf("%d", report.TotalRecords()), 16)
	PrintKeyValue("Avg quality", fmt.Sprintf("%.2f", report.AverageQuality()), 16)
	PrintKeyValue("Ready symbols", fmt.Sprintf("%d/%d", len(report.ReadySymbols()), len(report.Symbols)), 16)

	if len(report.Symbols) == 0 {
		PrintInfo("No feature rows stored yet")
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	now := time.Now()
	from, err := parseDateFlag(exportFrom, now.AddDate(-1, 0, 0))
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDateFlag(exportTo, now)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", exportTo, exportFrom)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	tickers := exportTickers
	if len(tickers) == 0 {
		tickers = rt.cfg.Pipeline.Tickers
	}
	for i := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(tickers[i]))
	}

	n, err := s0_data.ExportParquet(ctx, rt.store, tickers, from, to, exportOut)
	if errors.Is(err, contracts.ErrNoData) {
		PrintWarning("No rows in range, nothing exported")
		return nil
	}
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Exported %d rows to %s", n, exportOut))
	return nil
}

func parseDateFlag(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return contracts.DateOnly(def), nil
	}
	return time.Parse("2006-01-02", raw)
}
