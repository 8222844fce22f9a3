package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockcast/internal/contracts"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "초기 피처 이력 적재",
	Long: `설정된 모든 종목의 과거 일봉을 수집해 피처 이력을 적재합니다.

이 명령어는:
- BACKFILL_CALENDAR_DAYS 기간의 일봉 조회
- 정제 후 MIN_CLEAN_ROWS 미만이면 종목 skip
- 지표 warm-up 행 제거, 최근 BACKFILL_ROWS 행만 품질 점수 후 저장

이미 저장된 (날짜, 종목) 행은 갱신되며 중복 저장되지 않습니다.

Example:
  go run ./cmd/quant backfill
  TICKERS=TCS.NS,INFY.NS go run ./cmd/quant backfill`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(contracts.StageBackfill)
	},
}

// collectCmd represents the daily collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "일간 피처 갱신",
	Long: `최근 DAILY_CALENDAR_DAYS 기간의 일봉으로 피처를 다시 계산하고
최근 DAILY_RECENT_ROWS 행을 저장합니다.

Example:
  go run ./cmd/quant collect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(contracts.StageDaily)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(collectCmd)
}

func runBatch(stage contracts.Stage) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	p := rt.cfg.Pipeline
	days := p.DailyCalendarDays
	title := "Daily Feature Collection"
	if stage == contracts.StageBackfill {
		days = p.BackfillCalendarDays
		title = "Feature History Backfill"
	}

	now := time.Now()
	PrintJobHeader(JobMetadata{
		JobType:   title,
		Tag:       string(stage),
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Period: &Period{
			StartDate: now.AddDate(0, 0, -days).Format("2006-01-02"),
			EndDate:   now.Format("2006-01-02"),
		},
		Symbols: p.Tickers,
	})

	col := rt.collector()

	var summary contracts.BatchSummary
	if stage == contracts.StageBackfill {
		summary, err = col.Backfill(ctx)
	} else {
		summary, err = col.CollectDaily(ctx)
	}
	PrintBatchSummary(summary)
	if err != nil {
		return fmt.Errorf("%s interrupted: %w", stage, err)
	}

	return nil
}
