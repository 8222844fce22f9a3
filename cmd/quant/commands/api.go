package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockcast/internal/api"
	"github.com/wonny/stockcast/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /api/v1/health             - Health check (store 포함)
  GET  /api/v1/data/quality       - 종목별 데이터 품질
  POST /api/v1/data/collect       - 수집 트리거 {"type": "daily"|"backfill"}
  GET  /api/v1/predict/{ticker}   - 다음 거래일 예측
  GET  /api/v1/forecast/{ticker}  - N 거래일 예측 (?days=5)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 설정)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== stockcast API Server ===")

	rt, err := newRuntime(context.Background())
	if err != nil {
		return err
	}
	defer rt.Close()

	// Override port if flag is set
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}
	log := rt.log

	svc, err := rt.forecastService()
	if err != nil {
		return err
	}

	// store 가 HealthCheck 를 지원할 때만 health 에 포함
	var health api.HealthChecker
	if hc, ok := rt.store.(api.HealthChecker); ok {
		health = hc
	}

	dataHandler := handlers.NewDataHandler(rt.store, rt.collector(), rt.cfg.Pipeline.LookbackPeriod, log)
	forecastHandler := handlers.NewForecastHandler(svc, log)
	router := api.NewRouter(dataHandler, forecastHandler, health, log)
	server := api.New(rt.cfg, log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
