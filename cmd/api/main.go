package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"recipe-catalog/internal/api"
	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "recipe-catalog",
	Short: "Personal recipe catalog with Instagram and handwritten-photo import",
	Long: `recipe-catalog serves the recipe catalog HTTP API.

Without a subcommand it starts the server (same as "serve").
The "extract" subcommands run a single extraction and print the JSON result.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup 載入設定並初始化 logger
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("store", cfg.Store.Backend),
		zap.String("text_provider", cfg.AI.TextProvider),
		zap.String("vision_provider", cfg.AI.VisionProvider),
		zap.String("ocr_provider", cfg.AI.OCRProvider),
		zap.String("anthropic_api_key", config.MaskAPIKey(cfg.Anthropic.APIKey)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := api.BuildDependencies(ctx, cfg)
	if err != nil {
		common.LogError("Failed to initialize services", zap.Error(err))
		return err
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.SetupRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中斷信號
	select {
	case err := <-serveErr:
		common.LogError("Failed to start server", zap.Error(err))
		_ = deps.Close()
		return err
	case <-ctx.Done():
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	// 等待中的延遲刪除會在此執行
	if err := deps.Close(); err != nil {
		common.LogError("Failed to close services", zap.Error(err))
		return err
	}

	common.LogInfo("Server exited")
	return nil
}
