// Rescheduler 调班服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paiban/rescheduler/internal/app"
	"github.com/paiban/rescheduler/internal/config"
	"github.com/paiban/rescheduler/internal/handler"
	"github.com/paiban/rescheduler/internal/jobs"
	"github.com/paiban/rescheduler/internal/metrics"
	"github.com/paiban/rescheduler/internal/middleware"
	"github.com/paiban/rescheduler/internal/security"
	"github.com/paiban/rescheduler/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(app.LoggerConfig(cfg))

	fmt.Printf("Rescheduler 调班服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("初始化存储失败")
	}
	defer a.Close()

	mux := http.NewServeMux()
	handler.New(a.Service, handler.VersionInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}).Register(mux)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	limiter := security.NewRateLimiter(cfg.API.RateLimit, time.Second)
	defer limiter.Stop()

	mws := []middleware.Middleware{
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logging,
		middleware.SecurityHeaders,
	}
	if cfg.API.CORS.Enabled {
		mws = append(mws, middleware.CORS(cfg.API.CORS.Origins))
	}
	mws = append(mws,
		middleware.RateLimit(limiter),
		middleware.RequireAPIKey(security.NewKeyRing(cfg.API.Keys)),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	if a.DB != nil && cfg.Metrics.Enabled {
		go reportDBStats(ctx, a, 15*time.Second)
	}

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler, err = jobs.New(a.Service, cfg.Jobs.AuditSchedule)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化定时任务失败")
		}
		scheduler.Start()
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("store", cfg.Store.Driver).
			Str("timezone", cfg.App.Timezone).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		return
	}

	logger.Info().Msg("服务器已关闭")
}

// reportDBStats 定期把连接池状态写入指标
func reportDBStats(ctx context.Context, a *app.App, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := a.DB.Stats()
			metrics.SetDBConnections(s.OpenConnections, s.InUse, s.Idle)
		}
	}
}
