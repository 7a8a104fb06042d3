// Package app 按配置组装存储和服务，服务端与命令行共用
package app

import (
	"context"
	"fmt"

	"github.com/paiban/rescheduler/internal/config"
	"github.com/paiban/rescheduler/internal/database"
	"github.com/paiban/rescheduler/internal/repository"
	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/logger"
)

// Store 可导入初始数据的存储
type Store interface {
	service.Store
	Import(ctx context.Context, seed *repository.Seed) error
}

// App 已组装的应用
type App struct {
	Config  *config.Config
	Store   Store
	Service *service.Service

	// 内存存储时为 nil
	DB *database.DB
}

// Open 按 cfg.Store.Driver 打开存储并创建服务
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	switch cfg.Store.Driver {
	case "memory":
		a.Store = repository.NewMemoryStore()
		if cfg.Store.SeedFile != "" {
			if err := a.Import(ctx, cfg.Store.SeedFile); err != nil {
				return nil, err
			}
		}
	case "postgres":
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.DB = db
		a.Store = repository.NewPostgresStore(db)
	default:
		return nil, fmt.Errorf("未知的存储驱动 %q", cfg.Store.Driver)
	}

	a.Service = service.New(a.Store, service.Options{
		Location:           cfg.App.Location(),
		DefaultDepartments: cfg.Payroll.DefaultDepartments,
		Logger:             logger.NewEngineLogger(),
	})
	return a, nil
}

// Import 从 YAML 文件导入初始数据
func (a *App) Import(ctx context.Context, path string) error {
	seed, err := repository.LoadSeedFile(path, a.Config.App.Location())
	if err != nil {
		return err
	}
	if err := a.Store.Import(ctx, seed); err != nil {
		return fmt.Errorf("导入初始数据失败: %w", err)
	}
	logger.Info().
		Str("file", path).
		Int("employees", len(seed.Employees)).
		Int("shifts", len(seed.Shifts)).
		Msg("初始数据已导入")
	return nil
}

// Close 释放数据库连接
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// LoggerConfig 由应用配置生成日志配置
func LoggerConfig(cfg *config.Config) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = cfg.App.LogLevel
	lc.Format = cfg.App.LogFormat
	return lc
}
