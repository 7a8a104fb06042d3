// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Store    StoreConfig    `yaml:"store"`
	Payroll  PayrollConfig  `yaml:"payroll"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `yaml:"name" validate:"required"`
	Env       string `yaml:"env" validate:"oneof=development test production"`
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`
	Timezone  string `yaml:"timezone" validate:"required"`
}

// Location 返回配置的时区，解析失败时使用本地时区
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	Name            string        `yaml:"name" validate:"required"`
	User            string        `yaml:"user" validate:"required"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// 超过该耗时的语句记为慢查询，0 为不记录
	SlowQuery time.Duration `yaml:"slow_query"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit" validate:"min=0"` // 每个客户端每秒请求数，0 为不限
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`

	// 写操作需要的 API 密钥，为空时不校验
	Keys []string `yaml:"keys"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// StoreConfig 存储配置
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres memory"`
	// 内存存储的初始数据文件（YAML）
	SeedFile string `yaml:"seed_file"`
}

// PayrollConfig 人工成本配置
type PayrollConfig struct {
	// 部门表为空时使用的部门列表
	DefaultDepartments []string `yaml:"default_departments" validate:"dive,required"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required,startswith=/"`
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	Enabled bool `yaml:"enabled"`
	// 巡检本月与下月隐患和成本的 cron 表达式，支持 @every 写法
	AuditSchedule string `yaml:"audit_schedule" validate:"required_if=Enabled true"`
}

var validate = validator.New()

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "rescheduler",
			Env:       "development",
			Port:      7012,
			LogLevel:  "info",
			LogFormat: "console",
			Timezone:  "Local",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "rescheduler",
			User:            "rescheduler",
			Password:        "rescheduler",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			SlowQuery:       100 * time.Millisecond,
		},
		API: APIConfig{
			RateLimit: 100,
			Timeout:   30 * time.Second,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Store: StoreConfig{
			Driver: "postgres",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Jobs: JobsConfig{
			Enabled:       true,
			AuditSchedule: "@every 15m",
		},
	}
}

// Load 加载配置：默认值、RESCHEDULER_CONFIG 指定的 YAML 文件、.env 文件、环境变量，后者覆盖前者
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}
	return LoadFrom(os.Getenv("RESCHEDULER_CONFIG"))
}

// LoadFrom 从指定 YAML 文件加载配置，path 为空时只用默认值和环境变量
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		return fmt.Errorf("时区 %q 无效: %w", cfg.App.Timezone, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Port = getEnvInt("APP_PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnv("APP_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnv("APP_LOG_FORMAT", cfg.App.LogFormat)
	cfg.App.Timezone = getEnv("APP_TIMEZONE", cfg.App.Timezone)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)
	cfg.Database.SlowQuery = getEnvDuration("DB_SLOW_QUERY", cfg.Database.SlowQuery)

	cfg.API.RateLimit = getEnvInt("API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.API.CORS.Enabled = getEnvBool("API_CORS_ENABLED", cfg.API.CORS.Enabled)
	cfg.API.CORS.Origins = getEnvList("API_CORS_ORIGINS", cfg.API.CORS.Origins)
	cfg.API.Keys = getEnvList("API_KEYS", cfg.API.Keys)

	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.SeedFile = getEnv("STORE_SEED_FILE", cfg.Store.SeedFile)

	cfg.Payroll.DefaultDepartments = getEnvList("PAYROLL_DEFAULT_DEPARTMENTS", cfg.Payroll.DefaultDepartments)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)

	cfg.Jobs.Enabled = getEnvBool("JOBS_ENABLED", cfg.Jobs.Enabled)
	cfg.Jobs.AuditSchedule = getEnv("JOBS_AUDIT_SCHEDULE", cfg.Jobs.AuditSchedule)
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList 解析逗号分隔的列表
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
