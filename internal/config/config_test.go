package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "rescheduler", cfg.App.Name)
	assert.Equal(t, 7012, cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 100*time.Millisecond, cfg.Database.SlowQuery)
	assert.Equal(t, "host=localhost port=5432 user=rescheduler password=rescheduler dbname=rescheduler sslmode=disable", cfg.Database.DSN())
}

func TestLoadFrom_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rescheduler.yaml")
	yamlContent := `
app:
  port: 8080
  timezone: UTC
database:
  conn_max_lifetime: 10m
store:
  driver: memory
  seed_file: seed.yaml
payroll:
  default_departments: [Grocery, Deli]
api:
  keys: [from-file]
jobs:
  audit_schedule: "*/5 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	t.Setenv("APP_PORT", "9090")
	t.Setenv("PAYROLL_DEFAULT_DEPARTMENTS", "Grocery, Bakery ,")
	t.Setenv("API_KEYS", "k1,k2")
	t.Setenv("DB_SLOW_QUERY", "250ms")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	// 环境变量覆盖文件
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, time.UTC, cfg.App.Location())
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.SlowQuery)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "seed.yaml", cfg.Store.SeedFile)
	assert.Equal(t, []string{"Grocery", "Bakery"}, cfg.Payroll.DefaultDepartments)
	assert.Equal(t, []string{"k1", "k2"}, cfg.API.Keys)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Jobs.AuditSchedule)
}

func TestLoadFrom_JobsWithoutSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rescheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  enabled: true\n  audit_schedule: \"\"\n"), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  enabled: false\n  audit_schedule: \"\"\n"), 0o600))
	_, err = LoadFrom(path)
	assert.NoError(t, err)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"未知存储驱动", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"未知运行环境", map[string]string{"APP_ENV": "staging"}},
		{"无效时区", map[string]string{"APP_TIMEZONE": "Mars/Olympus"}},
		{"监控路径不以斜杠开头", map[string]string{"METRICS_PATH": "metrics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom("")
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
