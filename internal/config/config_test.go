package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "employees.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.MinConns)
	assert.Equal(t, 5, cfg.Store.ConnectRetry.MaxAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10485760), cfg.Server.MaxBodyBytes)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit.RPS, 0.001)
	assert.Equal(t, 40, cfg.Server.RateLimit.Burst)
	assert.Empty(t, cfg.Server.RateLimit.Stats.RedisURL)
	assert.Equal(t, "employee-contacts:ratelimit", cfg.Server.RateLimit.Stats.Prefix)
	assert.Equal(t, 24, cfg.Server.RateLimit.Stats.TTLHours)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/employees
log:
  level: debug
  format: console
server:
  port: 9090
  cors:
    allowed_origins:
      - https://hr.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/employees", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.Server.CORS.AllowedOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 40, cfg.Server.RateLimit.Burst)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("EMPLOYEE_STORE_DRIVER", "postgres")
	t.Setenv("EMPLOYEE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("EMPLOYEE_SERVER_PORT", "3000")
	t.Setenv("EMPLOYEE_SERVER_MAX_BODY_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "employees.db"
	cfg.Server.Port = 8080
	cfg.Server.MaxBodyBytes = 10 << 20
	cfg.Server.RateLimit.RPS = 20
	cfg.Server.RateLimit.Burst = 40
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	// Port is only checked when serving.
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateServe_RateLimitBurst(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit.Burst = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst")

	cfg.Server.RateLimit.RPS = 0
	assert.NoError(t, cfg.Validate("serve"), "disabled limiter needs no burst")
}

func TestValidateServe_LimitStatsNeedLimiter(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit.Stats.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.RateLimit.RPS = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit.stats")
}
