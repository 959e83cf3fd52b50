package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestValidateMissing(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")
	assert.Contains(t, err.Error(), "GCS_BUCKET")

	cfg.Environment = "development"
	cfg.DataSource = SourcePostgres
	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "missing required environment variables: DATABASE_URL", err.Error())

	cfg.DataSource = "s3"
	require.ErrorContains(t, cfg.Validate(), "DATA_SOURCE")
}

func TestValidateProductionNeedsRedis(t *testing.T) {
	cfg := Defaults()
	cfg.Environment = "production"
	cfg.GCSBucket = "treasury-curated"
	require.ErrorContains(t, cfg.Validate(), "REDIS_ADDR")

	cfg.RedisAddr = "redis:6379"
	require.NoError(t, cfg.Validate())
}

func TestValidateTLSPairs(t *testing.T) {
	cfg := Defaults()
	cfg.Environment = "development"
	cfg.GCSBucket = "b"
	cfg.TLSCert = "server.crt"
	require.ErrorContains(t, cfg.Validate(), "API_TLS_KEY")

	cfg.TLSKey = "server.key"
	cfg.TLSRequireClientCert = true
	require.ErrorContains(t, cfg.Validate(), "API_TLS_CA")

	cfg.TLSCA = "ca.crt"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.TLS().Enabled())
	assert.True(t, cfg.TLS().RequireClientAuth)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"APP_ENV":                       "development",
		"DATA_SOURCE":                   "dir",
		"DATA_DIR":                      "/srv/curated",
		"API_RATE_LIMIT_CAPACITY":       "50",
		"API_RATE_LIMIT_REFILL_PER_SEC": "2.5",
		"API_IP_ALLOWLIST":              "10.0.0.0/8, 127.0.0.1,",
		"REQUEST_TIMEOUT":               "5s",
		"METRICS_ENABLED":               "false",
		"LOG_LEVEL":                     "debug",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceDir, cfg.DataSource)
	assert.Equal(t, 50, cfg.RateLimitCapacity)
	assert.Equal(t, 2.5, cfg.RateLimitRefillPerSec)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.IPAllowlist)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.MetricsEnabled)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, "curated/ledger_today.csv", cfg.Objects().Ledger)
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Defaults()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"API_MAX_BODY_BYTES": "lots",
		"REQUEST_TIMEOUT":    "30",
	}))
	require.Error(t, err)
	assert.Equal(t, "invalid environment variables: API_MAX_BODY_BYTES, REQUEST_TIMEOUT", err.Error())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Environment = "development"
	cfg.GCSBucket = "b"

	cfg.LogLevel = "chatty"
	require.ErrorContains(t, cfg.Validate(), "LOG_LEVEL")

	cfg.LogLevel = "warn"
	cfg.IPAllowlist = []string{"not-an-ip"}
	require.ErrorContains(t, cfg.Validate(), "API_IP_ALLOWLIST")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_env: staging
data_source: sqlite
sqlite_path: /var/lib/liquidity/snapshot.db
redis_addr: redis:6379
request_timeout: 10s
api_ip_allowlist:
  - 192.168.0.0/16
`), 0o600))

	t.Setenv(FileEnv, path)
	t.Setenv("SQLITE_PATH", "/tmp/override.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, SourceSQLite, cfg.DataSource)
	assert.Equal(t, "/tmp/override.db", cfg.SQLitePath)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"192.168.0.0/16"}, cfg.IPAllowlist)
	assert.Equal(t, ":8080", cfg.APIAddr)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "failed to read config file")
}
