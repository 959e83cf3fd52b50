package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/liquidity-gate/internal/security"
	"github.com/example/liquidity-gate/internal/snapshot"
)

// Data sources the snapshot can be loaded from.
const (
	SourceGCS      = "gcs"
	SourceDir      = "dir"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// FileEnv names the optional YAML file read before the environment.
const FileEnv = "LIQUIDITY_CONFIG"

// Config holds the application configuration.
type Config struct {
	Environment string `yaml:"app_env"`
	APIAddr     string `yaml:"api_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	DataSource     string `yaml:"data_source"`
	GCSBucket      string `yaml:"gcs_bucket"`
	DataDir        string `yaml:"data_dir"`
	LedgerObject   string `yaml:"ledger_object"`
	BalancesObject string `yaml:"balances_object"`
	BuffersObject  string `yaml:"buffers_object"`
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`

	RedisAddr             string   `yaml:"redis_addr"`
	RateLimitCapacity     int      `yaml:"api_rate_limit_capacity"`
	RateLimitRefillPerSec float64  `yaml:"api_rate_limit_refill_per_sec"`
	MaxBodyBytes          int64    `yaml:"api_max_body_bytes"`
	IPAllowlist           []string `yaml:"api_ip_allowlist"`

	TLSCert string `yaml:"api_tls_cert"`
	TLSKey  string `yaml:"api_tls_key"`
	TLSCA   string `yaml:"api_tls_ca"`

	TLSRequireClientCert bool `yaml:"api_tls_require_client_cert"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	AuditLogPath   string        `yaml:"audit_log"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		APIAddr:               ":8080",
		GRPCAddr:              ":9090",
		LogLevel:              "info",
		DataSource:            SourceGCS,
		LedgerObject:          snapshot.DefaultLedgerObject,
		BalancesObject:        snapshot.DefaultBalancesObject,
		BuffersObject:         snapshot.DefaultBuffersObject,
		RateLimitCapacity:     20,
		RateLimitRefillPerSec: 10,
		MaxBodyBytes:          1 << 20,
		RequestTimeout:        30 * time.Second,
		MetricsEnabled:        true,
	}
}

// Load builds the configuration from defaults, the optional file named by
// LIQUIDITY_CONFIG and the environment, in that order, and validates it.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var invalid []string
	parse := func(key string, set func(string) error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		if err := set(strings.TrimSpace(v)); err != nil {
			invalid = append(invalid, key)
		}
	}

	str("APP_ENV", &c.Environment)
	str("API_ADDR", &c.APIAddr)
	str("GRPC_ADDR", &c.GRPCAddr)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("DATA_SOURCE", &c.DataSource)
	str("GCS_BUCKET", &c.GCSBucket)
	str("DATA_DIR", &c.DataDir)
	str("LEDGER_OBJECT", &c.LedgerObject)
	str("BALANCES_OBJECT", &c.BalancesObject)
	str("BUFFERS_OBJECT", &c.BuffersObject)
	str("DATABASE_URL", &c.DatabaseURL)
	str("SQLITE_PATH", &c.SQLitePath)
	str("REDIS_ADDR", &c.RedisAddr)
	str("API_TLS_CERT", &c.TLSCert)
	str("API_TLS_KEY", &c.TLSKey)
	str("API_TLS_CA", &c.TLSCA)
	str("AUDIT_LOG", &c.AuditLogPath)

	parse("API_RATE_LIMIT_CAPACITY", func(v string) (err error) {
		c.RateLimitCapacity, err = strconv.Atoi(v)
		return err
	})
	parse("API_RATE_LIMIT_REFILL_PER_SEC", func(v string) (err error) {
		c.RateLimitRefillPerSec, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("API_MAX_BODY_BYTES", func(v string) (err error) {
		c.MaxBodyBytes, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	parse("REQUEST_TIMEOUT", func(v string) (err error) {
		c.RequestTimeout, err = time.ParseDuration(v)
		return err
	})
	parse("METRICS_ENABLED", func(v string) (err error) {
		c.MetricsEnabled, err = strconv.ParseBool(v)
		return err
	})
	parse("API_TLS_REQUIRE_CLIENT_CERT", func(v string) (err error) {
		c.TLSRequireClientCert, err = strconv.ParseBool(v)
		return err
	})
	parse("API_IP_ALLOWLIST", func(v string) error {
		c.IPAllowlist = splitList(v)
		return nil
	})

	if len(invalid) > 0 {
		return errors.New("invalid environment variables: " + strings.Join(invalid, ", "))
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var missing []string

	if c.Environment == "" {
		missing = append(missing, "APP_ENV")
	}
	switch c.DataSource {
	case SourceGCS:
		if c.GCSBucket == "" {
			missing = append(missing, "GCS_BUCKET")
		}
	case SourceDir:
		if c.DataDir == "" {
			missing = append(missing, "DATA_DIR")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of gcs, dir, postgres, sqlite; got %q", c.DataSource)
	}
	if c.TLSRequireClientCert && c.TLSCA == "" {
		missing = append(missing, "API_TLS_CA")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		if c.TLSCert == "" {
			missing = append(missing, "API_TLS_CERT")
		} else {
			missing = append(missing, "API_TLS_KEY")
		}
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	// Production traffic is rate limited.
	if c.Environment == "production" || c.Environment == "staging" {
		if c.RedisAddr == "" {
			return errors.New("missing required environment variables for " + c.Environment + ": REDIS_ADDR")
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitRefillPerSec <= 0 {
		return errors.New("API_RATE_LIMIT_CAPACITY and API_RATE_LIMIT_REFILL_PER_SEC must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("API_MAX_BODY_BYTES must be positive")
	}
	if _, err := security.ParseCIDRAllowlist(c.IPAllowlist); err != nil {
		return fmt.Errorf("invalid API_IP_ALLOWLIST: %w", err)
	}
	return nil
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// TLS returns the server TLS settings.
func (c *Config) TLS() security.TLSConfig {
	return security.TLSConfig{
		CertFile:          c.TLSCert,
		KeyFile:           c.TLSKey,
		CAFile:            c.TLSCA,
		RequireClientAuth: c.TLSRequireClientCert,
	}
}

// Objects returns the curated object names.
func (c *Config) Objects() snapshot.Objects {
	return snapshot.Objects{
		Ledger:   c.LedgerObject,
		Balances: c.BalancesObject,
		Buffers:  c.BuffersObject,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
