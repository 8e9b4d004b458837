package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. DREST_SERVER_PORT
const EnvPrefix = "DREST"

// Config represents the drest configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Schema SchemaConfig `mapstructure:"schema"`
	Filter FilterConfig `mapstructure:"filter"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	Host            string          `mapstructure:"host"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Auth            AuthConfig      `mapstructure:"auth"`
	Live            LiveConfig      `mapstructure:"live"`
	Pprof           PprofConfig     `mapstructure:"pprof"`
}

// PprofConfig starts a profiling listener when Addr is set. Keep it off
// public interfaces.
type PprofConfig struct {
	Addr string `mapstructure:"addr"`
}

// LiveConfig configures websocket translation sessions
type LiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// AllowedOrigins empty means same-origin only
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig enables bearer token authentication when Secret is set
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Enabled reports whether requests must carry a token
func (a AuthConfig) Enabled() bool {
	return a.Secret != ""
}

// RateLimitConfig limits filter requests per client. Zero requests disables
// limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	// TrustProxy keys clients on X-Forwarded-For instead of the remote address
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// SchemaConfig points at the schema definitions file
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// FilterConfig configures filter translation
type FilterConfig struct {
	PKAlias string `mapstructure:"pk_alias"`
}

// CacheConfig selects the tree cache backend
type CacheConfig struct {
	// Backend is one of none, memory or redis
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents the redis connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ZapLevel parses the configured log level
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(l.Level)
}

// Load loads configuration from path, or from drest.yaml in the working
// directory when path is empty. A missing drest.yaml is not an error.
// Environment variables prefixed with DREST_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("drest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.requests", 0)
	v.SetDefault("server.rate_limit.window", time.Minute)
	v.SetDefault("server.rate_limit.trust_proxy", false)
	v.SetDefault("server.auth.secret", "")
	v.SetDefault("server.auth.issuer", "drest")
	v.SetDefault("server.live.enabled", true)
	v.SetDefault("server.live.allowed_origins", []string{})
	v.SetDefault("server.pprof.addr", "")
	v.SetDefault("schema.path", "schemas.yaml")
	v.SetDefault("filter.pk_alias", "pk")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("log.level", "info")
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit.Requests < 0 {
		return fmt.Errorf("server.rate_limit.requests must not be negative, got: %d", cfg.Server.RateLimit.Requests)
	}
	if cfg.Server.RateLimit.Requests > 0 && cfg.Server.RateLimit.Window <= 0 {
		return fmt.Errorf("server.rate_limit.window must be positive, got: %s", cfg.Server.RateLimit.Window)
	}
	if cfg.Schema.Path == "" {
		return fmt.Errorf("schema.path must not be empty")
	}
	if cfg.Filter.PKAlias == "" || strings.ContainsAny(cfg.Filter.PKAlias, ".|-") {
		return fmt.Errorf("filter.pk_alias must be a plain field name, got: %q", cfg.Filter.PKAlias)
	}
	switch cfg.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, got: %s", cfg.Cache.Backend)
	}
	if _, err := cfg.Log.ZapLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
