package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Audit  AuditConfig  `yaml:"audit" mapstructure:"audit"`
	Lookup LookupConfig `yaml:"lookup" mapstructure:"lookup"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Auth   AuthConfig   `yaml:"auth" mapstructure:"auth"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store (the historical production tables).
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts and ConnectBackoffMs retry the startup connection while
	// the database is unreachable.
	ConnectAttempts  int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
	ConnectBackoffMs int `yaml:"connect_backoff_ms" mapstructure:"connect_backoff_ms"`
}

// AuditConfig configures the query audit trail.
type AuditConfig struct {
	// Driver is postgres, sqlite or off.
	Driver string `yaml:"driver" mapstructure:"driver"`
	// DatabaseURL is a Postgres URL or a SQLite path. Empty with the postgres
	// driver reuses the record store pool.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LookupConfig tunes the search and parts-list queries.
type LookupConfig struct {
	QueryTimeoutSecs int      `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
	DefaultLimit     int      `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit         int      `yaml:"max_limit" mapstructure:"max_limit"`
	ImageConcurrency int      `yaml:"image_concurrency" mapstructure:"image_concurrency"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes" mapstructure:"excluded_prefixes"`
}

// QueryTimeout returns the per-query deadline.
func (c LookupConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours" mapstructure:"token_ttl_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHOPFLOOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing deployments.
	for key, env := range map[string]string{
		"store.database_url": "DATABASE_URL",
		"auth.jwt_secret":    "JWT_SECRET",
		"server.port":        "PORT",
	} {
		if err := v.BindEnv(key, "SHOPFLOOR_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", env)
		}
	}

	// Defaults
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.connect_attempts", 5)
	v.SetDefault("store.connect_backoff_ms", 500)
	v.SetDefault("audit.driver", "off")
	v.SetDefault("lookup.query_timeout_secs", 8)
	v.SetDefault("lookup.default_limit", 50)
	v.SetDefault("lookup.max_limit", 200)
	v.SetDefault("lookup.image_concurrency", 4)
	v.SetDefault("lookup.excluded_prefixes", []string{"06.MP", "02.MP", "07.MP", "08.EM", "01.MP"})
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.request_timeout_secs", 15)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("auth.token_ttl_hours", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is serve, query or audit.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "serve":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
		if c.Auth.JWTSecret == "" {
			missing = append(missing, "auth.jwt_secret is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
		missing = append(missing, c.validateAudit()...)
	case "query":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	case "audit":
		if c.Audit.Driver == "off" || c.Audit.Driver == "" {
			missing = append(missing, "audit.driver must be postgres or sqlite")
		}
		missing = append(missing, c.validateAudit()...)
	case "token":
		if c.Auth.JWTSecret == "" {
			missing = append(missing, "auth.jwt_secret is required")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

func (c *Config) validateAudit() []string {
	switch c.Audit.Driver {
	case "", "off":
		return nil
	case "postgres":
		if c.Audit.DatabaseURL == "" && c.Store.DatabaseURL == "" {
			return []string{"audit.database_url or store.database_url is required"}
		}
		return nil
	case "sqlite":
		if c.Audit.DatabaseURL == "" {
			return []string{"audit.database_url is required for sqlite"}
		}
		return nil
	default:
		return []string{"audit.driver must be postgres, sqlite or off"}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
