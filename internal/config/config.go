package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Elevation  ElevationConfig  `yaml:"elevation" mapstructure:"elevation"`
	Placement  PlacementConfig  `yaml:"placement" mapstructure:"placement"`
	Fresnel    FresnelConfig    `yaml:"fresnel" mapstructure:"fresnel"`
	Graph      GraphConfig      `yaml:"graph" mapstructure:"graph"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GeocodeConfig configures the reverse geocoder.
type GeocodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	Language    string  `yaml:"language" mapstructure:"language"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ElevationConfig configures the elevation lookup.
type ElevationConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Segments    int    `yaml:"segments" mapstructure:"segments"`
}

// PlacementConfig configures the placement gate.
type PlacementConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DefaultFreqGHz float64 `yaml:"default_freq_ghz" mapstructure:"default_freq_ghz"`
}

// FresnelConfig configures polygon generation. Samples of 0 selects the
// distance-based count.
type FresnelConfig struct {
	Samples int `yaml:"samples" mapstructure:"samples"`
}

// GraphConfig configures the tower/link graph.
type GraphConfig struct {
	DeletePolicy string `yaml:"delete_policy" mapstructure:"delete_policy"`
}

// BreakerConfig configures the provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// MonitoringConfig configures the background consistency checker.
type MonitoringConfig struct {
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RFPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "rfplan/1.0")
	v.SetDefault("geocode.language", "en")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("elevation.base_url", "https://api.open-elevation.com")
	v.SetDefault("elevation.timeout_secs", 30)
	v.SetDefault("elevation.segments", 20)
	v.SetDefault("placement.timeout_secs", 8)
	v.SetDefault("placement.default_freq_ghz", 5.0)
	v.SetDefault("fresnel.samples", 0)
	v.SetDefault("graph.delete_policy", "reject")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("monitoring.check_interval_secs", 60)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "plan", "fresnel":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Fresnel.Samples != 0 && (c.Fresnel.Samples < 24 || c.Fresnel.Samples > 360) {
		errs = append(errs, "fresnel.samples must be 0 or between 24 and 360")
	}
	if c.Elevation.Segments < 1 {
		errs = append(errs, "elevation.segments must be >= 1")
	}
	if c.Geocode.RateLimit <= 0 {
		errs = append(errs, "geocode.rate_limit must be > 0")
	}
	if c.Placement.DefaultFreqGHz <= 0 {
		errs = append(errs, "placement.default_freq_ghz must be > 0")
	}
	switch strings.ToLower(c.Graph.DeletePolicy) {
	case "", "reject", "cascade":
	default:
		errs = append(errs, "graph.delete_policy must be reject or cascade")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
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
