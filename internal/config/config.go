// Package config loads hub settings from flags, MOZICHEM_* environment
// variables, an optional YAML file and defaults, in that priority order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the hub.
const EnvPrefix = "MOZICHEM"

// DefaultShutdownTimeout bounds graceful HTTP shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds the runtime settings.
type Config struct {
	Catalog         string           `mapstructure:"catalog"`
	Transport       string           `mapstructure:"transport"`
	Host            string           `mapstructure:"host"`
	Port            int              `mapstructure:"port"`
	Path            string           `mapstructure:"path"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout"`
	Log             LogConfig        `mapstructure:"log"`
	References      ReferencesConfig `mapstructure:"references"`
	Aggregate       AggregateConfig  `mapstructure:"aggregate"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReferencesConfig points at custom reference files loaded at startup.
type ReferencesConfig struct {
	ContentFile string `mapstructure:"content_file"`
	ConfigFile  string `mapstructure:"config_file"`
}

// AggregateConfig lists the catalogs served by the aggregator.
type AggregateConfig struct {
	Catalogs []string `mapstructure:"catalogs"`
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "")
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8000)
	v.SetDefault("path", "/mcp")
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("references.content_file", "")
	v.SetDefault("references.config_file", "")
	v.SetDefault("aggregate.catalogs", []string{})
}

// New returns a viper instance with defaults and environment binding. The
// .env file of the working directory, when present, is loaded first.
func New(configFile string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// Env lists arrive as a single comma-separated string.
	if len(cfg.Aggregate.Catalogs) == 1 && strings.Contains(cfg.Aggregate.Catalogs[0], ",") {
		cfg.Aggregate.Catalogs = strings.Split(cfg.Aggregate.Catalogs[0], ",")
	}
	for i, name := range cfg.Aggregate.Catalogs {
		cfg.Aggregate.Catalogs[i] = strings.TrimSpace(name)
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks transport, port and mount path.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("invalid transport %q (use %s or %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("invalid path %q: must start with /", c.Path)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown_timeout %s", c.ShutdownTimeout)
	}
	return nil
}

// ReadReferenceFiles returns the contents of the configured reference files.
// Unset files yield empty strings.
func (c Config) ReadReferenceFiles() (content, config string, err error) {
	if c.References.ContentFile != "" {
		b, err := os.ReadFile(c.References.ContentFile)
		if err != nil {
			return "", "", fmt.Errorf("read reference content: %w", err)
		}
		content = string(b)
	}
	if c.References.ConfigFile != "" {
		b, err := os.ReadFile(c.References.ConfigFile)
		if err != nil {
			return "", "", fmt.Errorf("read reference config: %w", err)
		}
		config = string(b)
	}
	return content, config, nil
}
