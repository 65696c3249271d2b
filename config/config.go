package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const DefaultRemoveBGEndpoint = "https://api.remove.bg/v1.0/removebg"

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Environment    string   `mapstructure:"environment"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RemoveBGConfig holds the upstream settings. APIKey may be empty here; the
// proxy endpoint rejects requests until a real key is supplied.
type RemoveBGConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Timeout  string `mapstructure:"timeout"`
	Size     string `mapstructure:"size"`
}

type StaticConfig struct {
	Root  string `mapstructure:"root"`
	Index string `mapstructure:"index"`
}

type MetricsConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	RemoveBG RemoveBGConfig `mapstructure:"removebg"`
	Static   StaticConfig   `mapstructure:"static"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read .env file", slog.String("error", err.Error()))
			return nil, err
		}
	} else {
		slog.Info("loaded .env file")
	}

	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("removebg.api_key", "")
	v.SetDefault("removebg.endpoint", DefaultRemoveBGEndpoint)
	v.SetDefault("removebg.timeout", "30s")
	v.SetDefault("removebg.size", "auto")
	v.SetDefault("static.root", "./web")
	v.SetDefault("static.index", "index.html")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.WriteTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.RemoveBG,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RemoveBGConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RemoveBGConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Endpoint,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&rc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&rc.Size,
						validation.Required,
						validation.In("auto", "preview", "small", "regular", "medium", "hd", "full", "4k", "50MP"),
					),
				)
			}),
		),
		validation.Field(&c.Static,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StaticConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StaticConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Root, validation.Required),
					validation.Field(&sc.Index, validation.Required),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				if !mc.Enabled {
					return nil
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
	if err != nil {
		return err
	}

	return c.validateTimeouts()
}

// validateTimeouts rejects a write timeout that would cut off a response
// still waiting on the upstream call.
func (c *Config) validateTimeouts() error {
	if c.ServerWriteTimeout() <= c.UpstreamTimeout() {
		return validation.Errors{
			"Server": validation.Errors{
				"WriteTimeout": validation.NewError("validation_write_timeout_too_short", "must be longer than the upstream timeout"),
			},
		}
	}
	return nil
}

// UpstreamTimeout returns the parsed upstream timeout. Call after Validate.
func (c *Config) UpstreamTimeout() time.Duration {
	d, _ := time.ParseDuration(c.RemoveBG.Timeout)
	return d
}

// ServerWriteTimeout returns the parsed write timeout. Call after Validate.
func (c *Config) ServerWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "server URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
