package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
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

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type CallerConfig struct {
	Name string `mapstructure:"name"`
}

type HealthCheckConfig struct {
	Interval     string `mapstructure:"interval"`
	ProbeTimeout string `mapstructure:"probe_timeout"`
}

type BreakerConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	ResetTimeout     string `mapstructure:"reset_timeout"`
	SuccessesToClose int    `mapstructure:"successes_to_close"`
}

type ServiceConfig struct {
	Name        string        `mapstructure:"name"`
	BaseURL     string        `mapstructure:"base_url"`
	HealthPath  string        `mapstructure:"health_path"`
	CallTimeout string        `mapstructure:"call_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

type TokenConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	TTL        string `mapstructure:"ttl"`
}

type AuditConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Caller      CallerConfig      `mapstructure:"caller"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Token       TokenConfig       `mapstructure:"token"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Services    []ServiceConfig   `mapstructure:"services"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":9090")
	viper.SetDefault("caller.name", "interlink")
	viper.SetDefault("health_check.interval", "30s")
	viper.SetDefault("health_check.probe_timeout", "5s")
	viper.SetDefault("token.ttl", "30s")
	viper.SetDefault("audit.buffer_size", 256)
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Error("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
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
	return validation.ValidateStruct(c,
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
				)
			}),
		),
		validation.Field(&c.Caller,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CallerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CallerConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.Name, validation.Required),
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
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.ProbeTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Token,
			validation.Required,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TokenConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TokenConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.SigningKey, validation.Required),
					validation.Field(&tc.TTL,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Audit,
			validation.Required,
			validation.By(func(value interface{}) error {
				ac, ok := value.(AuditConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an AuditConfig")
				}
				return validation.ValidateStruct(&ac,
					validation.Field(&ac.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Services,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateServiceConfig)),
		),
	)
}

func validateServiceConfig(value interface{}) error {
	svc, ok := value.(ServiceConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServiceConfig")
	}

	return validation.ValidateStruct(&svc,
		validation.Field(&svc.Name, validation.Required),
		validation.Field(&svc.BaseURL,
			validation.Required,
			validation.By(validateServiceURL),
		),
		validation.Field(&svc.HealthPath, validation.Required),
		validation.Field(&svc.CallTimeout,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&svc.MaxRetries, validation.Min(0)),
		validation.Field(&svc.Breaker,
			validation.Required,
			validation.By(validateBreakerConfig),
		),
	)
}

func validateBreakerConfig(value interface{}) error {
	bc, ok := value.(BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
	}

	return validation.ValidateStruct(&bc,
		validation.Field(&bc.FailureThreshold, validation.Required, validation.Min(1)),
		validation.Field(&bc.ResetTimeout,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&bc.SuccessesToClose, validation.Min(0)),
	)
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

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateServiceURL(value interface{}) error {
	serviceURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serviceURL == "" {
		return validation.NewError("validation_empty_url", "service URL cannot be empty")
	}

	parsedURL, err := url.Parse(serviceURL)
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
