package config

import (
	"log/slog"
	"net"
	"strings"

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

const (
	StateBackendMemory = "memory"
	StateBackendFile   = "file"
	StateBackendRedis  = "redis"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type StateConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type ManagedConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type DiagnosticsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	State       StateConfig       `mapstructure:"state"`
	Managed     ManagedConfig     `mapstructure:"managed"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("state.backend", StateBackendMemory)
	v.SetDefault("state.path", "./data/state.yaml")
	v.SetDefault("state.redis_addr", "localhost:6379")
	v.SetDefault("state.redis_db", 0)
	v.SetDefault("state.key_prefix", "environment")
	v.SetDefault("managed.path", "")
	v.SetDefault("managed.watch", false)
	v.SetDefault("diagnostics.buffer_size", 64)

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
		slog.Warn("config file not found, using defaults and environment variables")
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
		validation.Field(&c.State,
			validation.Required,
			validation.By(validateStateConfig),
		),
		validation.Field(&c.Managed,
			validation.By(func(value interface{}) error {
				mc, ok := value.(ManagedConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ManagedConfig")
				}
				if mc.Watch && mc.Path == "" {
					return validation.NewError("validation_watch_without_path", "managed config path is required when watch is enabled")
				}
				return nil
			}),
		),
		validation.Field(&c.Diagnostics,
			validation.Required,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DiagnosticsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DiagnosticsConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
	)
}

func validateStateConfig(value interface{}) error {
	sc, ok := value.(StateConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a StateConfig")
	}

	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Backend,
			validation.Required,
			validation.In(StateBackendMemory, StateBackendFile, StateBackendRedis),
		),
		validation.Field(&sc.Path,
			validation.When(sc.Backend == StateBackendFile, validation.Required),
		),
		validation.Field(&sc.RedisAddr,
			validation.When(sc.Backend == StateBackendRedis, validation.Required, validation.By(validateHostPort)),
		),
		validation.Field(&sc.RedisDB,
			validation.Min(0),
		),
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
