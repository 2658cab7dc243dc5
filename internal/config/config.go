package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModeDebug   = "debug"
	ModeRelease = "release"
	ModeTest    = "test"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// ErrMissingBaseURL is returned when API_URL is not configured. The server
// must not start without it.
var ErrMissingBaseURL = errors.New("API_URL is not defined")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig describes the exchange-rate provider queried as
// <BaseURL>/<from>.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	// Endpoint of an OTLP/gRPC collector. Empty disables export.
	Endpoint    string `mapstructure:"endpoint"`
	Environment string `mapstructure:"environment"`
}

// Addr returns the listen address of the HTTP server.
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// env bindings: config key -> environment variable
var bindings = map[string]string{
	"server.host":             "HOST",
	"server.port":             "PORT",
	"server.mode":             "GIN_MODE",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"upstream.base_url":       "API_URL",
	"upstream.timeout":        "UPSTREAM_TIMEOUT",
	"logging.level":           "LOG_LEVEL",
	"logging.format":          "LOG_FORMAT",
	"tracing.endpoint":        "OTEL_EXPORTER_OTLP_ENDPOINT",
	"tracing.environment":     "ENVIRONMENT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", ModeDebug)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatJSON)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.environment", "development")
}

// Load reads the optional .env file from the working directory and then
// builds the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped,
// malformed ones fail. Variables already set in the environment win.
func LoadFiles(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate checks the configuration. A missing upstream base URL yields
// ErrMissingBaseURL so callers can tell it apart from other problems.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return ErrMissingBaseURL
	}

	return validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Port, validation.Required, validation.By(validatePort)),
			validation.Field(&c.Server.Mode, validation.Required, validation.In(ModeDebug, ModeRelease, ModeTest)),
			validation.Field(&c.Server.ReadTimeout, validation.Required, validation.Min(time.Duration(1))),
			validation.Field(&c.Server.WriteTimeout, validation.Required, validation.Min(time.Duration(1))),
			validation.Field(&c.Server.ShutdownTimeout, validation.Required, validation.Min(time.Duration(1))),
		),
		"upstream": validation.ValidateStruct(&c.Upstream,
			validation.Field(&c.Upstream.BaseURL, validation.Required, is.URL, validation.By(validateHTTPURL)),
			validation.Field(&c.Upstream.Timeout, validation.Required, validation.Min(time.Duration(1))),
		),
		"logging": validation.ValidateStruct(&c.Logging,
			validation.Field(&c.Logging.Level, validation.Required,
				validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
			validation.Field(&c.Logging.Format, validation.Required,
				validation.In(LogFormatJSON, LogFormatConsole)),
		),
	}.Filter()
}

func validatePort(value interface{}) error {
	s, _ := value.(string)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return validation.NewError("validation_invalid_port", "must be a port number between 1 and 65535")
	}
	return nil
}

func validateHTTPURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_invalid_base_url", "must be an absolute http(s) URL")
	}
	return nil
}
