// Package config loads the client configuration from flags, environment and
// an optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/f3rmion/tau/identity"
	"github.com/f3rmion/tau/internal/logging"
	"github.com/f3rmion/tau/sequencer"
)

// EnvPrefix prefixes every environment variable, e.g. TAU_POLL_INTERVAL.
const EnvPrefix = "TAU"

// Keys, also used as flag names.
const (
	KeySequencerURL   = "sequencer-url"
	KeyPollInterval   = "poll-interval"
	KeyRequestTimeout = "request-timeout"
	KeyAbortTimeout   = "abort-timeout"
	KeyRequestRate    = "request-rate"
	KeyWorkers        = "workers"
	KeyGitHubAPIURL   = "github-api-url"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyMetricsAddr    = "metrics-addr"
)

// Config is the resolved client configuration.
type Config struct {
	SequencerURL   string        `mapstructure:"sequencer-url"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	AbortTimeout   time.Duration `mapstructure:"abort-timeout"`
	// RequestRate caps coordinator requests per second; 0 is unlimited.
	RequestRate float64 `mapstructure:"request-rate"`
	// Workers bounds the sub-ceremonies updated in parallel; 0 uses every CPU.
	Workers      int    `mapstructure:"workers"`
	GitHubAPIURL string `mapstructure:"github-api-url"`
	LogLevel     string `mapstructure:"log-level"`
	LogFormat    string `mapstructure:"log-format"`
	// MetricsAddr is the listen address of the metrics endpoint; empty disables it.
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		SequencerURL:   sequencer.DefaultURL,
		PollInterval:   4 * time.Second,
		RequestTimeout: 30 * time.Second,
		AbortTimeout:   10 * time.Second,
		Workers:        0,
		GitHubAPIURL:   identity.DefaultGitHubURL,
		LogLevel:       "info",
		LogFormat:      logging.FormatConsole,
	}
}

// RegisterFlags adds one flag per key to fs, with the defaults as values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeySequencerURL, d.SequencerURL, "ceremony coordinator base URL")
	fs.Duration(KeyPollInterval, d.PollInterval, "delay between lobby polls")
	fs.Duration(KeyRequestTimeout, d.RequestTimeout, "timeout of each coordinator request")
	fs.Duration(KeyAbortTimeout, d.AbortTimeout, "timeout of the abort notification")
	fs.Float64(KeyRequestRate, d.RequestRate, "maximum coordinator requests per second (0 = unlimited)")
	fs.Int(KeyWorkers, d.Workers, "sub-ceremonies updated in parallel (0 = number of CPUs)")
	fs.String(KeyGitHubAPIURL, d.GitHubAPIURL, "GitHub API base URL used to resolve handles")
	fs.String(KeyLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, d.LogFormat, "log format (console, json)")
	fs.String(KeyMetricsAddr, d.MetricsAddr, "serve Prometheus metrics on this address")
}

// Load resolves the configuration. Precedence, highest first: flags set on
// the command line, TAU_* environment variables, the config file (if file is
// not empty), defaults.
func Load(fs *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()
	d := Default()
	v.SetDefault(KeySequencerURL, d.SequencerURL)
	v.SetDefault(KeyPollInterval, d.PollInterval)
	v.SetDefault(KeyRequestTimeout, d.RequestTimeout)
	v.SetDefault(KeyAbortTimeout, d.AbortTimeout)
	v.SetDefault(KeyRequestRate, d.RequestRate)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyGitHubAPIURL, d.GitHubAPIURL)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyMetricsAddr, d.MetricsAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	var errs []error
	for key, raw := range map[string]string{KeySequencerURL: c.SequencerURL, KeyGitHubAPIURL: c.GitHubAPIURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: %q is not an http(s) URL", key, raw))
		}
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyPollInterval))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyRequestTimeout))
	}
	if c.AbortTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyAbortTimeout))
	}
	if c.RequestRate < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRequestRate))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyWorkers))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
