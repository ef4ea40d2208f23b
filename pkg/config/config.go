// Package config loads settings from flags, environment and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/adfinis/ocp-upgrade-path/pkg/cincinnati"
	"github.com/adfinis/ocp-upgrade-path/pkg/report"
	"github.com/adfinis/ocp-upgrade-path/pkg/utils"
)

// EnvPrefix prefixes every environment variable, e.g. OCP_UPGRADE_PATH_ARCH.
const EnvPrefix = "OCP_UPGRADE_PATH"

// Keys shared by flags, environment and config file.
const (
	KeyConfig    = "config"
	KeyArch      = "arch"
	KeyGraphURL  = "graph-url"
	KeyTimeout   = "timeout"
	KeyParallel  = "parallel"
	KeyQPS       = "qps"
	KeyOutput    = "output"
	KeyColor     = "color"
	KeyLogLevel  = "log-level"
	KeyFast      = "fast"
	KeyCandidate = "candidate"
	KeyEUS       = "eus"
)

// Config holds the resolved settings of one run.
type Config struct {
	Arch      string
	GraphURL  string
	Timeout   time.Duration
	Parallel  int
	QPS       float64
	Output    string
	Color     string
	LogLevel  string
	Fast      bool
	Candidate bool
	EUS       bool
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyArch, "amd64")
	v.SetDefault(KeyGraphURL, cincinnati.DefaultURL)
	v.SetDefault(KeyTimeout, cincinnati.DefaultTimeout)
	v.SetDefault(KeyParallel, 1)
	v.SetDefault(KeyQPS, 0.0)
	v.SetDefault(KeyOutput, report.FormatText)
	v.SetDefault(KeyColor, utils.ColorAuto)
	v.SetDefault(KeyLogLevel, log.WarnLevel.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file named by the "config" key and
// returns the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		log.Debugf("loaded config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Arch:      v.GetString(KeyArch),
		GraphURL:  v.GetString(KeyGraphURL),
		Timeout:   v.GetDuration(KeyTimeout),
		Parallel:  v.GetInt(KeyParallel),
		QPS:       v.GetFloat64(KeyQPS),
		Output:    v.GetString(KeyOutput),
		Color:     v.GetString(KeyColor),
		LogLevel:  v.GetString(KeyLogLevel),
		Fast:      v.GetBool(KeyFast),
		Candidate: v.GetBool(KeyCandidate),
		EUS:       v.GetBool(KeyEUS),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Arch == "" {
		result = multierror.Append(result, errors.New("arch must not be empty"))
	}
	if u, err := url.Parse(c.GraphURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("graph-url %q is not an absolute URL", c.GraphURL))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Parallel < 1 {
		result = multierror.Append(result, fmt.Errorf("parallel must be at least 1, got %d", c.Parallel))
	}
	if c.QPS < 0 {
		result = multierror.Append(result, fmt.Errorf("qps must not be negative, got %g", c.QPS))
	}
	if !slices.Contains(report.Formats, c.Output) {
		result = multierror.Append(result, fmt.Errorf("output %q is not one of %s", c.Output, strings.Join(report.Formats, ", ")))
	}
	if _, err := utils.UseColor(c.Color, nil); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
