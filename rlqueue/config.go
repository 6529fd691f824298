/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"fmt"
	"time"

	"github.com/acronis/go-ratelimitqueue/config"
)

const cfgDefaultKeyPrefix = "rateLimitQueue"

const (
	cfgKeyRate            = "rate"
	cfgKeyInterval        = "interval"
	cfgKeyInitialCapacity = "initialCapacity"
)

// Default values.
const (
	DefaultRate     = 100
	DefaultInterval = time.Second
)

// Config represents a set of configuration parameters for the rate limited queue.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// Rate is the maximum number of items released per interval. Zero means that no item is ever released.
	Rate int `mapstructure:"rate" yaml:"rate" json:"rate"`

	// Interval is the length of the rate limiting window.
	Interval config.TimeDuration `mapstructure:"interval" yaml:"interval" json:"interval"`

	// InitialCapacity is a hint for the backing storage about the expected number of items.
	InitialCapacity int `mapstructure:"initialCapacity" yaml:"initialCapacity" json:"initialCapacity"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Rate = DefaultRate
	cfg.Interval = config.TimeDuration(DefaultInterval)
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the queue in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyRate, DefaultRate)
	dp.SetDefault(cfgKeyInterval, DefaultInterval.String())
	dp.SetDefault(cfgKeyInitialCapacity, 0)
}

// Set sets the queue configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	rate, err := dp.GetInt(cfgKeyRate)
	if err != nil {
		return err
	}
	if rate < 0 {
		return dp.WrapKeyErr(cfgKeyRate, fmt.Errorf("must be greater or equal to 0, got %d", rate))
	}

	interval, err := dp.GetDuration(cfgKeyInterval)
	if err != nil {
		return err
	}
	if interval < 0 {
		return dp.WrapKeyErr(cfgKeyInterval, fmt.Errorf("must be greater or equal to 0, got %s", interval))
	}

	initialCapacity, err := dp.GetInt(cfgKeyInitialCapacity)
	if err != nil {
		return err
	}
	if initialCapacity < 0 {
		return dp.WrapKeyErr(cfgKeyInitialCapacity, fmt.Errorf("must be greater or equal to 0, got %d", initialCapacity))
	}

	c.Rate = rate
	c.Interval = config.TimeDuration(interval)
	c.InitialCapacity = initialCapacity
	return nil
}
