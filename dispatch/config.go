/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dispatch

import (
	"fmt"
	"time"

	"github.com/acronis/go-ratelimitqueue/config"
	"github.com/acronis/go-ratelimitqueue/retry"
)

const cfgDefaultKeyPrefix = "dispatch"

const (
	cfgKeyRetryPolicy      = "retry.policy"
	cfgKeyRetryInterval    = "retry.interval"
	cfgKeyRetryMaxAttempts = "retry.maxAttempts"
	cfgKeyIdlePollInterval = "idlePollInterval"
	cfgKeyLogEvery         = "logEvery"
)

// Default values.
const (
	DefaultRetryInterval    = 100 * time.Millisecond
	DefaultRetryMaxAttempts = 3
	DefaultIdlePollInterval = time.Second
)

var availableRetryPolicies = []string{
	string(retry.PolicyNameNone), string(retry.PolicyNameConstant), string(retry.PolicyNameExponential),
}

// RetryConfig represents a retry policy for failed handler calls.
type RetryConfig struct {
	Policy      retry.PolicyName    `mapstructure:"policy" yaml:"policy" json:"policy"`
	Interval    config.TimeDuration `mapstructure:"interval" yaml:"interval" json:"interval"`
	MaxAttempts int                 `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
}

// Config represents a set of configuration parameters for Dispatcher.
type Config struct {
	Retry RetryConfig `mapstructure:"retry" yaml:"retry" json:"retry"`

	// IdlePollInterval is the longest time the dispatcher sleeps on the empty queue without being notified.
	IdlePollInterval config.TimeDuration `mapstructure:"idlePollInterval" yaml:"idlePollInterval" json:"idlePollInterval"`

	// LogEvery enables a progress log entry per every LogEvery handled items. Zero disables it.
	LogEvery int `mapstructure:"logEvery" yaml:"logEvery" json:"logEvery"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("dispatch" if empty).
func NewConfig(keyPrefix string) *Config {
	if keyPrefix == "" {
		keyPrefix = cfgDefaultKeyPrefix
	}
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix: cfgDefaultKeyPrefix,
		Retry: RetryConfig{
			Policy:      retry.PolicyNameNone,
			Interval:    config.TimeDuration(DefaultRetryInterval),
			MaxAttempts: DefaultRetryMaxAttempts,
		},
		IdlePollInterval: config.TimeDuration(DefaultIdlePollInterval),
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for Dispatcher in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyRetryPolicy, string(retry.PolicyNameNone))
	dp.SetDefault(cfgKeyRetryInterval, DefaultRetryInterval.String())
	dp.SetDefault(cfgKeyRetryMaxAttempts, DefaultRetryMaxAttempts)
	dp.SetDefault(cfgKeyIdlePollInterval, DefaultIdlePollInterval.String())
	dp.SetDefault(cfgKeyLogEvery, 0)
}

// Set sets Dispatcher configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	policy, err := dp.GetStringFromSet(cfgKeyRetryPolicy, availableRetryPolicies, false)
	if err != nil {
		return err
	}
	c.Retry.Policy = retry.PolicyName(policy)

	retryInterval, err := dp.GetDuration(cfgKeyRetryInterval)
	if err != nil {
		return err
	}
	if retryInterval < 0 {
		return dp.WrapKeyErr(cfgKeyRetryInterval, fmt.Errorf("must be greater or equal to 0, got %s", retryInterval))
	}
	c.Retry.Interval = config.TimeDuration(retryInterval)

	if c.Retry.MaxAttempts, err = dp.GetInt(cfgKeyRetryMaxAttempts); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetryMaxAttempts, fmt.Errorf("must be greater or equal to 0, got %d", c.Retry.MaxAttempts))
	}

	idlePollInterval, err := dp.GetDuration(cfgKeyIdlePollInterval)
	if err != nil {
		return err
	}
	if idlePollInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyIdlePollInterval, fmt.Errorf("must be greater than 0, got %s", idlePollInterval))
	}
	c.IdlePollInterval = config.TimeDuration(idlePollInterval)

	if c.LogEvery, err = dp.GetInt(cfgKeyLogEvery); err != nil {
		return err
	}
	if c.LogEvery < 0 {
		return dp.WrapKeyErr(cfgKeyLogEvery, fmt.Errorf("must be greater or equal to 0, got %d", c.LogEvery))
	}
	return nil
}

// RetryPolicy builds the retry policy described by the configuration.
func (c *Config) RetryPolicy() (retry.Policy, error) {
	return retry.NewPolicy(c.Retry.Policy, time.Duration(c.Retry.Interval), c.Retry.MaxAttempts)
}
