/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import "io"

// Loader fills configuration objects from a DataProvider.
// Defaults of all objects are registered first, so values of one object may be read by another one.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a Loader backed by viper that also reads environment variables with the given prefix.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a Loader backed by the given DataProvider.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{DataProvider: dp}
}

// LoadFromFile reads the file and fills the configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	return l.loadAfter(func() error {
		return l.DataProvider.SetFromFile(path, dataType)
	}, cfg, cfgs)
}

// LoadFromReader reads all data from the reader and fills the configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	return l.loadAfter(func() error {
		return l.DataProvider.SetFromReader(reader, dataType)
	}, cfg, cfgs)
}

// LoadFromEnv fills the configuration objects using only defaults and environment variables
// (if the DataProvider reads them).
func (l *Loader) LoadFromEnv(cfg Config, cfgs ...Config) error {
	return l.loadAfter(nil, cfg, cfgs)
}

func (l *Loader) loadAfter(readData func() error, cfg Config, cfgs []Config) error {
	if readData != nil {
		if err := readData(); err != nil {
			return err
		}
	}

	all := append([]Config{cfg}, cfgs...)
	providers := make([]DataProvider, len(all))
	for i, c := range all {
		providers[i] = l.providerFor(c)
		c.SetProviderDefaults(providers[i])
	}
	for i, c := range all {
		if err := c.Set(providers[i]); err != nil {
			return err
		}
	}
	return nil
}

// providerFor scopes the DataProvider to the key prefix of the configuration object, if it has one.
func (l *Loader) providerFor(cfg Config) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok {
		if prefix := kp.KeyPrefix(); prefix != "" {
			return NewKeyPrefixedDataProvider(l.DataProvider, prefix)
		}
	}
	return l.DataProvider
}
