/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPacerConfigYAML = `
pacer:
  rate: 25
  window: 250ms
  mode: Strict
`

type testPacerConfig struct {
	Rate   int
	Window time.Duration
	Mode   string

	keyPrefix string
}

func (c *testPacerConfig) KeyPrefix() string {
	return c.keyPrefix
}

func (c *testPacerConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("rate", 10)
	dp.SetDefault("window", "1s")
	dp.SetDefault("mode", "lazy")
}

func (c *testPacerConfig) Set(dp DataProvider) (err error) {
	if c.Rate, err = dp.GetInt("rate"); err != nil {
		return err
	}
	if c.Window, err = dp.GetDuration("window"); err != nil {
		return err
	}
	if c.Mode, err = dp.GetStringFromSet("mode", []string{"lazy", "strict"}, true); err != nil {
		return err
	}
	return nil
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("values from reader with key prefix", func(t *testing.T) {
		cfg := &testPacerConfig{keyPrefix: "pacer"}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(testPacerConfigYAML), DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 25, cfg.Rate)
		require.Equal(t, time.Millisecond*250, cfg.Window)
		require.Equal(t, "Strict", cfg.Mode)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := &testPacerConfig{keyPrefix: "other"}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(testPacerConfigYAML), DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Rate)
		require.Equal(t, time.Second, cfg.Window)
		require.Equal(t, "lazy", cfg.Mode)
	})

	t.Run("several configs", func(t *testing.T) {
		cfg1 := &testPacerConfig{keyPrefix: "pacer"}
		cfg2 := &testPacerConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"pacer":{"rate":3},"rate":4}`), DataTypeJSON, cfg1, cfg2)
		require.NoError(t, err)
		require.Equal(t, 3, cfg1.Rate)
		require.Equal(t, 4, cfg2.Rate)
	})

	t.Run("value out of set", func(t *testing.T) {
		cfg := &testPacerConfig{keyPrefix: "pacer"}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"pacer":{"mode":"eager"}}`), DataTypeJSON, cfg)
		require.EqualError(t, err, `pacer.mode: unknown value "eager", should be one of [lazy strict]`)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testPacerConfigYAML), 0o600))

	cfg := &testPacerConfig{keyPrefix: "pacer"}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(cfgPath, DataTypeYAML, cfg))
	require.Equal(t, 25, cfg.Rate)

	err := NewLoader(NewViperAdapter()).LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), DataTypeYAML, cfg)
	require.Error(t, err)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("RLQTEST_PACER_RATE", "42")
	t.Setenv("RLQTEST_PACER_WINDOW", "3s")

	cfg := &testPacerConfig{keyPrefix: "pacer"}
	require.NoError(t, NewDefaultLoader("rlqtest").LoadFromEnv(cfg))
	require.Equal(t, 42, cfg.Rate)
	require.Equal(t, time.Second*3, cfg.Window)
	require.Equal(t, "lazy", cfg.Mode)
}
