/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter implements DataProvider on top of a private viper instance.
// Values are converted with spf13/cast, so "10", 10 and 10.0 are all valid integers.
type ViperAdapter struct {
	v *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{v: viper.New()}
}

// UseEnvVars makes environment variables take precedence over files and defaults.
// With prefix "rlq", key "ratelimitqueue.rate" is read from RLQ_RATELIMITQUEUE_RATE.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.v.SetEnvPrefix(prefix)
	va.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.v.AutomaticEnv()
}

func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.v.SetConfigFile(path)
	va.v.SetConfigType(string(dataType))
	return va.v.ReadInConfig()
}

func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.v.SetConfigType(string(dataType))
	return va.v.ReadConfig(reader)
}

func (va *ViperAdapter) Set(key string, value interface{}) { va.v.Set(key, value) }

// SetDefault is used only when neither the sources nor the environment provide the key.
func (va *ViperAdapter) SetDefault(key string, value interface{}) { va.v.SetDefault(key, value) }

func (va *ViperAdapter) IsSet(key string) bool { return va.v.IsSet(key) }

func (va *ViperAdapter) Get(key string) interface{} { return va.v.Get(key) }

func (va *ViperAdapter) GetInt(key string) (int, error) { return castKey(va, key, cast.ToIntE) }

func (va *ViperAdapter) GetString(key string) (string, error) { return castKey(va, key, cast.ToStringE) }

func (va *ViperAdapter) GetBool(key string) (bool, error) { return castKey(va, key, cast.ToBoolE) }

// GetDuration treats integers as nanoseconds and parses strings with time.ParseDuration.
// A missing key yields zero.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	if va.Get(key) == nil {
		return 0, nil
	}
	return castKey(va, key, cast.ToDurationE)
}

func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	val, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for i := range set {
		if val == set[i] || (ignoreCase && strings.EqualFold(val, set[i])) {
			return val, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", val, set))
}

// GetByteSize accepts both integers and human-readable strings like "250M" or "1Gi".
func (va *ViperAdapter) GetByteSize(key string) (ByteSize, error) {
	raw := va.Get(key)
	if raw == nil {
		return 0, nil
	}
	if bs, ok := raw.(ByteSize); ok {
		return bs, nil
	}
	if s, ok := raw.(string); ok {
		bs, err := parseByteSizeFromString(s)
		return bs, WrapKeyErrIfNeeded(key, err)
	}
	num, err := cast.ToInt64E(raw)
	if err == nil && num < 0 {
		err = fmt.Errorf("negative value is not allowed: %d", num)
	}
	if err != nil {
		return 0, WrapKeyErr(key, err)
	}
	return ByteSize(num), nil
}

// UnmarshalKey decodes the key subtree into rawVal.
// Fields implementing encoding.TextUnmarshaler (TimeDuration, ByteSize) are decoded from strings.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	decodeOpts := make([]viper.DecoderConfigOption, 0, len(opts)+1)
	decodeOpts = append(decodeOpts, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	for _, opt := range opts {
		decodeOpts = append(decodeOpts, viper.DecoderConfigOption(opt))
	}
	return WrapKeyErrIfNeeded(key, va.v.UnmarshalKey(key, rawVal, decodeOpts...))
}

func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}

func castKey[T any](va *ViperAdapter, key string, castFn func(interface{}) (T, error)) (T, error) {
	res, err := castFn(va.Get(key))
	return res, WrapKeyErrIfNeeded(key, err)
}
