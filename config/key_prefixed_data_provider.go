/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"io"
	"strings"
	"time"
)

// KeyPrefixedDataProvider scopes a DataProvider to a subtree.
// With prefix "ratelimitqueue", key "rate" is looked up as "ratelimitqueue.rate".
// File and reader sources are loaded into the delegate as is.
type KeyPrefixedDataProvider struct {
	delegate  DataProvider
	keyPrefix string
}

var _ DataProvider = (*KeyPrefixedDataProvider)(nil)

// NewKeyPrefixedDataProvider creates a new KeyPrefixedDataProvider.
func NewKeyPrefixedDataProvider(delegate DataProvider, keyPrefix string) *KeyPrefixedDataProvider {
	return &KeyPrefixedDataProvider{delegate: delegate, keyPrefix: keyPrefix}
}

// fullKey joins prefix and key, an empty prefix yields the key itself.
func (p *KeyPrefixedDataProvider) fullKey(key string) string {
	if p.keyPrefix == "" {
		return key
	}
	if key == "" {
		return p.keyPrefix
	}
	return strings.TrimSuffix(p.keyPrefix, ".") + "." + key
}

func (p *KeyPrefixedDataProvider) UseEnvVars(prefix string) { p.delegate.UseEnvVars(prefix) }

func (p *KeyPrefixedDataProvider) SetFromFile(path string, dataType DataType) error {
	return p.delegate.SetFromFile(path, dataType)
}

func (p *KeyPrefixedDataProvider) SetFromReader(reader io.Reader, dataType DataType) error {
	return p.delegate.SetFromReader(reader, dataType)
}

func (p *KeyPrefixedDataProvider) Set(key string, value interface{}) {
	p.delegate.Set(p.fullKey(key), value)
}

func (p *KeyPrefixedDataProvider) SetDefault(key string, value interface{}) {
	p.delegate.SetDefault(p.fullKey(key), value)
}

func (p *KeyPrefixedDataProvider) IsSet(key string) bool { return p.delegate.IsSet(p.fullKey(key)) }

func (p *KeyPrefixedDataProvider) Get(key string) interface{} { return p.delegate.Get(p.fullKey(key)) }

func (p *KeyPrefixedDataProvider) GetBool(key string) (bool, error) {
	return p.delegate.GetBool(p.fullKey(key))
}

func (p *KeyPrefixedDataProvider) GetInt(key string) (int, error) {
	return p.delegate.GetInt(p.fullKey(key))
}

func (p *KeyPrefixedDataProvider) GetString(key string) (string, error) {
	return p.delegate.GetString(p.fullKey(key))
}

func (p *KeyPrefixedDataProvider) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	return p.delegate.GetStringFromSet(p.fullKey(key), set, ignoreCase)
}

func (p *KeyPrefixedDataProvider) GetDuration(key string) (time.Duration, error) {
	return p.delegate.GetDuration(p.fullKey(key))
}

func (p *KeyPrefixedDataProvider) GetByteSize(key string) (ByteSize, error) {
	return p.delegate.GetByteSize(p.fullKey(key))
}

func (p *KeyPrefixedDataProvider) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	return p.delegate.UnmarshalKey(p.fullKey(key), rawVal, opts...)
}

func (p *KeyPrefixedDataProvider) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(p.fullKey(key), err)
}
