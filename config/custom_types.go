/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes. In JSON and YAML it may be written
// either as an integer or as a human-readable string ("250M", "1Gi").
type ByteSize uint64

// TimeDuration is a time.Duration. In JSON and YAML it may be written
// either as an integer number of nanoseconds or as a string ("1h30m").
type TimeDuration time.Duration

// UnmarshalText is the base decoder, it is also used by mapstructure.TextUnmarshallerHookFunc.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := parseByteSizeFromString(string(text))
	if err == nil {
		*b = v
	}
	return err
}

func (b *ByteSize) UnmarshalJSON(data []byte) error {
	return b.UnmarshalText(unquoteJSON(data))
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	text, err := yamlScalar(value, "byte size")
	if err != nil {
		return err
	}
	return b.UnmarshalText(text)
}

func (b ByteSize) String() string {
	return bytefmt.ByteSize(uint64(b))
}

func (b ByteSize) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

func (b ByteSize) MarshalYAML() (interface{}, error) { return b.String(), nil }

// UnmarshalText is the base decoder, it is also used by mapstructure.TextUnmarshallerHookFunc.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	v, err := parseTimeDurationFromString(string(text))
	if err == nil {
		*d = v
	}
	return err
}

func (d *TimeDuration) UnmarshalJSON(data []byte) error {
	return d.UnmarshalText(unquoteJSON(data))
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	text, err := yamlScalar(value, "time duration")
	if err != nil {
		return err
	}
	return d.UnmarshalText(text)
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

func (d TimeDuration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d TimeDuration) MarshalYAML() (interface{}, error) { return d.String(), nil }

func unquoteJSON(data []byte) []byte {
	return []byte(strings.Trim(string(data), `"`))
}

func yamlScalar(value *yaml.Node, what string) ([]byte, error) {
	var s string
	if err := value.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", what, err)
	}
	return []byte(s), nil
}

// k8sByteSuffixes are power-of-two suffixes bytefmt understands without the trailing "i".
var k8sByteSuffixes = [...]string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"}

func parseByteSizeFromString(s string) (ByteSize, error) {
	v := strings.TrimSpace(s)
	if num, err := strconv.ParseInt(v, 10, 64); err == nil {
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", num)
		}
		return ByteSize(num), nil
	}
	for _, suffix := range k8sByteSuffixes {
		if strings.HasSuffix(v, suffix) {
			v = strings.TrimSuffix(v, "i")
			break
		}
	}
	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size format (%s): %w", s, err)
	}
	return ByteSize(num), nil
}

func parseTimeDurationFromString(s string) (TimeDuration, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err != nil:
		dur, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid time duration format (%s): %w", s, parseErr)
		}
		return TimeDuration(dur), nil
	case num < 0:
		return 0, fmt.Errorf("negative value is not allowed: %d", num)
	}
	return TimeDuration(num), nil
}
