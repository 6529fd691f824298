/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the rate limited queue and its companions
// from files, readers and environment variables.
package config

// Config is implemented by every configuration object accepted by Loader.
// Loader first registers defaults, then reads the sources and finally calls Set,
// which must validate the values and return an error wrapped with the offending key.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is optionally implemented by a Config whose keys live under a common subtree.
type KeyPrefixProvider interface {
	KeyPrefix() string
}
