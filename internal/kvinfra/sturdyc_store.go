// Package kvinfra provides durable key-value store adapters behind the
// cache.Store interface: an in-process sturdyc-backed store and a Redis
// store.
package kvinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/bytebank/go-finance-cache/cache"
)

// MemoryConfig holds the configuration for the sturdyc-backed store.
type MemoryConfig struct {
	// Capacity defines the maximum number of entries the store holds.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0.
	NumShards int

	// RetentionTTL bounds how long an entry survives physically. Logical
	// expiry stays in the cache envelope, so this should comfortably exceed
	// the longest configured resource TTL.
	RetentionTTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict when
	// the store reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are collected.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultMemoryConfig returns a MemoryConfig with sensible defaults.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          64,
		RetentionTTL:       24 * time.Hour,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.RetentionTTL <= 0 {
		return &ConfigError{Field: "RetentionTTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycStore is an in-process cache.Store backed by a sturdyc client.
// It survives for the process lifetime only; use RedisStore when entries
// must outlive restarts.
type SturdycStore struct {
	client *sturdyc.Client[string]
}

var _ cache.Store = (*SturdycStore)(nil)

// NewSturdycStore creates a sturdyc-backed store from the provided
// configuration.
func NewSturdycStore(cfg MemoryConfig) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[string](
		cfg.Capacity,
		cfg.NumShards,
		cfg.RetentionTTL,
		cfg.EvictionPercentage,
		options...,
	)
	return &SturdycStore{client: client}, nil
}

// GetItem implements cache.Store.
func (s *SturdycStore) GetItem(_ context.Context, key string) (string, bool, error) {
	value, ok := s.client.Get(key)
	return value, ok, nil
}

// SetItem implements cache.Store.
func (s *SturdycStore) SetItem(_ context.Context, key, value string) error {
	s.client.Set(key, value)
	return nil
}

// RemoveItem implements cache.Store.
func (s *SturdycStore) RemoveItem(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// MultiRemove implements cache.Store.
func (s *SturdycStore) MultiRemove(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Keys implements cache.Store.
func (s *SturdycStore) Keys(_ context.Context) ([]string, error) {
	return s.client.ScanKeys(), nil
}
