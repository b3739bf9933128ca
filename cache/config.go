package cache

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultPrefix namespaces every cache key inside the shared durable store.
const DefaultPrefix = "@ByteBank:cache:"

// TTLConfig carries the time-to-live for each resource kind.
type TTLConfig struct {
	// Transactions change frequently; keep them hot for a short window only.
	Transactions time.Duration

	// Summary is derived from transactions and the account balance.
	Summary time.Duration

	// MonthlySummaries is a slow-changing aggregate.
	MonthlySummaries time.Duration

	// TransactionByID covers individual transaction lookups.
	TransactionByID time.Duration

	// UserProfile is the slowest-changing resource.
	UserProfile time.Duration
}

// For returns the configured TTL for a resource kind, or zero for an
// unknown kind (callers fall back to the default TTL).
func (t TTLConfig) For(kind Kind) time.Duration {
	switch kind {
	case KindTransactions:
		return t.Transactions
	case KindSummary:
		return t.Summary
	case KindMonthlySummaries:
		return t.MonthlySummaries
	case KindTransactionByID:
		return t.TransactionByID
	case KindUserProfile:
		return t.UserProfile
	default:
		return 0
	}
}

// Validate checks that every kind has a positive TTL.
func (t TTLConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Transactions, validation.By(positiveDuration)),
		validation.Field(&t.Summary, validation.By(positiveDuration)),
		validation.Field(&t.MonthlySummaries, validation.By(positiveDuration)),
		validation.Field(&t.TransactionByID, validation.By(positiveDuration)),
		validation.Field(&t.UserProfile, validation.By(positiveDuration)),
	)
}

// Config exposes the cache configuration surface: key prefix, per-kind TTLs
// and the fetch de-duplication window.
type Config struct {
	// Prefix is the global key prefix shared by every cache entry.
	Prefix string

	// DefaultTTL applies when Set is called without an explicit TTL.
	DefaultTTL time.Duration

	// TTL holds the per-resource-kind expiry durations.
	TTL TTLConfig

	// DebounceWindow suppresses repeat fetches for the same (kind, owner)
	// pair that complete within this window.
	DebounceWindow time.Duration
}

// DefaultConfig returns a Config populated with the application defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:     DefaultPrefix,
		DefaultTTL: 10 * time.Second,
		TTL: TTLConfig{
			Transactions:     10 * time.Second,
			Summary:          2 * time.Minute,
			MonthlySummaries: 10 * time.Minute,
			TransactionByID:  5 * time.Minute,
			UserProfile:      15 * time.Minute,
		},
		DebounceWindow: 2 * time.Second,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Prefix, validation.Required),
		validation.Field(&c.DefaultTTL, validation.By(positiveDuration)),
		validation.Field(&c.TTL),
		validation.Field(&c.DebounceWindow, validation.By(nonNegativeDuration)),
	)
}

// Keys returns the key builder for this configuration's prefix.
func (c Config) Keys() KeyBuilder {
	return NewKeyBuilder(c.Prefix)
}

func positiveDuration(value any) error {
	d, ok := value.(time.Duration)
	if !ok || d <= 0 {
		return errors.New("must be a positive duration")
	}
	return nil
}

func nonNegativeDuration(value any) error {
	d, ok := value.(time.Duration)
	if !ok || d < 0 {
		return errors.New("must be a non-negative duration")
	}
	return nil
}
