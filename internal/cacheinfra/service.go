// Package cacheinfra implements the cache service on top of a durable
// key-value store. Every operation is fail-soft: durable-store faults and
// corrupt entries are logged and degrade to cache misses, never to errors
// the caller has to handle.
package cacheinfra

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/bytebank/go-finance-cache/cache"
)

// Service implements cache.Service over a cache.Store.
type Service struct {
	store      cache.Store
	codec      cache.EntryCodec
	keys       cache.KeyBuilder
	defaultTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

var _ cache.Service = (*Service)(nil)

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source. Tests use this to cross TTL
// boundaries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCodec overrides the envelope codec. The default is cache.JSONCodec.
func WithCodec(codec cache.EntryCodec) Option {
	return func(s *Service) {
		s.codec = codec
	}
}

// New constructs a Service from the provided durable store and
// configuration. A nil logger is replaced with a no-op logger.
func New(store cache.Store, cfg cache.Config, log *zap.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		store:      store,
		codec:      cache.JSONCodec{},
		keys:       cfg.Keys(),
		defaultTTL: cfg.DefaultTTL,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Set implements cache.Service.Set. Failures are absorbed so a broken cache
// never breaks the read/write flow that called it.
func (s *Service) Set(ctx context.Context, key string, payload any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("cache set: marshal payload", zap.String("key", key), zap.Error(err))
		return
	}

	env := cache.Envelope{
		Data:      data,
		Timestamp: s.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	}
	value, err := s.codec.Encode(env)
	if err != nil {
		s.log.Warn("cache set: encode envelope", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.store.SetItem(ctx, key, value); err != nil {
		s.log.Warn("cache set: store write", zap.String("key", key), zap.Error(err))
	}
}

// Get implements cache.Service.Get. Expired entries are deleted on sight;
// values that fail to decode are deleted too, so a corrupt key heals itself.
func (s *Service) Get(ctx context.Context, key string, dest any) bool {
	value, ok, err := s.store.GetItem(ctx, key)
	if err != nil {
		s.log.Warn("cache get: store read", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	env, err := s.codec.Decode(value)
	if err != nil {
		s.log.Warn("cache get: corrupt entry, removing", zap.String("key", key), zap.Error(err))
		s.Remove(ctx, key)
		return false
	}

	if env.Expired(s.now()) {
		s.log.Debug("cache get: expired entry, removing",
			zap.String("key", key),
			zap.Duration("age", s.now().Sub(env.StoredAt())))
		s.Remove(ctx, key)
		return false
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		s.log.Warn("cache get: corrupt payload, removing", zap.String("key", key), zap.Error(err))
		s.Remove(ctx, key)
		return false
	}
	return true
}

// Peek implements cache.Service.Peek. Unlike Get it leaves expired entries
// in place so callers can serve them when the remote source is unreachable.
func (s *Service) Peek(ctx context.Context, key string, dest any) (hit, expired bool) {
	value, ok, err := s.store.GetItem(ctx, key)
	if err != nil {
		s.log.Warn("cache peek: store read", zap.String("key", key), zap.Error(err))
		return false, false
	}
	if !ok {
		return false, false
	}

	env, err := s.codec.Decode(value)
	if err != nil {
		s.log.Debug("cache peek: corrupt entry", zap.String("key", key), zap.Error(err))
		return false, false
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		s.log.Debug("cache peek: corrupt payload", zap.String("key", key), zap.Error(err))
		return false, false
	}
	return true, env.Expired(s.now())
}

// IsValid implements cache.Service.IsValid.
func (s *Service) IsValid(ctx context.Context, key string) bool {
	var raw json.RawMessage
	return s.Get(ctx, key, &raw)
}

// Remove implements cache.Service.Remove.
func (s *Service) Remove(ctx context.Context, key string) {
	if err := s.store.RemoveItem(ctx, key); err != nil {
		s.log.Warn("cache remove: store delete", zap.String("key", key), zap.Error(err))
	}
}

// Clear implements cache.Service.Clear. Only keys under the cache prefix are
// touched; other application state sharing the store survives.
func (s *Service) Clear(ctx context.Context) {
	keys, err := s.ownedKeys(ctx)
	if err != nil {
		s.log.Warn("cache clear: list keys", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.store.MultiRemove(ctx, keys); err != nil {
		s.log.Warn("cache clear: store delete", zap.Error(err))
		return
	}
	s.log.Debug("cache clear", zap.Int("removed", len(keys)))
}

// ClearOwner implements cache.Service.ClearOwner. The deletes are
// independent; a partial failure leaves entries that expire by TTL.
func (s *Service) ClearOwner(ctx context.Context, ownerID string) {
	keys := s.keys.OwnerKeys(ownerID)
	if err := s.store.MultiRemove(ctx, keys); err != nil {
		s.log.Warn("cache clear owner: store delete", zap.String("owner", ownerID), zap.Error(err))
		return
	}
	s.log.Debug("cache clear owner", zap.String("owner", ownerID), zap.Int("removed", len(keys)))
}

// ClearExpired implements cache.Service.ClearExpired.
func (s *Service) ClearExpired(ctx context.Context) {
	keys, err := s.ownedKeys(ctx)
	if err != nil {
		s.log.Warn("cache clear expired: list keys", zap.Error(err))
		return
	}

	removed := 0
	for _, key := range keys {
		value, ok, err := s.store.GetItem(ctx, key)
		if err != nil || !ok {
			continue
		}
		env, err := s.codec.Decode(value)
		if err == nil && !env.Expired(s.now()) {
			continue
		}
		s.Remove(ctx, key)
		removed++
	}
	if removed > 0 {
		s.log.Debug("cache clear expired", zap.Int("removed", removed))
	}
}

func (s *Service) ownedKeys(ctx context.Context) ([]string, error) {
	all, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var owned []string
	for _, key := range all {
		if s.keys.Owns(key) {
			owned = append(owned, key)
		}
	}
	return owned, nil
}
