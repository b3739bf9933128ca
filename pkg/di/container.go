// Package di wires the cache layer together: durable store, codec, cache
// service and resource store. The container replaces the singletons of a
// naive design with explicitly constructed instances, so tests and multiple
// tenants get isolated cache stacks.
package di

import (
	"time"

	"go.uber.org/zap"

	"github.com/bytebank/go-finance-cache/cache"
	"github.com/bytebank/go-finance-cache/finance"
	"github.com/bytebank/go-finance-cache/internal/cacheinfra"
	"github.com/bytebank/go-finance-cache/internal/kvinfra"
	"github.com/bytebank/go-finance-cache/resourcestore"
)

// Container owns the cache stack for one composition root.
type Container struct {
	config    cache.Config
	service   cache.Service
	resources *resourcestore.Store
	logger    *zap.Logger
}

// Option customizes container construction.
type Option func(*settings)

type settings struct {
	logger *zap.Logger
	codec  cache.EntryCodec
	clock  func() time.Time
}

// WithLogger sets the logger shared by the cache service and resource
// store. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithCodec overrides the envelope codec (default cache.JSONCodec).
func WithCodec(codec cache.EntryCodec) Option {
	return func(s *settings) {
		s.codec = codec
	}
}

// WithClock overrides the time source for both layers.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// New builds a container from a configuration, a durable store and a
// remote source.
func New(cfg cache.Config, store cache.Store, remote finance.RemoteSource, opts ...Option) (*Container, error) {
	s := settings{
		logger: zap.NewNop(),
		codec:  cache.JSONCodec{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	service, err := cacheinfra.New(store, cfg, s.logger,
		cacheinfra.WithCodec(s.codec),
		cacheinfra.WithClock(s.clock),
	)
	if err != nil {
		return nil, err
	}

	resources, err := resourcestore.New(service, remote, cfg, s.logger,
		resourcestore.WithClock(s.clock),
	)
	if err != nil {
		return nil, err
	}

	return &Container{
		config:    cfg,
		service:   service,
		resources: resources,
		logger:    s.logger,
	}, nil
}

// NewWithDefaults builds a container with the default configuration and an
// in-process sturdyc-backed durable store. Convenient for tests and for
// deployments that do not need persistence across restarts.
func NewWithDefaults(remote finance.RemoteSource, opts ...Option) (*Container, error) {
	store, err := kvinfra.NewSturdycStore(kvinfra.DefaultMemoryConfig())
	if err != nil {
		return nil, err
	}
	return New(cache.DefaultConfig(), store, remote, opts...)
}

// CacheService returns the cache service instance.
func (c *Container) CacheService() cache.Service {
	return c.service
}

// Resources returns the resource store instance.
func (c *Container) Resources() *resourcestore.Store {
	return c.resources
}

// Config returns a copy of the configuration in use.
func (c *Container) Config() cache.Config {
	return c.config
}

// Logger returns the logger shared by the container's components.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
