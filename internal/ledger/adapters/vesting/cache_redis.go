package vesting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"custody/internal/ledger/ports"
	"custody/pkg/domain"
)

var handleCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "custody_vesting_handle_cache_lookups_total",
	Help: "Vesting handle cache lookups by result (hit, miss, error)",
}, []string{"result"})

const (
	handleKeyPrefix = "custody:vesting:"
	defaultTTL      = 24 * time.Hour
)

// CachedRegistry remembers schedule handles in redis so repeated
// GetOrCreateVesting calls skip the registry. Handles never change for a given
// key, so a stale entry is still correct. Stake is passed through.
type CachedRegistry struct {
	inner  ports.VestingRegistry
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a CachedRegistry.
type CacheOption func(*CachedRegistry)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedRegistry) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedRegistry) {
		c.logger = logger
	}
}

// NewCachedRegistry wraps inner. A nil client disables caching.
func NewCachedRegistry(inner ports.VestingRegistry, client *redis.Client, opts ...CacheOption) *CachedRegistry {
	c := &CachedRegistry{
		inner:  inner,
		client: client,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedRegistry) GetOrCreateVesting(ctx context.Context, registry, owner domain.Address, cliff, duration time.Duration) (domain.Address, error) {
	if c.client == nil {
		return c.inner.GetOrCreateVesting(ctx, registry, owner, cliff, duration)
	}

	key := handleKey(registry, owner, cliff, duration)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && common.IsHexAddress(cached):
		handleCacheLookups.WithLabelValues("hit").Inc()
		return common.HexToAddress(cached), nil
	case err == nil, errors.Is(err, redis.Nil):
		handleCacheLookups.WithLabelValues("miss").Inc()
	default:
		handleCacheLookups.WithLabelValues("error").Inc()
		c.warn(ctx, "vesting handle cache read failed", key, err)
	}

	handle, err := c.inner.GetOrCreateVesting(ctx, registry, owner, cliff, duration)
	if err != nil {
		return domain.ZeroAddress, err
	}
	if err := c.client.Set(ctx, key, handle.Hex(), c.ttl).Err(); err != nil {
		c.warn(ctx, "vesting handle cache write failed", key, err)
	}
	return handle, nil
}

func (c *CachedRegistry) Stake(ctx context.Context, handle domain.Address, amount *big.Int) error {
	return c.inner.Stake(ctx, handle, amount)
}

func (c *CachedRegistry) warn(ctx context.Context, msg, key string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.WarnContext(ctx, msg, "key", key, "error", err)
}

func handleKey(registry, owner domain.Address, cliff, duration time.Duration) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", handleKeyPrefix, registry.Hex(), owner.Hex(),
		int64(cliff/time.Second), int64(duration/time.Second))
}
