//go:build integration

package vesting_test

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"custody/internal/ledger/adapters/token"
	"custody/internal/ledger/adapters/vesting"
	"custody/internal/ledger/models"
	"custody/pkg/domain"
	"custody/pkg/testutil/containers"
)

// countingRegistry counts calls that reach the wrapped registry.
type countingRegistry struct {
	*vesting.Registry
	creates atomic.Int32
}

func (c *countingRegistry) GetOrCreateVesting(ctx context.Context, registry, owner domain.Address, cliff, duration time.Duration) (domain.Address, error) {
	c.creates.Add(1)
	return c.Registry.GetOrCreateVesting(ctx, registry, owner, cliff, duration)
}

type CachedRegistrySuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	inner  *countingRegistry
	cached *vesting.CachedRegistry
}

func TestCachedRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedRegistrySuite))
}

func (s *CachedRegistrySuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedRegistrySuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	custody := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	s.inner = &countingRegistry{Registry: vesting.NewRegistry(token.NewLedger(), custody)}
	s.cached = vesting.NewCachedRegistry(s.inner, s.redis.Client, vesting.WithTTL(time.Minute))
}

func (s *CachedRegistrySuite) TestSecondLookupIsServedFromRedis() {
	ctx := context.Background()
	registry := common.HexToAddress("0x0000000000000000000000000000000000000071")
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	first, err := s.cached.GetOrCreateVesting(ctx, registry, owner, models.Interval, 3*models.Interval)
	s.Require().NoError(err)
	second, err := s.cached.GetOrCreateVesting(ctx, registry, owner, models.Interval, 3*models.Interval)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), s.inner.creates.Load())

	ttl, err := s.redis.Client.TTL(ctx, "custody:vesting:"+registry.Hex()+":"+owner.Hex()+":2419200:7257600").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *CachedRegistrySuite) TestCorruptEntryFallsBackToRegistry() {
	ctx := context.Background()
	registry := common.HexToAddress("0x0000000000000000000000000000000000000071")
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a2")
	key := "custody:vesting:" + registry.Hex() + ":" + owner.Hex() + ":0:2419200"
	s.Require().NoError(s.redis.Client.Set(ctx, key, "garbage", time.Minute).Err())

	handle, err := s.cached.GetOrCreateVesting(ctx, registry, owner, 0, models.Interval)
	s.Require().NoError(err)
	s.Equal(vesting.DeriveHandle(registry, owner, 0, models.Interval), handle)

	stored, err := s.redis.Client.Get(ctx, key).Result()
	s.Require().NoError(err)
	s.Equal(handle.Hex(), stored)
}

func (s *CachedRegistrySuite) TestStakeIsNotCached() {
	err := s.cached.Stake(context.Background(), common.HexToAddress("0x01"), big.NewInt(1))
	s.Require().ErrorIs(err, vesting.ErrUnknownHandle)
}
