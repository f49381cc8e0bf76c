package devicecache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/devicecache"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

type MemoryDeviceCacheSuite struct {
	suite.Suite
	ctx   context.Context
	cache *devicecache.Memory
}

func TestMemoryDeviceCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryDeviceCacheSuite))
}

func (s *MemoryDeviceCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = devicecache.NewMemory()
}

func (s *MemoryDeviceCacheSuite) TestRoundTripPerDevice() {
	first := domain.Selection{OrgID: "org_alpha", Location: domain.SingleLocation("loc_a1")}
	second := domain.Selection{OrgID: "org_beta", Location: domain.AllLocations()}

	s.Require().NoError(s.cache.Set(s.ctx, "dev_1", first))
	s.Require().NoError(s.cache.Set(s.ctx, "dev_2", second))

	got, err := s.cache.Get(s.ctx, "dev_1")
	s.Require().NoError(err)
	s.Equal(first, got)

	got, err = s.cache.Get(s.ctx, "dev_2")
	s.Require().NoError(err)
	s.Equal(second, got)
}

func (s *MemoryDeviceCacheSuite) TestMissMapsToSentinel() {
	_, err := s.cache.Get(s.ctx, "dev_unknown")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryDeviceCacheSuite) TestForget() {
	s.Require().NoError(s.cache.Set(s.ctx, "dev_1",
		domain.Selection{OrgID: "org_alpha", Location: domain.NoLocation()}))

	s.Require().NoError(s.cache.Forget(s.ctx, "dev_1"))

	_, err := s.cache.Get(s.ctx, "dev_1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.cache.Forget(s.ctx, "dev_1"))
}
