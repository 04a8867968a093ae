package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CampaignLocker serializes dispatch per campaign. Two triggers firing close
// together (launch + scheduler, or a resume racing a drip tick) must not both
// select the same pending recipients, or customers get double-sent.
type CampaignLocker interface {
	Acquire(ctx context.Context, campaignID uint) (bool, error)
	Release(ctx context.Context, campaignID uint)
}

// RedisCampaignLocker implements the lock with SETNX and a TTL so a crashed
// worker cannot wedge a campaign forever.
type RedisCampaignLocker struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCampaignLocker(client *redis.Client, ttl time.Duration) *RedisCampaignLocker {
	return &RedisCampaignLocker{Client: client, TTL: ttl}
}

func lockKey(campaignID uint) string {
	return fmt.Sprintf("campaign:dispatch:%d", campaignID)
}

func (l *RedisCampaignLocker) Acquire(ctx context.Context, campaignID uint) (bool, error) {
	return l.Client.SetNX(ctx, lockKey(campaignID), time.Now().UnixNano(), l.TTL).Result()
}

func (l *RedisCampaignLocker) Release(ctx context.Context, campaignID uint) {
	l.Client.Del(ctx, lockKey(campaignID))
}

var _ CampaignLocker = (*RedisCampaignLocker)(nil)

// MemoryLocker is the in-process fallback used in tests and when Redis is
// disabled in config. It only guards a single node.
type MemoryLocker struct {
	mu    sync.Mutex
	inUse map[uint]bool
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{inUse: make(map[uint]bool)}
}

func (l *MemoryLocker) Acquire(_ context.Context, campaignID uint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inUse[campaignID] {
		return false, nil
	}
	l.inUse[campaignID] = true
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, campaignID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inUse, campaignID)
}

var _ CampaignLocker = (*MemoryLocker)(nil)
