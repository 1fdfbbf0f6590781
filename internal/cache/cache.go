package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sajmeister/aaplat/internal/storage"
	"github.com/sajmeister/aaplat/internal/types"
)

// CacheService wraps storage with Redis caching for the read-heavy
// marketplace paths. Writes go straight through to storage and bump the
// listing version so stale pages age out immediately.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	AgentKey          = "agent:%s"          // agent:agentID
	ListingKey        = "agents:list:%d:%s" // agents:list:version:queryFingerprint
	ListingVersionKey = "agents:list:version"
)

// Cache durations
const (
	AgentCacheDuration   = 10 * time.Minute // Individual agent records
	ListingCacheDuration = 45 * time.Second // Hot marketplace pages
)

type cachedPage struct {
	Agents []types.Agent `json:"agents"`
	Total  int           `json:"total"`
}

// listingFingerprint flattens a query into a stable cache key component
func listingFingerprint(q types.AgentQuery) string {
	isPublic := "any"
	if q.IsPublic != nil {
		isPublic = fmt.Sprintf("%t", *q.IsPublic)
	}
	return fmt.Sprintf("%d:%d:%s:%s:%s:%s:%s",
		q.Page, q.Limit, q.Category, q.Runtime, q.Search, q.UserID, isPublic)
}

// listingVersion returns the current listing generation. Missing key
// counts as generation zero.
func (c *CacheService) listingVersion(ctx context.Context) int64 {
	version, err := c.redis.Get(ctx, ListingVersionKey).Int64()
	if err != nil {
		return 0
	}
	return version
}

// ListAgents returns a cached listing page or fetches from storage
func (c *CacheService) ListAgents(ctx context.Context, q types.AgentQuery) ([]types.Agent, int, error) {
	key := fmt.Sprintf(ListingKey, c.listingVersion(ctx), listingFingerprint(q))

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var page cachedPage
		if err := json.Unmarshal([]byte(cached), &page); err == nil {
			return page.Agents, page.Total, nil
		}
	}

	agents, total, err := c.storage.ListAgents(q)
	if err != nil {
		return nil, 0, err
	}

	data, _ := json.Marshal(cachedPage{Agents: agents, Total: total})
	c.redis.Set(ctx, key, data, ListingCacheDuration)

	return agents, total, nil
}

// GetAgent returns a cached agent record or fetches from storage
func (c *CacheService) GetAgent(ctx context.Context, agentID string) (types.Agent, error) {
	key := fmt.Sprintf(AgentKey, agentID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var agent types.Agent
		if err := json.Unmarshal([]byte(cached), &agent); err == nil {
			return agent, nil
		}
	}

	agent, err := c.storage.GetAgentByID(agentID)
	if err != nil {
		return agent, err
	}

	data, _ := json.Marshal(agent)
	c.redis.Set(ctx, key, data, AgentCacheDuration)

	return agent, nil
}

// InvalidateListings advances the listing generation, orphaning every
// cached page. Orphaned keys expire on their own TTL.
func (c *CacheService) InvalidateListings(ctx context.Context) {
	c.redis.Incr(ctx, ListingVersionKey)
}

// InvalidateAgent clears the cached record for one agent
func (c *CacheService) InvalidateAgent(ctx context.Context, agentID string) {
	c.redis.Del(ctx, fmt.Sprintf(AgentKey, agentID))
}
