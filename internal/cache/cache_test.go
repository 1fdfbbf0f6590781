package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/types/users"
)

type countingStorage struct {
	listCalls int
	getCalls  int
	agents    []types.Agent
}

func (s *countingStorage) CreateUser(string, string, string) (string, error) { return "", nil }
func (s *countingStorage) GetUserByEmail(string) (string, string, error) { return "", "", nil }
func (s *countingStorage) GetUserByID(string) (users.User, error) { return users.User{}, nil }
func (s *countingStorage) UpsertOAuthUser(users.Profile) (string, error) { return "", nil }
func (s *countingStorage) CreateAgent(a types.Agent) (types.Agent, error) { return a, nil }

func (s *countingStorage) GetAgentByID(id string) (types.Agent, error) {
	s.getCalls++
	return types.Agent{ID: id, Name: "cached"}, nil
}

func (s *countingStorage) ListAgents(types.AgentQuery) ([]types.Agent, int, error) {
	s.listCalls++
	return s.agents, len(s.agents), nil
}

func (s *countingStorage) IncrementDownloads(string) error { return nil }
func (s *countingStorage) ListAgentsCreatedBefore(time.Time) ([]types.Agent, error) {
	return nil, nil
}
func (s *countingStorage) CreateReview(types.AgentReview) (string, error)  { return "", nil }
func (s *countingStorage) ListReviews(string) ([]types.AgentReview, error) { return nil, nil }

func setupCache(t *testing.T) (*CacheService, *countingStorage) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := &countingStorage{agents: []types.Agent{{ID: "a1", Name: "Demo"}}}
	return NewCacheService(store, client), store
}

func TestListAgentsServesSecondReadFromCache(t *testing.T) {
	svc, store := setupCache(t)
	ctx := context.Background()
	q := types.AgentQuery{Page: 1, Limit: 10}

	agents, total, err := svc.ListAgents(ctx, q)
	if err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	if total != 1 || len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d (total %d)", len(agents), total)
	}

	if _, _, err := svc.ListAgents(ctx, q); err != nil {
		t.Fatalf("second list failed: %v", err)
	}

	if store.listCalls != 1 {
		t.Errorf("expected 1 storage call, got %d", store.listCalls)
	}
}

func TestDifferentQueriesGetDifferentCacheEntries(t *testing.T) {
	svc, store := setupCache(t)
	ctx := context.Background()

	svc.ListAgents(ctx, types.AgentQuery{Page: 1, Limit: 10})
	svc.ListAgents(ctx, types.AgentQuery{Page: 2, Limit: 10})

	if store.listCalls != 2 {
		t.Errorf("expected 2 storage calls for distinct pages, got %d", store.listCalls)
	}
}

func TestInvalidateListingsOrphansCachedPages(t *testing.T) {
	svc, store := setupCache(t)
	ctx := context.Background()
	q := types.AgentQuery{Page: 1, Limit: 10}

	svc.ListAgents(ctx, q)
	svc.InvalidateListings(ctx)
	svc.ListAgents(ctx, q)

	if store.listCalls != 2 {
		t.Errorf("expected cache miss after invalidation, got %d storage calls", store.listCalls)
	}
}

func TestGetAgentCachesAndInvalidates(t *testing.T) {
	svc, store := setupCache(t)
	ctx := context.Background()

	svc.GetAgent(ctx, "a1")
	svc.GetAgent(ctx, "a1")
	if store.getCalls != 1 {
		t.Errorf("expected 1 storage call, got %d", store.getCalls)
	}

	svc.InvalidateAgent(ctx, "a1")
	svc.GetAgent(ctx, "a1")
	if store.getCalls != 2 {
		t.Errorf("expected cache miss after invalidation, got %d storage calls", store.getCalls)
	}
}
