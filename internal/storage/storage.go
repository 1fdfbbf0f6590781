package storage

import (
	"time"

	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/types/users"
)

type Storage interface {
	CreateUser(email, passwordHash, name string) (string, error)
	GetUserByEmail(email string) (string, string, error)
	GetUserByID(id string) (users.User, error)
	UpsertOAuthUser(profile users.Profile) (string, error)

	CreateAgent(agent types.Agent) (types.Agent, error)
	GetAgentByID(id string) (types.Agent, error)
	ListAgents(query types.AgentQuery) ([]types.Agent, int, error)
	IncrementDownloads(agentID string) error
	ListAgentsCreatedBefore(cutoff time.Time) ([]types.Agent, error)

	CreateReview(review types.AgentReview) (string, error)
	ListReviews(agentID string) ([]types.AgentReview, error)
}
