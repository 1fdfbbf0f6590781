package cache

import (
	"context"
	"database/sql"

	"github.com/sajmeister/aaplat/internal/types"
)

// MarketplaceQuery serves the public marketplace landing page with a
// single joined query, avoiding a review-count lookup per agent.
type MarketplaceQuery struct {
	db *sql.DB
}

// NewMarketplaceQuery creates a new marketplace query service
func NewMarketplaceQuery(db *sql.DB) *MarketplaceQuery {
	return &MarketplaceQuery{db: db}
}

// TopPublicAgents returns the most-downloaded public agents together
// with their review counts.
func (mq *MarketplaceQuery) TopPublicAgents(ctx context.Context, limit int) ([]types.AgentWithStats, error) {
	query := `
	SELECT a.id, a.name, a.description, a.category, a.runtime, a.version, a.user_id,
		a.is_public, a.downloads, a.rating, a.created_at, a.updated_at,
		COUNT(r.id) AS review_count
	FROM agents a
	LEFT JOIN agent_reviews r ON r.agent_id = a.id
	WHERE a.is_public = TRUE
	GROUP BY a.id
	ORDER BY a.downloads DESC, a.rating DESC
	LIMIT $1
	`

	rows, err := mq.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []types.AgentWithStats{}
	for rows.Next() {
		var a types.AgentWithStats
		var description sql.NullString
		err := rows.Scan(&a.ID, &a.Name, &description, &a.Category, &a.Runtime,
			&a.Version, &a.UserID, &a.IsPublic, &a.Downloads, &a.Rating,
			&a.CreatedAt, &a.UpdatedAt, &a.ReviewCount)
		if err != nil {
			return nil, err
		}
		a.Description = description.String
		agents = append(agents, a)
	}

	return agents, rows.Err()
}
