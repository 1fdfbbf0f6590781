package events

import (
	"github.com/sajmeister/aaplat/internal/types"
)

// Publisher interface for publishing dashboard events
type Publisher interface {
	PublishAgentCreated(agent types.Agent)
	PublishFilesUploaded(ownerID, agentID string, fileCount int, persisted bool)
	PublishAgentReviewed(agentID, reviewerID, ownerID string, rating int)
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishAgentCreated notifies the owner's dashboard about a new record
func (p *EventPublisher) PublishAgentCreated(agent types.Agent) {
	if !p.hub.IsUserConnected(agent.UserID) {
		return
	}

	event := types.NewEvent(types.EventAgentCreated, &types.AgentCreatedEvent{
		AgentID: agent.ID,
		Name:    agent.Name,
		Runtime: agent.Runtime,
	})
	p.hub.BroadcastToUser(agent.UserID, event)
}

// PublishFilesUploaded notifies the owner when an upload batch completes.
// Persisted is false when storage was unconfigured or the placement failed.
func (p *EventPublisher) PublishFilesUploaded(ownerID, agentID string, fileCount int, persisted bool) {
	if !p.hub.IsUserConnected(ownerID) {
		return
	}

	event := types.NewEvent(types.EventFilesUploaded, &types.FilesUploadedEvent{
		AgentID:   agentID,
		FileCount: fileCount,
		Persisted: persisted,
	})
	p.hub.BroadcastToUser(ownerID, event)
}

// PublishAgentReviewed notifies the agent owner about a new review
func (p *EventPublisher) PublishAgentReviewed(agentID, reviewerID, ownerID string, rating int) {
	// Reviewing your own agent makes no notification
	if reviewerID == ownerID {
		return
	}

	if !p.hub.IsUserConnected(ownerID) {
		return
	}

	event := types.NewEvent(types.EventAgentReviewed, &types.AgentReviewedEvent{
		AgentID:    agentID,
		ReviewerID: reviewerID,
		Rating:     rating,
	})
	p.hub.BroadcastToUser(ownerID, event)
}
