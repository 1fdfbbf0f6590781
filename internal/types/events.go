package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventAgentCreated  EventType = "agent.created"
	EventFilesUploaded EventType = "agent.files_uploaded"
	EventAgentReviewed EventType = "agent.reviewed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// AgentCreatedEvent is sent to the owner's dashboard when a record is created
type AgentCreatedEvent struct {
	AgentID string  `json:"agent_id"`
	Name    string  `json:"name"`
	Runtime Runtime `json:"runtime"`
}

// FilesUploadedEvent is sent when agent files land in object storage
type FilesUploadedEvent struct {
	AgentID   string `json:"agent_id"`
	FileCount int    `json:"file_count"`
	Persisted bool   `json:"persisted"`
}

// AgentReviewedEvent is sent to the agent owner when someone leaves a review
type AgentReviewedEvent struct {
	AgentID    string `json:"agent_id"`
	ReviewerID string `json:"reviewer_id"`
	Rating     int    `json:"rating"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
