// Package client is the Go client library for the agent platform API.
// The platform's own tooling (agentctl) uses it to stage and submit
// agents the same way the web dashboard does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/sajmeister/aaplat/internal/types"
)

// Client talks to one agent platform deployment on behalf of one user
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// UploadOutcome is the decoded body of an upload response. The request
// can succeed while nothing was persisted; callers must check the flags.
type UploadOutcome struct {
	AgentID           string             `json:"agent_id"`
	Files             types.UploadResult `json:"files"`
	StorageConfigured bool               `json:"storage_configured"`
	UploadError       string             `json:"upload_error,omitempty"`
	Message           string             `json:"-"`
}

// CreateAgent creates the agent record
func (c *Client) CreateAgent(ctx context.Context, req types.CreateAgentRequest) (types.Agent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.Agent{}, fmt.Errorf("failed to encode agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agents", bytes.NewReader(body))
	if err != nil {
		return types.Agent{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.Agent{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Agent{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return types.Agent{}, fmt.Errorf("%s", extractError(respBody, "Failed to create agent. Please try again."))
	}

	var agent types.Agent
	if err := json.Unmarshal(respBody, &agent); err != nil {
		return types.Agent{}, fmt.Errorf("failed to parse agent response: %w", err)
	}

	return agent, nil
}

// UploadFiles posts every staged file in one multipart request tagged
// with the agent ID. File parts are keyed by their original filename.
func (c *Client) UploadFiles(ctx context.Context, agentID string, files []StagedFile) (UploadOutcome, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("agentId", agentID); err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Name, file.Name))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}

		part, err := writer.CreatePart(header)
		if err != nil {
			return UploadOutcome{}, fmt.Errorf("failed to build upload form: %w", err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return UploadOutcome{}, fmt.Errorf("failed to build upload form: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agents/upload", &buf)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return UploadOutcome{}, fmt.Errorf("%s", extractError(respBody, "Failed to upload agent files. Please try again."))
	}

	var envelope struct {
		Message string        `json:"message"`
		Data    UploadOutcome `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to parse upload response: %w", err)
	}

	outcome := envelope.Data
	outcome.Message = envelope.Message
	return outcome, nil
}

// extractError pulls the most specific failure message out of an API
// reply: the envelope's error field first, then its message, then the
// caller's fallback.
func extractError(body []byte, fallback string) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fallback
}
