package agents

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sajmeister/aaplat/internal/cache"
	"github.com/sajmeister/aaplat/internal/events"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/storage"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newAgentID generates an identifier of the form agent_<epoch-ms>_<random>
func newAgentID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("agent_%d_%s", time.Now().UnixMilli(), suffix)
}

// CreateAgent handles creating a new agent record
// @Summary Create a new agent
// @Description Create a new agent record; files are uploaded separately
// @Tags agents
// @Accept json
// @Produce json
// @Param agent body types.CreateAgentRequest true "Agent details"
// @Success 201 {object} types.Agent "Agent created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /agents [post]
func CreateAgent(storage storage.Storage, cacheService *cache.CacheService, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
				errors.New("user not authenticated"), response.CodeAuthRequired))
			return
		}

		var req types.CreateAgentRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		version := req.Version
		if version == "" {
			version = "1.0.0"
		}

		agent := types.Agent{
			ID:            newAgentID(),
			Name:          req.Name,
			Description:   req.Description,
			Category:      req.Category,
			Runtime:       req.Runtime,
			Version:       version,
			UserID:        userID,
			DockerImage:   req.DockerImage,
			SourceCodeURL: req.SourceCodeURL,
			ConfigSchema:  req.ConfigSchema,
			IsPublic:      req.IsPublic,
		}

		created, err := storage.CreateAgent(agent)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create agent")))
			return
		}
		slog.Info("Agent created", slog.String("agent_id", created.ID), slog.String("user_id", userID))

		cacheService.InvalidateListings(r.Context())
		publisher.PublishAgentCreated(created)

		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// parseQuery extracts listing filters with the documented defaults
func parseQuery(r *http.Request) types.AgentQuery {
	q := types.AgentQuery{Page: 1, Limit: 10}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page >= 1 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 1 {
		if limit > 100 {
			limit = 100
		}
		q.Limit = limit
	}

	q.Category = types.AgentCategory(r.URL.Query().Get("category"))
	q.Runtime = types.Runtime(r.URL.Query().Get("runtime"))
	q.Search = r.URL.Query().Get("search")
	q.UserID = r.URL.Query().Get("userId")

	if raw := r.URL.Query().Get("isPublic"); raw != "" {
		if isPublic, err := strconv.ParseBool(raw); err == nil {
			q.IsPublic = &isPublic
		}
	}

	return q
}

func buildPage(agents []types.Agent, q types.AgentQuery, total int) types.AgentPage {
	totalPages := (total + q.Limit - 1) / q.Limit

	return types.AgentPage{
		Agents: agents,
		Pagination: types.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    q.Page < totalPages,
			HasPrev:    q.Page > 1,
		},
	}
}

// ListAgents handles the agent listing endpoint
// @Summary List agents
// @Description List agents with filtering and pagination
// @Tags agents
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Param category query string false "Filter by category"
// @Param runtime query string false "Filter by runtime"
// @Param search query string false "Search in name and description"
// @Param userId query string false "Filter by owner"
// @Param isPublic query bool false "Filter by visibility"
// @Success 200 {object} types.AgentPage "Page of agents"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /agents [get]
func ListAgents(cacheService *cache.CacheService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := parseQuery(r)

		agents, total, err := cacheService.ListAgents(r.Context(), q)
		if err != nil {
			slog.Error("Failed to list agents", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to list agents")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Agents fetched successfully", buildPage(agents, q, total)))
	}
}

// GetAgent handles fetching a single agent record
// @Summary Get an agent
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} types.Agent "Agent record"
// @Failure 404 {object} response.Response "Agent not found"
// @Router /agents/{id} [get]
func GetAgent(cacheService *cache.CacheService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := r.PathValue("id")
		if agentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("agent ID is required")))
			return
		}

		agent, err := cacheService.GetAgent(r.Context(), agentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.CodedError(
					errors.New("agent not found"), response.CodeNotFound))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, agent)
	}
}

// MyAgents lists the authenticated user's own agents
// @Summary List own agents
// @Tags agents
// @Produce json
// @Success 200 {object} types.AgentPage "Page of agents"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/agents [get]
func MyAgents(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
				errors.New("user not authenticated"), response.CodeAuthRequired))
			return
		}

		q := parseQuery(r)
		q.UserID = userID

		// The owner's dashboard must never serve stale data, so this
		// path bypasses the listing cache
		agents, total, err := storage.ListAgents(q)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to list agents")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Agents fetched successfully", buildPage(agents, q, total)))
	}
}

// Download records an agent download
// @Summary Record an agent download
// @Tags agents
// @Param id path string true "Agent ID"
// @Success 200 {object} response.Response "Download recorded"
// @Failure 404 {object} response.Response "Agent not found"
// @Security BearerAuth
// @Router /agents/{id}/download [post]
func Download(storage storage.Storage, cacheService *cache.CacheService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := r.PathValue("id")
		if agentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("agent ID is required")))
			return
		}

		err := storage.IncrementDownloads(agentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.CodedError(
					errors.New("agent not found"), response.CodeNotFound))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		cacheService.InvalidateAgent(r.Context(), agentID)

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Download recorded", nil))
	}
}

// Marketplace serves the public marketplace landing page
// @Summary Top public agents
// @Description Most-downloaded public agents with review counts
// @Tags agents
// @Produce json
// @Param limit query int false "Number of agents (default: 12)"
// @Success 200 {array} types.AgentWithStats "Top agents"
// @Router /marketplace [get]
func Marketplace(marketplace *cache.MarketplaceQuery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 12
		if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed >= 1 && parsed <= 100 {
			limit = parsed
		}

		agents, err := marketplace.TopPublicAgents(r.Context(), limit)
		if err != nil {
			slog.Error("Failed to load marketplace", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to load marketplace")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Marketplace fetched successfully", agents))
	}
}
