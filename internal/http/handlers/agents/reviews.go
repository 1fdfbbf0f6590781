package agents

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sajmeister/aaplat/internal/cache"
	"github.com/sajmeister/aaplat/internal/events"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/storage"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

// PostReview handles submitting a review for an agent
// @Summary Review an agent
// @Description Submit a rating and optional comment for an agent
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Agent ID"
// @Param review body types.ReviewRequest true "Review details"
// @Success 201 {object} map[string]string "Review created"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Agent not found"
// @Security BearerAuth
// @Router /agents/{id}/reviews [post]
func PostReview(storage storage.Storage, cacheService *cache.CacheService, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
				errors.New("user not authenticated"), response.CodeAuthRequired))
			return
		}

		agentID := r.PathValue("id")
		if agentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("agent ID is required")))
			return
		}

		var req types.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		agent, err := storage.GetAgentByID(agentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.CodedError(
					errors.New("agent not found"), response.CodeNotFound))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		reviewID, err := storage.CreateReview(types.AgentReview{
			AgentID: agentID,
			UserID:  userID,
			Rating:  req.Rating,
			Comment: req.Comment,
		})
		if err != nil {
			slog.Error("Failed to create review", slog.String("agent_id", agentID), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create review")))
			return
		}

		// The review recomputes the agent's denormalized rating
		cacheService.InvalidateAgent(r.Context(), agentID)
		cacheService.InvalidateListings(r.Context())
		publisher.PublishAgentReviewed(agentID, userID, agent.UserID, req.Rating)

		response.WriteJSON(w, http.StatusCreated, map[string]string{
			"id": reviewID,
		})
	}
}

// ListReviews returns every review of an agent, newest first
// @Summary List agent reviews
// @Tags reviews
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {array} types.AgentReview "Reviews"
// @Router /agents/{id}/reviews [get]
func ListReviews(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := r.PathValue("id")
		if agentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("agent ID is required")))
			return
		}

		reviews, err := storage.ListReviews(agentID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to list reviews")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Reviews fetched successfully", reviews))
	}
}
