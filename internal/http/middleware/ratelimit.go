package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sajmeister/aaplat/internal/ratelimit"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

// Rate-limited actions
const (
	ActionCreateAgent = "create_agent"
	ActionUploadFiles = "upload_files"
	ActionReview      = "review"
)

type RateLimitConfig struct {
	redisClient *redis.Client
	limiters    map[string]*ratelimit.TokenBucket
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		redisClient: redisClient,
		limiters:    make(map[string]*ratelimit.TokenBucket),
	}

	// Agent creation is cheap but spammable: 10/min per user
	config.limiters[ActionCreateAgent] = ratelimit.NewTokenBucket(redisClient, 10, 10)

	// Uploads move real bytes: 5/min per user
	config.limiters[ActionUploadFiles] = ratelimit.NewTokenBucket(redisClient, 5, 5)

	// Reviews: 20/min per user
	config.limiters[ActionReview] = ratelimit.NewTokenBucket(redisClient, 20, 20)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Assumes auth middleware ran first
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
					errors.New("user not authenticated"), response.CodeAuthRequired))
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				// No limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), userID, action)
			w.Header().Set("X-RateLimit-Limit", getLimitForAction(action))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper function to get the limit for display in headers
func getLimitForAction(action string) string {
	switch action {
	case ActionCreateAgent:
		return "10"
	case ActionUploadFiles:
		return "5"
	case ActionReview:
		return "20"
	default:
		return "100"
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}
