package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/services/oauth"
	"github.com/sajmeister/aaplat/internal/storage"
	"github.com/sajmeister/aaplat/internal/utils/jwt"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

// stateCookieName carries the CSRF state between login and callback
const stateCookieName = "aaplat_oauth_state"

const sessionMaxAge = 30 * 24 * 60 * 60

func callbackURI(cfg *config.Config, provider string) string {
	return fmt.Sprintf("%s/auth/%s/callback", cfg.HTTPServer.BaseURL, provider)
}

// OAuthLogin starts the authorization code flow for a provider
// @Summary Start OAuth login
// @Description Redirect to the identity provider's consent screen
// @Tags auth
// @Param provider path string true "Provider name (github, google)"
// @Success 302 "Redirect to the provider"
// @Failure 404 {object} response.Response "Unknown or disabled provider"
// @Router /auth/{provider}/login [get]
func OAuthLogin(providers map[string]oauth.Provider, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("provider")
		provider, ok := providers[name]
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.CodedError(
				fmt.Errorf("unknown auth provider: %s", name), response.CodeNotFound))
			return
		}

		state, err := oauth.GenerateState()
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to start login")))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, provider.AuthorizeURL(callbackURI(cfg, name), state), http.StatusFound)
	}
}

// OAuthCallback completes the code flow: it verifies the state, exchanges
// the code, upserts the linked account and issues a session
// @Summary Complete OAuth login
// @Tags auth
// @Param provider path string true "Provider name (github, google)"
// @Param code query string true "Authorization code"
// @Param state query string true "CSRF state"
// @Success 302 "Redirect to the dashboard with a session cookie set"
// @Failure 400 {object} response.Response "State mismatch or provider error"
// @Router /auth/{provider}/callback [get]
func OAuthCallback(providers map[string]oauth.Provider, storage storage.Storage, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("provider")
		provider, ok := providers[name]
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.CodedError(
				fmt.Errorf("unknown auth provider: %s", name), response.CodeNotFound))
			return
		}

		if provErr := r.URL.Query().Get("error"); provErr != "" {
			slog.Warn("OAuth login denied", slog.String("provider", name), slog.String("error", provErr))
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(
				fmt.Errorf("authentication failed: %s", provErr)))
			return
		}

		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("state mismatch")))
			return
		}

		// State is single use
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})

		code := r.URL.Query().Get("code")
		if code == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("authorization code is required")))
			return
		}

		accessToken, err := provider.ExchangeCode(r.Context(), code, callbackURI(cfg, name))
		if err != nil {
			slog.Error("OAuth code exchange failed", slog.String("provider", name), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New("failed to exchange authorization code")))
			return
		}

		profile, err := provider.FetchProfile(r.Context(), accessToken)
		if err != nil {
			slog.Error("OAuth profile fetch failed", slog.String("provider", name), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New("failed to fetch account profile")))
			return
		}

		userID, err := storage.UpsertOAuthUser(profile)
		if err != nil {
			slog.Error("Failed to upsert OAuth user", slog.String("provider", name), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to sign in")))
			return
		}

		token, err := jwt.CreateToken(userID, cfg.JWTSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   sessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		slog.Info("User signed in via OAuth", slog.String("provider", name), slog.String("user_id", userID))

		http.Redirect(w, r, "/", http.StatusFound)
	}
}
