package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sajmeister/aaplat/internal/types/users"
)

const (
	googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type GoogleProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) AuthorizeURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
	}
	return googleAuthorizeURL + "?" + params.Encode()
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return doTokenRequest(ctx, p.httpClient, googleTokenURL, data)
}

func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (users.Profile, error) {
	var account struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, p.httpClient, googleUserInfoURL, accessToken, &account); err != nil {
		return users.Profile{}, err
	}

	if account.Email == "" {
		return users.Profile{}, fmt.Errorf("google account has no accessible email")
	}

	return users.Profile{
		Provider:  "google",
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Image:     account.Picture,
	}, nil
}
