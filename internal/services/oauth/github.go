package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sajmeister/aaplat/internal/types/users"
)

const (
	githubAuthorizeURL = "https://github.com/login/oauth/authorize"
	githubTokenURL     = "https://github.com/login/oauth/access_token"
	githubUserURL      = "https://api.github.com/user"
	githubEmailsURL    = "https://api.github.com/user/emails"
)

type GitHubProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) AuthorizeURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":    {p.clientID},
		"redirect_uri": {redirectURI},
		"state":        {state},
		"scope":        {"read:user user:email"},
	}
	return githubAuthorizeURL + "?" + params.Encode()
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return doTokenRequest(ctx, p.httpClient, githubTokenURL, data)
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (users.Profile, error) {
	var account struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, p.httpClient, githubUserURL, accessToken, &account); err != nil {
		return users.Profile{}, err
	}

	email := account.Email
	if email == "" {
		primary, err := p.fetchPrimaryEmail(ctx, accessToken)
		if err != nil {
			return users.Profile{}, err
		}
		email = primary
	}
	if email == "" {
		return users.Profile{}, fmt.Errorf("github account has no accessible email")
	}

	name := account.Name
	if name == "" {
		name = account.Login
	}

	return users.Profile{
		Provider:  "github",
		AccountID: strconv.FormatInt(account.ID, 10),
		Email:     email,
		Name:      name,
		Image:     account.AvatarURL,
	}, nil
}

// fetchPrimaryEmail covers accounts whose email is private on the
// profile but still granted through the user:email scope
func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, p.httpClient, githubEmailsURL, accessToken, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}

	return "", nil
}
