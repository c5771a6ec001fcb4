package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

const defaultGitHubUserURL = "https://api.github.com/user"

// GitHubConfig holds the OAuth app credentials. The URL fields override the
// public GitHub endpoints and are only set in tests.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	AuthURL  string
	TokenURL string
	UserURL  string
}

// GitHubProvider exchanges GitHub authorization codes for a profile.
type GitHubProvider struct {
	oauth   *oauth2.Config
	userURL string
}

// NewGitHubProvider builds a provider for the configured OAuth app.
func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	userURL := cfg.UserURL
	if userURL == "" {
		userURL = defaultGitHubUserURL
	}

	return &GitHubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       []string{"user:email"},
		},
		userURL: userURL,
	}
}

// AuthCodeURL is where the browser is sent to approve the login.
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type gitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Exchange trades code for an access token and reads the GitHub user behind it.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*domain.ExternalProfile, error) {
	if code == "" {
		return nil, fmt.Errorf("github exchange: %w: missing code", domain.ErrValidation)
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github token exchange: %w", err)
	}

	user, err := p.fetchUser(ctx, p.oauth.Client(ctx, token))
	if err != nil {
		return nil, err
	}

	return &domain.ExternalProfile{
		ExternalID:        strconv.FormatInt(user.ID, 10),
		SuggestedUsername: user.Login,
	}, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, client *http.Client) (*gitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("github user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github user request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read github user: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user fetch failed with status %d", resp.StatusCode)
	}

	var user gitHubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parse github user: %w", err)
	}
	if user.ID == 0 || user.Login == "" {
		return nil, fmt.Errorf("github user response missing id or login")
	}
	return &user, nil
}

var _ ports.OAuthProvider = (*GitHubProvider)(nil)
