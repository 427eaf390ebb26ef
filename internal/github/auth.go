package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"

	"github.com/sevigo/orgu/internal/config"
)

// TokenSource supplies an access token for a single dispatch.
//
//go:generate mockgen -destination=../../mocks/mock_token_source.go -package=mocks . TokenSource
type TokenSource interface {
	FetchToken(ctx context.Context) (string, error)
}

// AppTokenSource issues installation access tokens for a GitHub App. Every
// call creates a new token; nothing is cached between dispatches.
type AppTokenSource struct {
	apps           *github.AppsService
	installationID int64
	logger         *slog.Logger
}

// NewAppTokenSource builds a token source that signs App JWTs with the
// configured private key. base carries the requests and may be nil.
func NewAppTokenSource(cfg config.GitHubConfig, base *http.Client, logger *slog.Logger) (*AppTokenSource, error) {
	privateKey, err := cfg.LoadPrivateKey()
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = http.DefaultTransport
	if base != nil && base.Transport != nil {
		rt = base.Transport
	}
	appTransport, err := ghinstallation.NewAppsTransport(rt, cfg.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	if cfg.APIURL != "" {
		appTransport.BaseURL = cfg.APIURL
	}

	appClient, err := withAPIURL(github.NewClient(&http.Client{Transport: appTransport}), cfg.APIURL)
	if err != nil {
		return nil, err
	}

	return newAppTokenSource(appClient, cfg.InstallationID, logger), nil
}

func newAppTokenSource(client *github.Client, installationID int64, logger *slog.Logger) *AppTokenSource {
	return &AppTokenSource{apps: client.Apps, installationID: installationID, logger: logger}
}

// FetchToken creates a new installation access token.
func (s *AppTokenSource) FetchToken(ctx context.Context) (string, error) {
	token, _, err := s.apps.CreateInstallationToken(ctx, s.installationID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create installation token for installation ID %d: %w", s.installationID, err)
	}
	if token.GetToken() == "" {
		return "", fmt.Errorf("received an empty installation token")
	}
	s.logger.Debug("created installation token", "installation_id", s.installationID, "expires_at", token.GetExpiresAt())
	return token.GetToken(), nil
}

// StaticTokenSource returns the same token on every call. The CLI uses it
// with a user supplied token.
type StaticTokenSource string

// FetchToken returns the static token.
func (s StaticTokenSource) FetchToken(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no token configured")
	}
	return string(s), nil
}

// NewInstallationClient creates an API client that authenticates every
// request as the App installation, refreshing tokens as they expire.
func NewInstallationClient(cfg config.GitHubConfig, base *http.Client, logger *slog.Logger) (Client, error) {
	privateKey, err := cfg.LoadPrivateKey()
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = http.DefaultTransport
	if base != nil && base.Transport != nil {
		rt = base.Transport
	}
	itr, err := ghinstallation.New(rt, cfg.AppID, cfg.InstallationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub installation transport: %w", err)
	}
	if cfg.APIURL != "" {
		itr.BaseURL = cfg.APIURL
	}

	client, err := withAPIURL(github.NewClient(&http.Client{Transport: itr}), cfg.APIURL)
	if err != nil {
		return nil, err
	}
	return NewGitHubClient(client, logger), nil
}
