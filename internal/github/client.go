// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/orgu/internal/core"
)

// MaxOutputLength is the largest summary or text GitHub accepts for a check run output.
const MaxOutputLength = 65535

// CheckRunClient creates and updates check runs. It is the only part of the
// API the dispatch pipeline depends on.
//
//go:generate mockgen -destination=../../mocks/mock_check_run_client.go -package=mocks . CheckRunClient
type CheckRunClient interface {
	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error)
}

// Client defines the GitHub operations used by the runner and its CLI.
type Client interface {
	CheckRunClient
	GetRepository(ctx context.Context, owner, repo string) (*core.Repository, error)
	GetHeadSHA(ctx context.Context, owner, repo string) (string, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubClient wraps the official go-github client to provide a focused,
// testable interface for the runner's GitHub operations.
func NewGitHubClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewTokenClient creates a client authenticated with a fixed token, for CLI
// commands that run without App credentials. base is used as the underlying
// transport and may be nil.
func NewTokenClient(ctx context.Context, token, apiURL string, base *http.Client, logger *slog.Logger) (Client, error) {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client, err := withAPIURL(github.NewClient(oauth2.NewClient(ctx, ts)), apiURL)
	if err != nil {
		return nil, err
	}
	return NewGitHubClient(client, logger), nil
}

// withAPIURL points client at a GitHub Enterprise endpoint when apiURL is set.
func withAPIURL(client *github.Client, apiURL string) (*github.Client, error) {
	if apiURL == "" {
		return client, nil
	}
	c, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
	}
	return c, nil
}

// CreateCheckRun creates a new check run.
func (g *gitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error) {
	g.logger.Info("creating check run", "owner", owner, "repo", repo, "head_sha", opts.HeadSHA)
	if err := validateOutput(opts.Output); err != nil {
		return nil, err
	}
	checkRun, _, err := g.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create check run: owner=%s, repo=%s, head_sha=%s: %w", owner, repo, opts.HeadSHA, err)
	}
	return checkRun, nil
}

// UpdateCheckRun updates an existing check run.
func (g *gitHubClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error) {
	g.logger.Info("updating check run", "owner", owner, "repo", repo, "checkRunID", checkRunID)
	if err := validateOutput(opts.Output); err != nil {
		return nil, err
	}
	checkRun, _, err := g.client.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to update check run: owner=%s, repo=%s, id=%d: %w", owner, repo, checkRunID, err)
	}
	return checkRun, nil
}

// GetRepository fetches repository metadata including its custom properties.
// Property values are flattened to strings; multi-select values are joined with ",".
func (g *gitHubClient) GetRepository(ctx context.Context, owner, repo string) (*core.Repository, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}

	props := make(map[string]string, len(r.CustomProperties))
	for k, v := range r.CustomProperties {
		props[k] = propertyString(v)
	}

	return &core.Repository{
		FullName:         r.GetFullName(),
		Name:             r.GetName(),
		Private:          r.GetPrivate(),
		Owner:            core.User{Login: r.GetOwner().GetLogin()},
		CustomProperties: props,
	}, nil
}

// GetHeadSHA returns the SHA of the latest commit on the default branch.
func (g *gitHubClient) GetHeadSHA(ctx context.Context, owner, repo string) (string, error) {
	commits, _, err := g.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found: owner=%s, repo=%s", owner, repo)
	}
	return commits[0].GetSHA(), nil
}

func validateOutput(out *github.CheckRunOutput) error {
	if out == nil {
		return nil
	}
	if err := validateTextLength("summary", out.GetSummary()); err != nil {
		return err
	}
	return validateTextLength("text", out.GetText())
}

func validateTextLength(field, s string) error {
	if n := utf8.RuneCountInString(s); n > MaxOutputLength {
		return fmt.Errorf("check run %s is too long: %d characters, limit is %d", field, n, MaxOutputLength)
	}
	return nil
}

func propertyString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, val[k]))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
