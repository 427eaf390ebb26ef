package github

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sevigo/orgu/internal/config"
)

// NewHTTPClient returns an HTTP client for GitHub API calls that retries
// connection errors and 5xx responses with exponential backoff.
func NewHTTPClient(cfg config.APIConfig, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetry
	rc.RetryWaitMin = cfg.MinRetryInterval
	rc.RetryWaitMax = cfg.MaxRetryInterval
	rc.Logger = logger.With("component", "github_http")

	if tr, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
		tr.DialContext = (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		tr.ResponseHeaderTimeout = cfg.ReadTimeout
	}

	return rc.StandardClient()
}
