package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/orgu/internal/logger"
)

// Config holds the runner's configuration values.
type Config struct {
	Server   ServerConfig
	GitHub   GitHubConfig
	API      APIConfig
	Checkout CheckoutConfig
	Job      JobConfig
	Logging  logger.Config
}

// ServerConfig controls the HTTP endpoint that receives dispatch requests.
type ServerConfig struct {
	Address string
	Port    string
	// Select filters which events the server hands to the runner.
	Select string
	// MaxDispatches bounds concurrently running jobs; QueueSize bounds the
	// dispatches waiting for one of them.
	MaxDispatches int
	QueueSize     int
}

// GitHubConfig identifies the GitHub App installation the runner acts as.
type GitHubConfig struct {
	AppID          int64
	InstallationID int64
	// PrivateKey is the PEM content. PrivateKeyPath is read when it is empty.
	PrivateKey     string
	PrivateKeyPath string
	// APIURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	APIURL string
	// GitURL is the base URL repositories are fetched from.
	GitURL string
}

// APIConfig tunes the HTTP client used for GitHub API requests.
type APIConfig struct {
	ConnectTimeout   time.Duration
	ReadTimeout      time.Duration
	MaxRetry         int
	MinRetryInterval time.Duration
	MaxRetryInterval time.Duration
}

// CheckoutConfig controls how a repository is fetched.
type CheckoutConfig struct {
	// FetchDepth of 0 fetches the whole history.
	FetchDepth int
	// NoFetch only initializes the repository and its remote.
	NoFetch      bool
	FetchTimeout time.Duration
	// MaxWorkers bounds concurrent checkout workers, including ones that
	// outlived a timed out dispatch.
	MaxWorkers int
}

// JobConfig describes the job the runner executes for every dispatch.
type JobConfig struct {
	Name string
	// Command is executed without a shell.
	Command []string
	// WrapStdout fences stdout and stderr in code blocks in the check run output.
	WrapStdout bool
	Timeout    time.Duration
}

// CheckRunName is the name of the check run reported for this job.
func (j JobConfig) CheckRunName() string {
	return "run-" + j.Name
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates the GitHub App credentials. It uses the
// global Viper instance so flags bound by the CLI take precedence.
func LoadConfig() (*Config, error) {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.GitHub.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from v without validating credentials. Commands
// that only need a user supplied token use it directly.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", "127.0.0.1")
	v.SetDefault("SERVER_PORT", "3001")
	v.SetDefault("RUNNER_SELECT", "pull_request")
	v.SetDefault("RUNNER_MAX_DISPATCHES", 32)
	v.SetDefault("RUNNER_QUEUE_SIZE", 64)
	v.SetDefault("GITHUB_GIT_URL", "https://github.com")
	v.SetDefault("GITHUB_CONNECT_TIMEOUT", "1s")
	v.SetDefault("GITHUB_READ_TIMEOUT", "10s")
	v.SetDefault("GITHUB_MAX_RETRY", 3)
	v.SetDefault("GITHUB_MIN_RETRY_INTERVAL", "1s")
	v.SetDefault("GITHUB_MAX_RETRY_INTERVAL", "5m")
	v.SetDefault("FETCH_DEPTH", 1)
	v.SetDefault("NO_FETCH", false)
	v.SetDefault("FETCH_TIMEOUT", "10m")
	v.SetDefault("CHECKOUT_MAX_WORKERS", 16)
	v.SetDefault("WRAP_STDOUT", true)
	v.SetDefault("JOB_TIMEOUT", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:       v.GetString("SERVER_ADDRESS"),
			Port:          v.GetString("SERVER_PORT"),
			Select:        strings.ToLower(v.GetString("RUNNER_SELECT")),
			MaxDispatches: v.GetInt("RUNNER_MAX_DISPATCHES"),
			QueueSize:     v.GetInt("RUNNER_QUEUE_SIZE"),
		},
		GitHub: GitHubConfig{
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			InstallationID: v.GetInt64("GITHUB_INSTALLATION_ID"),
			PrivateKey:     v.GetString("GITHUB_PRIVATE_KEY"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			APIURL:         v.GetString("GITHUB_API_URL"),
			GitURL:         strings.TrimSuffix(v.GetString("GITHUB_GIT_URL"), "/"),
		},
		API: APIConfig{
			ConnectTimeout:   v.GetDuration("GITHUB_CONNECT_TIMEOUT"),
			ReadTimeout:      v.GetDuration("GITHUB_READ_TIMEOUT"),
			MaxRetry:         v.GetInt("GITHUB_MAX_RETRY"),
			MinRetryInterval: v.GetDuration("GITHUB_MIN_RETRY_INTERVAL"),
			MaxRetryInterval: v.GetDuration("GITHUB_MAX_RETRY_INTERVAL"),
		},
		Checkout: CheckoutConfig{
			FetchDepth:   v.GetInt("FETCH_DEPTH"),
			NoFetch:      v.GetBool("NO_FETCH"),
			FetchTimeout: v.GetDuration("FETCH_TIMEOUT"),
			MaxWorkers:   v.GetInt("CHECKOUT_MAX_WORKERS"),
		},
		Job: JobConfig{
			Name:       v.GetString("JOB_NAME"),
			Command:    strings.Fields(v.GetString("COMMAND")),
			WrapStdout: v.GetBool("WRAP_STDOUT"),
			Timeout:    v.GetDuration("JOB_TIMEOUT"),
		},
		Logging: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}

	if cfg.Checkout.FetchDepth < 0 {
		return nil, fmt.Errorf("FETCH_DEPTH must not be negative, got %d", cfg.Checkout.FetchDepth)
	}
	if cfg.Checkout.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if cfg.Job.Timeout <= 0 {
		return nil, fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	switch cfg.Server.Select {
	case "pull_request", "check_suite":
	default:
		return nil, fmt.Errorf("unsupported RUNNER_SELECT %q, expected pull_request or check_suite", cfg.Server.Select)
	}

	return cfg, nil
}

// Validate checks that the App credentials required to create installation
// tokens are present.
func (g GitHubConfig) Validate() error {
	if g.AppID == 0 {
		return fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if g.InstallationID == 0 {
		return fmt.Errorf("GITHUB_INSTALLATION_ID must be set")
	}
	if g.PrivateKey == "" && g.PrivateKeyPath == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY or GITHUB_PRIVATE_KEY_PATH must be set")
	}
	return nil
}

// LoadPrivateKey returns the PEM encoded App private key.
func (g GitHubConfig) LoadPrivateKey() ([]byte, error) {
	if g.PrivateKey != "" {
		return []byte(g.PrivateKey), nil
	}
	key, err := os.ReadFile(g.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", g.PrivateKeyPath, err)
	}
	return key, nil
}
