package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v73/github"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/github"
	"github.com/sevigo/orgu/internal/gitutil"
	"github.com/sevigo/orgu/internal/jobs"
)

var (
	oneshotOwner   string
	oneshotRepo    string
	oneshotHeadSHA string
)

var errJobNotSucceeded = errors.New("job did not succeed")

var oneshotCmd = &cobra.Command{
	Use:   "oneshot",
	Short: "Run the configured job once against a repository",
	Long: `Run the configured job once against a repository, as the runner would for a
pull_request event. The check run is printed instead of being sent to GitHub.

Credentials come from GITHUB_TOKEN when set, otherwise from the GitHub App
configuration (GITHUB_APP_ID, GITHUB_INSTALLATION_ID, GITHUB_PRIVATE_KEY).

Examples:
  JOB_NAME=test COMMAND="make test" orgu oneshot -o octocat -r hello-world
  orgu oneshot -o octocat -r hello-world --head-sha 7fd1a60b01f91b314f59955a4e4d4e80d8edf11d`,
	Args: cobra.NoArgs,
	RunE: runOneshot,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	oneshotCmd.Flags().StringVarP(&oneshotOwner, "owner", "o", "", "Repository owner, e.g. octocat for octocat/hello-world")
	oneshotCmd.Flags().StringVarP(&oneshotRepo, "repo", "r", "", "Repository name, e.g. hello-world for octocat/hello-world")
	oneshotCmd.Flags().StringVar(&oneshotHeadSHA, "head-sha", "", "Commit to run the job against (default: remote HEAD)")
	_ = oneshotCmd.MarkFlagRequired("owner")
	_ = oneshotCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(oneshotCmd)
}

func runOneshot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	httpClient := github.NewHTTPClient(cfg.API, logger)

	tokens, err := oneshotTokenSource(cfg, httpClient, logger)
	if err != nil {
		return err
	}
	token, err := tokens.FetchToken(ctx)
	if err != nil {
		return err
	}
	client, err := github.NewTokenClient(ctx, token, cfg.GitHub.APIURL, httpClient, logger)
	if err != nil {
		return err
	}

	headSHA := oneshotHeadSHA
	if headSHA == "" {
		if headSHA, err = client.GetHeadSHA(ctx, oneshotOwner, oneshotRepo); err != nil {
			return err
		}
	}
	repo, err := client.GetRepository(ctx, oneshotOwner, oneshotRepo)
	if err != nil {
		return err
	}

	req := &core.DispatchRequest{
		RequestID:      "oneshot-" + uuid.NewString(),
		DeliveryID:     "oneshot",
		InstallationID: cfg.GitHub.InstallationID,
		EventName:      core.EventPullRequest,
		Action:         "synchronize",
		Repository:     *repo,
		HeadSHA:        headSHA,
		After:          &headSHA,
		Sender:         core.User{Login: "octocat"},
	}

	engine := gitutil.NewEngine(cfg.Checkout, cfg.GitHub.GitURL, logger)
	defer engine.Wait()

	titleColor.Fprintf(cmd.OutOrStdout(), "Running %s on %s@%s\n", cfg.Job.CheckRunName(), repo.FullName, headSHA)
	return dispatchOneshot(ctx, cfg, token, engine, req, cmd.OutOrStdout(), logger)
}

// dispatchOneshot runs req with the already minted token and prints the
// resulting check run to out.
func dispatchOneshot(
	ctx context.Context,
	cfg *config.Config,
	token string,
	checkout gitutil.Checkouter,
	req *core.DispatchRequest,
	out io.Writer,
	logger *slog.Logger,
) error {
	console := &consoleClient{out: out}
	job := jobs.NewRunJob(cfg.Job, cfg.GitHub.InstallationID, console, github.StaticTokenSource(token), checkout, logger)

	if err := job.HandleDispatch(ctx, req); err != nil {
		return err
	}
	if console.conclusion != github.ConclusionSuccess {
		return errJobNotSucceeded
	}
	return nil
}

// oneshotTokenSource prefers a user supplied token over App credentials.
func oneshotTokenSource(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (github.TokenSource, error) {
	if token := viper.GetString("GITHUB_TOKEN"); token != "" {
		return github.StaticTokenSource(token), nil
	}
	if err := cfg.GitHub.Validate(); err != nil {
		return nil, fmt.Errorf("no GITHUB_TOKEN given and App credentials are incomplete: %w", err)
	}
	return github.NewAppTokenSource(cfg.GitHub, httpClient, logger)
}

// consoleClient prints check runs instead of sending them to GitHub.
type consoleClient struct {
	github.NullClient
	out        io.Writer
	conclusion string
}

func (c *consoleClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
	c.conclusion = opts.GetConclusion()

	status := successColor
	switch c.conclusion {
	case github.ConclusionSuccess:
	case github.ConclusionTimedOut:
		status = warnColor
	default:
		status = errorColor
	}
	status.Fprintf(c.out, "\n%s: %s\n", c.conclusion, opts.GetOutput().GetTitle())
	fmt.Fprintf(c.out, "%s\n", opts.GetOutput().GetSummary())
	if text := opts.GetOutput().GetText(); text != "" {
		dimColor.Fprintf(c.out, "\n%s\n", text)
	}

	return c.NullClient.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
}
