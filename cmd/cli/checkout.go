package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/orgu/internal/github"
	"github.com/sevigo/orgu/internal/gitutil"
)

var (
	checkoutSHA   string
	checkoutUnder string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout [owner/repo]",
	Short: "Clone and check out a GitHub repository",
	Long: `Clone and check out a GitHub repository the way the runner does.

Use this inside a job, where the installation token is available as GITHUB_TOKEN.

Examples:
  orgu checkout octocat/hello-world
  orgu checkout --sha 7fd1a60b01f91b314f59955a4e4d4e80d8edf11d --under ./src octocat/hello-world`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckout,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	checkoutCmd.Flags().StringVarP(&checkoutSHA, "sha", "s", "", "Commit to check out (default: remote HEAD)")
	checkoutCmd.Flags().StringVar(&checkoutUnder, "under", "", "Directory to check out into (default: current directory)")
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	owner, repo, err := gitutil.ParseRepository(args[0])
	if err != nil {
		return err
	}
	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		return errors.New("a token is required: set GITHUB_TOKEN or --github-token")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	under := checkoutUnder
	if under == "" {
		if under, err = os.Getwd(); err != nil {
			return fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	if err := os.MkdirAll(under, 0o755); err != nil {
		return fmt.Errorf("could not create directory %s: %w", under, err)
	}

	sha := checkoutSHA
	if sha == "" {
		client, err := github.NewTokenClient(ctx, token, cfg.GitHub.APIURL, github.NewHTTPClient(cfg.API, logger), logger)
		if err != nil {
			return err
		}
		if sha, err = client.GetHeadSHA(ctx, owner, repo); err != nil {
			return err
		}
	}

	engine := gitutil.NewEngine(cfg.Checkout, cfg.GitHub.GitURL, logger)
	defer engine.Wait()

	spec := gitutil.CheckoutSpec{Owner: owner, Repo: repo, SHA: sha, Token: token}
	if err := engine.CheckoutUnder(ctx, spec, under); err != nil {
		errorColor.Fprintf(cmd.ErrOrStderr(), "checkout of %s failed\n", spec.FullName())
		return err
	}

	successColor.Fprintf(cmd.OutOrStdout(), "checked out %s@%s into %s\n", spec.FullName(), sha, under)
	return nil
}
