package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/logger"
)

var (
	githubToken string
	verbose     bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:   "orgu",
	Short: "orgu runs a CI job for GitHub events and reports it as a check run.",
	Long: `A CLI for developing and debugging orgu jobs locally: run the configured job
once against a repository, or check out a repository the way the runner does.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub installation token or personal access token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the runner configuration without requiring App credentials
// and sets up logging on stderr so stdout stays readable.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	l := logger.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(l)
	return cfg, l, nil
}
