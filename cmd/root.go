package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

var (
	verbose           bool
	clientSecretsPath string

	// Version information
	version    string
	commitHash string
	buildTime  string
)

var rootCmd = &cobra.Command{
	Use:   "gcal-discord-poster",
	Short: "Post upcoming Google Calendar events to a Discord channel",
	Long: `A CLI tool that fetches upcoming events from Google Calendar and posts
them to a Discord channel through an incoming webhook.

Credentials and preferences live in a single JSON config file at
~/.config/gcal-discord-poster/config.json. Run 'gcal-discord-poster auth'
once to authorize the tool, then 'gcal-discord-poster post' (typically from
cron or a systemd timer) to post the event digest.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, commit, buildTimeStr string) {
	version = v
	commitHash = commit
	buildTime = buildTimeStr

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commitHash, buildTime)
}

func init() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&clientSecretsPath, "client-secrets", "", "path to OAuth client secrets JSON file (default: client_secrets.json)")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(statusCmd)
}
