package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Reshurum/gcal-discord-poster/internal/calendar"
	"github.com/Reshurum/gcal-discord-poster/internal/config"
	"github.com/Reshurum/gcal-discord-poster/internal/logger"
	"github.com/Reshurum/gcal-discord-poster/internal/nerdfonts"
)

var (
	revokeFlag bool
	statusOnly bool
	forceFlag  bool
	noSaveFlag bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google Calendar authorization",
	Long: `Authorize access to Google Calendar via the interactive OAuth 2.0 flow.

A browser window opens for consent and the tool waits for the redirect on
localhost:8098, so that port must be free and registered as an authorized
redirect URI of your OAuth client. Credentials are stored in the config
file and refreshed automatically on later runs.

Examples:
  gcal-discord-poster auth                   # Authorize (or refresh) credentials
  gcal-discord-poster auth --status          # Check authorization status
  gcal-discord-poster auth --force           # Redo the interactive flow
  gcal-discord-poster auth --revoke          # Forget stored credentials`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&revokeFlag, "revoke", false, "remove stored credentials from the config")
	authCmd.Flags().BoolVar(&statusOnly, "status", false, "check authorization status only")
	authCmd.Flags().BoolVar(&forceFlag, "force", false, "run the interactive flow even if stored credentials work")
	authCmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "do not persist the obtained credentials")
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	authManager := calendar.NewAuthManager(nil)

	if statusOnly {
		token, err := authManager.SavedCredentials(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to validate stored credentials: %w", err)
		}
		if token != nil {
			fmt.Printf("%s Authorization: Valid\n", nerdfonts.CheckCircle)
		} else {
			fmt.Printf("%s Authorization: Required\n", nerdfonts.ExclamationCircle)
		}
		return nil
	}

	if revokeFlag {
		fmt.Printf("%s Removing stored credentials...\n", nerdfonts.InfoCircle)
		cfg.SetGoogleCredentials(nil)
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("%s Credentials removed\n", nerdfonts.CheckCircle)
		return nil
	}

	if !forceFlag {
		token, err := authManager.SavedCredentials(ctx, cfg)
		if err != nil {
			logger.Warn("stored credentials are unusable, starting interactive flow", "error", err)
		} else if token != nil {
			// A refresh may have minted a new access token; keep it.
			if err := config.Save(cfg); err != nil {
				logger.Warn("failed to save refreshed credentials", "error", err)
			}
			fmt.Printf("%s Already authorized with Google Calendar\n", nerdfonts.CheckCircle)
			fmt.Println("Use --force to redo authorization or --status to check status")
			return nil
		}
	}

	secretsPath := clientSecretsPath
	if secretsPath == "" {
		secretsPath = "client_secrets.json"
	}
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return fmt.Errorf("client secrets file not found: %s", secretsPath)
	}

	fmt.Printf("%s Starting authorization...\n", nerdfonts.InfoCircle)
	fmt.Println("A browser window will open; finish the consent screen there.")
	fmt.Println()

	if _, err := authManager.NewCredentials(ctx, cfg, secretsPath, !noSaveFlag); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Printf("%s Authorization successful!\n", nerdfonts.CheckCircle)
	fmt.Println("You can now use 'gcal-discord-poster post' to post upcoming events.")

	return nil
}
