package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Reshurum/gcal-discord-poster/internal/calendar"
	"github.com/Reshurum/gcal-discord-poster/internal/config"
	"github.com/Reshurum/gcal-discord-poster/internal/nerdfonts"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the poster configuration",
	Long: `Display the current status of gcal-discord-poster:
- Config file location and presence
- Stored credential record and its validity
- The authorized Google account (when credentials are valid)
- Discord webhook and calendar settings`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("=== Config ===")

	configPath, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("%s Config file does not exist yet\n", nerdfonts.InfoCircle)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("%s Failed to load config: %v\n", nerdfonts.ExclamationTriangle, err)
		return nil
	}

	fmt.Println("\n=== Authorization ===")

	rec := cfg.GoogleCredentials()
	switch {
	case rec == nil:
		fmt.Printf("%s No stored credentials (run 'gcal-discord-poster auth')\n", nerdfonts.ExclamationCircle)
	case rec.RefreshToken == "" || rec.ClientID == "" || rec.ClientSecret == "" || rec.TokenURI == "":
		fmt.Printf("%s Stored credential record is incomplete (run 'gcal-discord-poster auth')\n", nerdfonts.ExclamationCircle)
	case !rec.Expiry.IsZero() && rec.Expiry.Before(time.Now()):
		fmt.Printf("%s Access token expired %s ago (refreshed automatically on next run)\n",
			nerdfonts.InfoCircle, time.Since(rec.Expiry).Truncate(time.Second))
	default:
		fmt.Printf("%s Credentials: Valid\n", nerdfonts.CheckCircle)

		authManager := calendar.NewAuthManager(nil)
		if token, err := authManager.SavedCredentials(ctx, cfg); err == nil && token != nil {
			if service, err := authManager.NewService(ctx, token); err == nil {
				if email, err := service.AccountEmail(ctx); err == nil {
					fmt.Printf("%s Account: %s\n", nerdfonts.User, email)
				}
			}
		}
	}

	fmt.Println("\n=== Posting ===")

	if cfg.Discord != nil && cfg.Discord.WebhookURL != "" {
		fmt.Printf("%s Webhook configured\n", nerdfonts.CheckCircle)
	} else {
		fmt.Printf("%s No webhook URL configured\n", nerdfonts.ExclamationCircle)
	}

	calendarID := "primary"
	hours := defaultLookaheadHours
	if cfg.Calendar != nil {
		if cfg.Calendar.ID != "" {
			calendarID = cfg.Calendar.ID
		}
		if cfg.Calendar.LookaheadHours != 0 {
			hours = cfg.Calendar.LookaheadHours
		}
	}
	fmt.Printf("%s Calendar: %s (next %d hours)\n", nerdfonts.Calendar, calendarID, hours)

	return nil
}
