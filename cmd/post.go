package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Reshurum/gcal-discord-poster/internal/calendar"
	"github.com/Reshurum/gcal-discord-poster/internal/config"
	"github.com/Reshurum/gcal-discord-poster/internal/discord"
	"github.com/Reshurum/gcal-discord-poster/internal/logger"
	"github.com/Reshurum/gcal-discord-poster/internal/nerdfonts"
)

const defaultLookaheadHours = 12

var (
	webhookURLFlag string
	calendarFlag   string
	hoursFlag      int
	dryRunFlag     bool
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post upcoming calendar events to Discord",
	Long: `Fetch upcoming events from Google Calendar and post a digest to the
configured Discord webhook.

The webhook URL, calendar ID, and lookahead window come from the config
file; flags override them for a single run. Requires prior authorization
via 'gcal-discord-poster auth'.

Examples:
  gcal-discord-poster post                     # Post with configured settings
  gcal-discord-poster post --hours 24          # Look one day ahead
  gcal-discord-poster post --dry-run           # Show events without posting`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&webhookURLFlag, "webhook-url", "", "Discord webhook URL (overrides config)")
	postCmd.Flags().StringVar(&calendarFlag, "calendar", "", "calendar ID to read (default: config or primary)")
	postCmd.Flags().IntVar(&hoursFlag, "hours", 0, "lookahead window in hours (default: config or 12)")
	postCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "print the events instead of posting")
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	webhookURL := webhookURLFlag
	calendarID := calendarFlag
	hours := hoursFlag
	if cfg.Discord != nil && webhookURL == "" {
		webhookURL = cfg.Discord.WebhookURL
	}
	if cfg.Calendar != nil {
		if calendarID == "" {
			calendarID = cfg.Calendar.ID
		}
		if hours == 0 {
			hours = cfg.Calendar.LookaheadHours
		}
	}
	if hours == 0 {
		hours = defaultLookaheadHours
	}
	if webhookURL == "" && !dryRunFlag {
		return fmt.Errorf("no webhook URL configured; set discord.webhook_url in the config or pass --webhook-url")
	}

	authManager := calendar.NewAuthManager(nil)
	token, err := authManager.SavedCredentials(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if token == nil {
		return fmt.Errorf("authorization required. Run 'gcal-discord-poster auth' first")
	}
	// A refresh may have minted a new access token; keep it.
	if err := config.Save(cfg); err != nil {
		logger.Warn("failed to save refreshed credentials", "error", err)
	}

	service, err := authManager.NewService(ctx, token)
	if err != nil {
		return err
	}

	events, err := service.UpcomingEvents(ctx, calendarID, hours)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	if len(events) == 0 {
		fmt.Printf("%s No events in the next %d hours\n", nerdfonts.Calendar, hours)
		return nil
	}

	if dryRunFlag {
		fmt.Printf("%s %d upcoming events:\n", nerdfonts.Calendar, len(events))
		for _, event := range events {
			summary := event.Summary
			if summary == "" {
				summary = "(no title)"
			}
			fmt.Printf("  %s  %s\n", event.TimeLabel(), summary)
		}
		return nil
	}

	poster := discord.NewPoster(webhookURL, nil)
	if err := poster.PostDigest(ctx, events); err != nil {
		return fmt.Errorf("failed to post to Discord: %w", err)
	}

	fmt.Printf("%s Posted %d events to Discord\n", nerdfonts.Bell, len(events))
	return nil
}
