package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	guserinfo "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

// Service wraps the Google Calendar API calls this tool performs.
type Service struct {
	calendars *gcal.Service
	userinfo  *guserinfo.Service
}

// NewService builds an authenticated API service around the given token.
// The token is used as-is; callers obtain a valid one from SavedCredentials
// or NewCredentials first.
func (a *AuthManager) NewService(ctx context.Context, token *oauth2.Token) (*Service, error) {
	baseCtx := context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	httpClient := oauth2.NewClient(baseCtx, oauth2.StaticTokenSource(token))

	calService, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	userService, err := guserinfo.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	return &Service{
		calendars: calService,
		userinfo:  userService,
	}, nil
}

// UpcomingEvents retrieves events starting within the next given hours.
func (s *Service) UpcomingEvents(ctx context.Context, calendarID string, hours int) ([]Event, error) {
	now := time.Now()
	return s.EventsInRange(ctx, calendarID, now, now.Add(time.Duration(hours)*time.Hour))
}

// EventsInRange retrieves single events in [timeMin, timeMax) ordered by
// start time. Cancelled events are skipped.
func (s *Service) EventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	logger.Debug("fetching events", "calendar_id", calendarID, "time_min", timeMin, "time_max", timeMax)

	resp, err := s.calendars.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar %q: %w", calendarID, err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		event, err := convertEvent(item)
		if err != nil {
			logger.Debug("skipping invalid event", "event_id", item.Id, "error", err)
			continue
		}
		event.CalendarID = calendarID
		events = append(events, event)
	}

	logger.Info("fetched events", "calendar_id", calendarID, "count", len(events))
	return events, nil
}

// AccountEmail returns the email address of the authorized account.
func (s *Service) AccountEmail(ctx context.Context) (string, error) {
	info, err := s.userinfo.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to fetch account info: %w", err)
	}
	return info.Email, nil
}
