// Package discord posts calendar event digests to a Discord channel through
// an incoming webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Reshurum/gcal-discord-poster/internal/calendar"
	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

// Discord allows at most 10 embeds per webhook message.
const maxEmbeds = 10

const embedColor = 0x4285F4

type Poster struct {
	webhookURL string
	httpClient *http.Client
}

// NewPoster creates a webhook poster. A nil httpClient selects a default
// client with a 15 second timeout.
func NewPoster(webhookURL string, httpClient *http.Client) *Poster {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Poster{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// PostDigest posts one message summarizing the given events. Posting an
// empty event set is a no-op.
func (p *Poster) PostDigest(ctx context.Context, events []calendar.Event) error {
	if len(events) == 0 {
		logger.Debug("no events to post")
		return nil
	}

	payload := buildDigest(events)
	return p.post(ctx, payload)
}

// buildDigest assembles the webhook payload for a set of events. Split out
// of PostDigest so formatting is testable without a server.
func buildDigest(events []calendar.Event) webhookPayload {
	content := "1 upcoming event"
	if len(events) != 1 {
		content = fmt.Sprintf("%d upcoming events", len(events))
	}

	embeds := make([]embed, 0, min(len(events), maxEmbeds))
	for i, event := range events {
		if i == maxEmbeds {
			content += fmt.Sprintf(" (showing first %d)", maxEmbeds)
			break
		}

		title := event.Summary
		if title == "" {
			title = "(no title)"
		}

		e := embed{
			Title: title,
			URL:   event.HTMLLink,
			Color: embedColor,
			Fields: []embedField{
				{Name: "When", Value: event.TimeLabel(), Inline: true},
			},
		}
		if event.Location != "" {
			e.Fields = append(e.Fields, embedField{Name: "Where", Value: event.Location, Inline: true})
		}
		embeds = append(embeds, e)
	}

	return webhookPayload{Content: content, Embeds: embeds}
}

func (p *Poster) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(detail) > 0 {
			return fmt.Errorf("webhook post failed with status %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("webhook post failed with status %d", resp.StatusCode)
	}

	logger.Info("posted event digest", "embeds", len(payload.Embeds))
	return nil
}
