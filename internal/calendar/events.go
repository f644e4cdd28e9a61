package calendar

import (
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

type Event struct {
	ID          string
	CalendarID  string
	Summary     string
	Description string
	Location    string
	HTMLLink    string
	StartTime   time.Time
	EndTime     time.Time
	IsAllDay    bool
}

func convertEvent(item *gcal.Event) (Event, error) {
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		HTMLLink:    item.HtmlLink,
	}

	if item.Start == nil || item.End == nil {
		return event, fmt.Errorf("event has no start or end")
	}

	var err error
	if item.Start.DateTime != "" {
		event.StartTime, err = time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return event, fmt.Errorf("failed to parse start time: %w", err)
		}
	} else if item.Start.Date != "" {
		event.StartTime, err = time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return event, fmt.Errorf("failed to parse start date: %w", err)
		}
		event.IsAllDay = true
	} else {
		return event, fmt.Errorf("event has no start time")
	}

	if item.End.DateTime != "" {
		event.EndTime, err = time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return event, fmt.Errorf("failed to parse end time: %w", err)
		}
	} else if item.End.Date != "" {
		event.EndTime, err = time.Parse("2006-01-02", item.End.Date)
		if err != nil {
			return event, fmt.Errorf("failed to parse end date: %w", err)
		}
	} else {
		return event, fmt.Errorf("event has no end time")
	}

	return event, nil
}

// TimeLabel formats the event window for human-readable output.
func (e Event) TimeLabel() string {
	if e.IsAllDay {
		return fmt.Sprintf("%s (all day)", e.StartTime.Format("Mon Jan 2"))
	}
	if e.StartTime.YearDay() == e.EndTime.YearDay() && e.StartTime.Year() == e.EndTime.Year() {
		return fmt.Sprintf("%s - %s", e.StartTime.Format("Mon Jan 2 15:04"), e.EndTime.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", e.StartTime.Format("Mon Jan 2 15:04"), e.EndTime.Format("Mon Jan 2 15:04"))
}
