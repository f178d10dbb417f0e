package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/pkg/logger"
)

// CalendarConfig holds Google Calendar credentials.
type CalendarConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// CalendarAdapter implements out.CalendarProviderPort for Google Calendar.
type CalendarAdapter struct {
	config     *oauth2.Config
	token      *oauth2.Token
	calendarID string
	log        *logger.Logger
}

var _ out.CalendarProviderPort = (*CalendarAdapter)(nil)

// NewCalendarAdapter creates a new Google Calendar adapter.
func NewCalendarAdapter(cfg *CalendarConfig) *CalendarAdapter {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarAdapter{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		token:      &oauth2.Token{RefreshToken: cfg.RefreshToken},
		calendarID: calendarID,
		log:        logger.Default().WithField("component", "calendar_adapter"),
	}
}

func (a *CalendarAdapter) service(ctx context.Context) (*calendar.Service, error) {
	source := a.config.TokenSource(ctx, a.token)
	return calendar.NewService(ctx, option.WithTokenSource(source))
}

// FetchUpcoming returns events starting between now and now+lookahead,
// ordered by start time. Recurring events are expanded to single
// instances and flagged via the recurringEventId linkage.
func (a *CalendarAdapter) FetchUpcoming(ctx context.Context, lookahead time.Duration) ([]domain.CalendarEvent, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	now := time.Now().UTC()
	resp, err := svc.Events.List(a.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(lookahead).Format(time.RFC3339)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, convertEvent(item))
	}
	return events, nil
}

func convertEvent(item *calendar.Event) domain.CalendarEvent {
	e := domain.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		IsRecurring: item.RecurringEventId != "" || len(item.Recurrence) > 0,
	}

	if item.Start != nil {
		if item.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				e.Start = t
			}
		} else if item.Start.Date != "" {
			if t, err := time.Parse("2006-01-02", item.Start.Date); err == nil {
				e.Start = t
				e.AllDay = true
			}
		}
	}
	if item.End != nil && item.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			e.End = t
		}
	}

	return e
}
