package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Calendar mirrors reminders to an external calendar. CreateEvent returns
// the backend event id; recurrence is one of NONE, DAILY, WEEKLY, MONTHLY.
type Calendar interface {
	CreateEvent(ctx context.Context, title, description string, start time.Time, recurrence string) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// eventDuration is how long each reminder event blocks on the calendar.
const eventDuration = 15 * time.Minute

// GoogleCalendar mirrors reminders to Google Calendar.
type GoogleCalendar struct {
	service    *calendar.Service
	calendarID string
	timezone   string
}

// GoogleConfig configures the Google Calendar backend.
type GoogleConfig struct {
	// CredentialsFile is the OAuth client secret JSON
	// (config/google/client_secret.json).
	CredentialsFile string

	// TokenFile holds the authorized user token (config/google/token.json).
	// Obtaining the token interactively is out of band; the server only
	// consumes an existing one.
	TokenFile string

	// CalendarID defaults to "primary".
	CalendarID string

	// Timezone for event times, e.g. "America/New_York".
	Timezone string
}

// NewGoogleCalendar builds a calendar client from stored OAuth credentials.
func NewGoogleCalendar(ctx context.Context, cfg GoogleConfig) (*GoogleCalendar, error) {
	secret, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secret, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tokenRaw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenRaw, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	return &GoogleCalendar{service: svc, calendarID: calendarID, timezone: timezone}, nil
}

// CreateEvent inserts a 15-minute event, with an RRULE when the reminder
// recurs.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, title, description string, start time.Time, recurrence string) (string, error) {
	event := &calendar.Event{
		Summary:     title,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: start.Add(eventDuration).Format(time.RFC3339),
			TimeZone: g.timezone,
		},
	}
	if recurrence != "" && recurrence != "NONE" {
		event.Recurrence = []string{"RRULE:FREQ=" + recurrence}
	}

	created, err := g.service.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event by id. A missing id is a no-op.
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if err := g.service.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// NoopCalendar is used when Google credentials are not configured.
// Reminders still persist locally; calendar mirroring is skipped.
type NoopCalendar struct{}

func (NoopCalendar) CreateEvent(_ context.Context, title, _ string, _ time.Time, _ string) (string, error) {
	log.Printf("[CALENDAR] No calendar configured; reminder %q stored locally only", title)
	return "", nil
}

func (NoopCalendar) DeleteEvent(context.Context, string) error {
	return nil
}
