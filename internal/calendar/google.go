// Package calendar cancels partner calendar events linked to bookings.
package calendar

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/config"
	"cancelsaga/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

var ErrMissingCredential = errors.New("calendar credential has no access token")

// GoogleCanceller marks Google Calendar events cancelled using the partner's
// own OAuth token.
type GoogleCanceller struct {
	endpoint    string
	sendUpdates string
	extraOpts   []option.ClientOption
	logger      *zerolog.Logger
}

func NewGoogleCanceller(cfg config.CalendarConfig, logger *zerolog.Logger, opts ...option.ClientOption) *GoogleCanceller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &GoogleCanceller{
		endpoint:    cfg.Endpoint,
		sendUpdates: cfg.SendUpdates,
		extraOpts:   opts,
		logger:      logger,
	}
}

func (g *GoogleCanceller) CancelScheduledEvent(ctx context.Context, cred *models.PartnerIntegration, ref models.EventRef, reason string) error {
	if cred == nil || cred.AccessToken == "" {
		return ErrMissingCredential
	}

	calendarID := ref.CalendarID
	if calendarID == "" && cred.CalendarID.Valid {
		calendarID = cred.CalendarID.String
	}
	if calendarID == "" {
		calendarID = primaryCalendar
	}

	svc, err := g.service(ctx, cred.AccessToken)
	if err != nil {
		return fmt.Errorf("unable to create calendar service: %w", err)
	}

	patch := &gcal.Event{Status: "cancelled"}
	if reason != "" {
		patch.Description = "Cancelled: " + reason
	}

	call := svc.Events.Patch(calendarID, ref.EventID, patch).Context(ctx)
	if g.sendUpdates != "" {
		call = call.SendUpdates(g.sendUpdates)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("cancel calendar event %s: %w", ref.EventID, err)
	}

	g.logger.Info().
		Str("calendar_id", calendarID).
		Str("event_id", ref.EventID).
		Int64("partner_id", cred.PartnerID).
		Msg("calendar event cancelled")
	return nil
}

func (g *GoogleCanceller) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	opts = append(opts, g.extraOpts...)
	return gcal.NewService(ctx, opts...)
}
