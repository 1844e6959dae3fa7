package service

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/calendar"
	"cancelsaga/internal/database"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"
)

// CalendarSync cancels the partner calendar event a booking was imported from.
type CalendarSync struct {
	integrations domain.IntegrationStore
	canceller    domain.CalendarCanceller
	parser       calendar.RefParser
}

func NewCalendarSync(integrations domain.IntegrationStore, canceller domain.CalendarCanceller, parser calendar.RefParser) *CalendarSync {
	return &CalendarSync{integrations: integrations, canceller: canceller, parser: parser}
}

func (c *CalendarSync) Applies(view *models.BookingView) bool {
	return view.FromExternalCalendar()
}

func (c *CalendarSync) Cancel(ctx context.Context, view *models.BookingView, reason string) (string, error) {
	if view.ExternalEventRef == nil || *view.ExternalEventRef == "" {
		return "", drop("booking has no external event reference")
	}
	ref, ok := c.parser.Parse(*view.ExternalEventRef)
	if !ok {
		return "", drop("unrecognised external event reference %q", *view.ExternalEventRef)
	}

	cred, err := c.integrations.GetPartnerIntegration(ctx, view.Partner.ID, models.ProviderGoogleCalendar)
	if err != nil {
		if errors.Is(err, database.ErrIntegrationNotFound) {
			return "", drop("partner %d has no calendar credential", view.Partner.ID)
		}
		return "", fmt.Errorf("load calendar credential: %w", err)
	}

	if err := c.canceller.CancelScheduledEvent(ctx, cred, ref, reason); err != nil {
		return "", err
	}
	return "event " + ref.EventID + " cancelled", nil
}
