package calendar

import (
	"net/url"
	"strings"

	"cancelsaga/internal/models"
)

const (
	DefaultEventsMarker    = "/events/"
	DefaultCalendarsMarker = "/calendars/"
)

// RefParser extracts event identifiers from stored external event references.
type RefParser struct {
	EventsMarker    string
	CalendarsMarker string
}

// ParseEventRef parses ref with the default path markers.
func ParseEventRef(ref string) (models.EventRef, bool) {
	return RefParser{}.Parse(ref)
}

// Parse returns the segment following the events marker as the event id and
// the segment following the calendars marker as the calendar id (empty when
// the reference names no calendar). ok is false when no event id can be found.
func (p RefParser) Parse(ref string) (models.EventRef, bool) {
	eventsMarker := p.EventsMarker
	if eventsMarker == "" {
		eventsMarker = DefaultEventsMarker
	}
	calendarsMarker := p.CalendarsMarker
	if calendarsMarker == "" {
		calendarsMarker = DefaultCalendarsMarker
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.EventRef{}, false
	}

	path := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		path = u.EscapedPath()
	}

	eventID, ok := segmentAfter(path, eventsMarker)
	if !ok {
		return models.EventRef{}, false
	}

	var calendarID string
	if id, ok := segmentAfter(path, calendarsMarker); ok {
		calendarID = id
	}

	return models.EventRef{CalendarID: calendarID, EventID: eventID}, true
}

func segmentAfter(path, marker string) (string, bool) {
	idx := strings.LastIndex(path, marker)
	if idx < 0 {
		return "", false
	}
	rest := path[idx+len(marker):]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		rest = rest[:end]
	}
	seg, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(seg) == "" {
		return "", false
	}
	return seg, true
}
