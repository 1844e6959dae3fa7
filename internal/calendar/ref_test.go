package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventRef(t *testing.T) {
	tests := []struct {
		name         string
		ref          string
		wantOK       bool
		wantEvent    string
		wantCalendar string
	}{
		{
			name:         "api url",
			ref:          "https://www.googleapis.com/calendar/v3/calendars/studio%40group.calendar.google.com/events/abc123",
			wantOK:       true,
			wantEvent:    "abc123",
			wantCalendar: "studio@group.calendar.google.com",
		},
		{
			name:      "no calendar segment",
			ref:       "https://scheduler.example.com/events/evt_77?tab=details",
			wantOK:    true,
			wantEvent: "evt_77",
		},
		{
			name:         "trailing path after id",
			ref:          "https://x.test/calendars/primary/events/evt1/instances",
			wantOK:       true,
			wantEvent:    "evt1",
			wantCalendar: "primary",
		},
		{name: "relative path", ref: "/calendars/c1/events/e1", wantOK: true, wantEvent: "e1", wantCalendar: "c1"},
		{name: "marker missing", ref: "https://x.test/bookings/123", wantOK: false},
		{name: "marker with empty segment", ref: "https://x.test/events/", wantOK: false},
		{name: "empty", ref: "", wantOK: false},
		{name: "garbage", ref: "::not a url::", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEventRef(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantEvent, got.EventID)
			assert.Equal(t, tt.wantCalendar, got.CalendarID)
		})
	}
}

func TestRefParserCustomMarker(t *testing.T) {
	p := RefParser{EventsMarker: "/appointments/"}

	got, ok := p.Parse("https://book.example.com/partner/9/appointments/ap-55")
	assert.True(t, ok)
	assert.Equal(t, "ap-55", got.EventID)

	_, ok = p.Parse("https://book.example.com/events/ap-55")
	assert.False(t, ok)
}
