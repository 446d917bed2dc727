package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/core"
)

func toCRLF(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func decodeStr(t *testing.T, s, floatingZone string) []core.Event {
	t.Helper()
	evs, err := Decode(strings.NewReader(toCRLF(s)), floatingZone)
	require.NoError(t, err)
	return evs
}

func TestDecodeTimedEvent(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:evt-1
DTSTAMP:20250601T120000Z
DTSTART;TZID=Europe/Paris:20250627T100000
DTEND;TZID=Europe/Paris:20250627T110000
SUMMARY:Lunch\, then sync
LOCATION:Cafe
DESCRIPTION:bring the notes
STATUS:TENTATIVE
SEQUENCE:3
ORGANIZER;CN=Ana:mailto:ana@example.org
ATTENDEE;CN=Ben;PARTSTAT=ACCEPTED:mailto:ben@example.org
ATTENDEE;PARTSTAT=DECLINED:mailto:cid@example.org
BEGIN:VALARM
ACTION:DISPLAY
TRIGGER:-PT15M
END:VALARM
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 1)
	e := evs[0]

	assert.Equal(t, "evt-1", e.UID)
	assert.Equal(t, "Lunch, then sync", e.Summary, "escaped text is unescaped")
	assert.Equal(t, "Cafe", e.Location)
	assert.Equal(t, "bring the notes", e.Description)
	assert.Equal(t, core.StatusTentative, e.Status)
	assert.Equal(t, 3, e.Sequence)

	assert.Equal(t, "Europe/Paris", e.Start.Zone())
	assert.Equal(t, "2025-06-27 10:00", e.Start.Civil().Format("2006-01-02 15:04"))
	assert.Equal(t, time.Hour, e.Duration())
	assert.False(t, e.AllDay())

	assert.Equal(t, "ana@example.org", e.Organizer.Email)
	assert.Equal(t, "Ana", e.Organizer.Name)
	require.Len(t, e.Attendees, 2)
	assert.Equal(t, core.ResponseAccepted, e.Attendees[0].Response)
	assert.Equal(t, core.ResponseDeclined, e.Attendees[1].Response)

	require.Len(t, e.Alarms, 1)
	assert.Equal(t, "DISPLAY", e.Alarms[0].Action)
	assert.Equal(t, -15*time.Minute, e.Alarms[0].Offset)
}

func TestDecodeAllDayDefaultsEnd(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:day-1
DTSTAMP:20250601T120000Z
DTSTART;VALUE=DATE:20250627
SUMMARY:Field day
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 1)
	e := evs[0]
	assert.True(t, e.AllDay())
	assert.Equal(t, "2025-06-27", e.Start.Civil().Format("2006-01-02"))
	assert.Equal(t, "2025-06-28", e.End.Civil().Format("2006-01-02"), "missing end defaults to one day")
}

func TestDecodeDurationEnd(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:dur-1
DTSTAMP:20250601T120000Z
DTSTART:20250627T100000Z
DURATION:PT1H30M
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 1)
	assert.Equal(t, 90*time.Minute, evs[0].Duration())
}

func TestDecodeFloatingUsesConfiguredZone(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:float-1
DTSTAMP:20250601T120000Z
DTSTART:20250627T100000
DTEND:20250627T110000
END:VEVENT
END:VCALENDAR
`, "Europe/Berlin")
	require.Len(t, evs, 1)
	assert.Equal(t, "Europe/Berlin", evs[0].Start.Zone())
	assert.Equal(t, "10:00", evs[0].Start.Civil().Format("15:04"))
}

func TestDecodeRecurringSeriesWithException(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:ser-1
DTSTAMP:20250601T120000Z
DTSTART;TZID=Europe/Paris:20250602T100000
DTEND;TZID=Europe/Paris:20250602T110000
RRULE:FREQ=WEEKLY;BYDAY=MO
EXDATE;TZID=Europe/Paris:20250616T100000
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:ser-1
DTSTAMP:20250601T120000Z
RECURRENCE-ID;TZID=Europe/Paris:20250609T100000
DTSTART;TZID=Europe/Paris:20250609T140000
DTEND;TZID=Europe/Paris:20250609T150000
SUMMARY:Standup (moved)
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 2)

	tmpl, exc := evs[0], evs[1]
	assert.True(t, tmpl.Recurs())
	assert.False(t, tmpl.IsException())
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", tmpl.RawRule)
	require.NotNil(t, tmpl.Rule)
	assert.Equal(t, []time.Weekday{time.Monday}, tmpl.Rule.ByDay)
	require.Len(t, tmpl.ExDates, 1)
	assert.Equal(t, "2025-06-16 10:00", tmpl.ExDates[0].Civil().Format("2006-01-02 15:04"))

	assert.True(t, exc.IsException())
	assert.Equal(t, tmpl.UID, exc.UID)
	assert.Equal(t, "2025-06-09 10:00", exc.RecurrenceID.Civil().Format("2006-01-02 15:04"))
	assert.Equal(t, "14:00", exc.Start.Civil().Format("15:04"))
	assert.NotEqual(t, tmpl.Identity(), exc.Identity())
}

func TestDecodeKeepsUnreducibleRuleRaw(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:raw-1
DTSTAMP:20250601T120000Z
DTSTART:20250602T100000Z
DTEND:20250602T110000Z
RRULE:FREQ=HOURLY;INTERVAL=6
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 1)
	assert.Equal(t, "FREQ=HOURLY;INTERVAL=6", evs[0].RawRule)
	assert.Nil(t, evs[0].Rule, "sub-daily rules stay raw-only")
}

func TestDecodeSkipsMalformedEvents(t *testing.T) {
	evs := decodeStr(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:good-1
DTSTAMP:20250601T120000Z
DTSTART:20250627T100000Z
DTEND:20250627T110000Z
END:VEVENT
BEGIN:VEVENT
UID:bad-1
DTSTAMP:20250601T120000Z
SUMMARY:no start
END:VEVENT
END:VCALENDAR
`, "UTC")
	require.Len(t, evs, 1, "the broken event is dropped, the rest survive")
	assert.Equal(t, "good-1", evs[0].UID)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"P1D", 24 * time.Hour},
		{"PT15M", 15 * time.Minute},
		{"-PT15M", -15 * time.Minute},
		{"PT1H30M", 90 * time.Minute},
		{"P1DT12H", 36 * time.Hour},
		{"P2W", 14 * 24 * time.Hour},
		{"+PT30S", 30 * time.Second},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "15M", "P", "P1X", "PT", "PTT1M", "P1H"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{24 * time.Hour, "P1D"},
		{-15 * time.Minute, "-PT15M"},
		{90 * time.Minute, "PT1H30M"},
		{36*time.Hour + 30*time.Minute, "P1DT12H30M"},
		{0, "PT0S"},
		{45 * time.Second, "PT45S"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
