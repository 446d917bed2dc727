package ics

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/caltime"
	"caldr/internal/core"
	"caldr/internal/recur"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	start, err := caltime.New("2025-06-02", "10:00", "Europe/Paris")
	require.NoError(t, err)
	rule, err := recur.Parse("FREQ=WEEKLY;BYDAY=MO")
	require.NoError(t, err)

	tmpl := core.Event{
		UID:         "rt-1",
		Summary:     "Weekly sync, Berlin office",
		Description: "line one\nline two",
		Location:    "Room 4",
		Start:       start,
		End:         start.Add(time.Hour),
		RawRule:     "FREQ=WEEKLY;BYDAY=MO",
		Rule:        &rule,
		ExDates:     []caltime.Time{start.AddDays(14)},
		Organizer:   core.Attendee{Name: "Ana", Email: "ana@example.org"},
		Attendees: []core.Attendee{
			{Name: "Ben", Email: "ben@example.org", Response: core.ResponseAccepted},
		},
		Alarms:   []core.Alarm{{Action: "DISPLAY", Offset: -10 * time.Minute, Description: "soon"}},
		Sequence: 2,
	}
	moved := start.AddDays(7)
	exc := core.Event{
		UID:          "rt-1",
		RecurrenceID: moved,
		Summary:      "Weekly sync, Berlin office",
		Start:        moved,
		End:          moved.Add(time.Hour),
		Status:       core.StatusCancelled,
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []core.Event{tmpl, exc}))

	back, err := Decode(&buf, "UTC")
	require.NoError(t, err)
	require.Len(t, back, 2)

	got := back[0]
	assert.Equal(t, tmpl.UID, got.UID)
	assert.Equal(t, "Weekly sync, Berlin office", got.Summary)
	assert.Equal(t, "line one\nline two", got.Description)
	assert.Equal(t, "Room 4", got.Location)
	assert.Equal(t, 2, got.Sequence)
	assert.Equal(t, "Europe/Paris", got.Start.Zone())
	assert.Equal(t, "2025-06-02 10:00", got.Start.Civil().Format("2006-01-02 15:04"))
	assert.True(t, got.End.Equal(tmpl.End))
	assert.Equal(t, tmpl.RawRule, got.RawRule)
	require.Len(t, got.ExDates, 1)
	assert.True(t, got.ExDates[0].Equal(tmpl.ExDates[0]))
	assert.Equal(t, "Europe/Paris", got.ExDates[0].Zone())
	assert.Equal(t, "ana@example.org", got.Organizer.Email)
	require.Len(t, got.Attendees, 1)
	assert.Equal(t, core.ResponseAccepted, got.Attendees[0].Response)
	require.Len(t, got.Alarms, 1)
	assert.Equal(t, -10*time.Minute, got.Alarms[0].Offset)
	assert.Equal(t, "soon", got.Alarms[0].Description)

	gotExc := back[1]
	assert.True(t, gotExc.IsException())
	assert.True(t, gotExc.RecurrenceID.Equal(moved))
	assert.True(t, gotExc.Cancelled())
}

func TestRoundTripAllDay(t *testing.T) {
	day, err := caltime.Date("2025-06-27")
	require.NoError(t, err)
	e := core.Event{UID: "ad-1", Summary: "Offsite", Start: day, End: day.AddDays(1)}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []core.Event{e}))
	back, err := Decode(&buf, "UTC")
	require.NoError(t, err)
	require.Len(t, back, 1)

	assert.True(t, back[0].AllDay())
	assert.Equal(t, "2025-06-27", back[0].Start.Civil().Format("2006-01-02"))
	assert.Equal(t, "2025-06-28", back[0].End.Civil().Format("2006-01-02"))
}

func TestBuildTimezoneDefinitions(t *testing.T) {
	start, err := caltime.New("2025-06-02", "10:00", "Europe/Paris")
	require.NoError(t, err)
	e := core.Event{UID: "tz-1", Start: start, End: start.Add(time.Hour)}

	cal, err := Build([]core.Event{e})
	require.NoError(t, err)

	var tz *ical.Component
	for _, ch := range cal.Children {
		if ch.Name == ical.CompTimezone {
			tz = ch
		}
	}
	require.NotNil(t, tz)
	assert.Equal(t, "Europe/Paris", tz.Props.Get(ical.PropTimezoneID).Value)

	kinds := map[string]int{}
	var springLocal string
	for _, ob := range tz.Children {
		kinds[ob.Name]++
		if ob.Props.Get(ical.PropTimezoneOffsetTo).Value == "+0200" {
			springLocal = ob.Props.Get(ical.PropDateTimeStart).Value
			assert.Equal(t, "+0100", ob.Props.Get(ical.PropTimezoneOffsetFrom).Value)
		}
	}
	assert.GreaterOrEqual(t, kinds[ical.CompTimezoneStandard], 1)
	assert.GreaterOrEqual(t, kinds[ical.CompTimezoneDaylight], 1)
	assert.Equal(t, "20250330T020000", springLocal,
		"the observance start is the wall time in the offset before the shift")
}

func TestBuildPrunesUnreferencedZones(t *testing.T) {
	paris, err := caltime.New("2025-06-02", "10:00", "Europe/Paris")
	require.NoError(t, err)
	ny, err := caltime.New("2025-06-02", "10:00", "America/New_York")
	require.NoError(t, err)

	countZones := func(cal *ical.Calendar) int {
		n := 0
		for _, ch := range cal.Children {
			if ch.Name == ical.CompTimezone {
				n++
			}
		}
		return n
	}

	both := []core.Event{
		{UID: "z-1", Start: paris, End: paris.Add(time.Hour)},
		{UID: "z-2", Start: ny, End: ny.Add(time.Hour)},
	}
	cal, err := Build(both)
	require.NoError(t, err)
	assert.Equal(t, 2, countZones(cal))

	cal, err = Build(both[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, countZones(cal), "definitions are recomputed from current references")
}

func TestTimezoneDefStableOffsets(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tz, err := timezoneDef("Asia/Kolkata", from, to)
	require.NoError(t, err)
	require.Len(t, tz.Children, 1, "no transitions inside the span")
	assert.Equal(t, ical.CompTimezoneStandard, tz.Children[0].Name)
	assert.Equal(t, "+0530", tz.Children[0].Props.Get(ical.PropTimezoneOffsetTo).Value)

	tz, err = timezoneDef("UTC", from, to)
	require.NoError(t, err)
	require.Len(t, tz.Children, 1)
	assert.Equal(t, "+0000", tz.Children[0].Props.Get(ical.PropTimezoneOffsetTo).Value)

	_, err = timezoneDef("Not/AZone", from, to)
	assert.Error(t, err)
}
