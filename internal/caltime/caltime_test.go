package caltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesInstantFromZoneOffset(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
		zone  string
		want  string // RFC3339 instant
	}{
		{"paris winter", "2025-03-29", "01:30", "Europe/Paris", "2025-03-29T00:30:00Z"},
		{"paris summer", "2025-06-27", "10:00", "Europe/Paris", "2025-06-27T08:00:00Z"},
		{"new york", "2025-06-27", "10:00", "America/New_York", "2025-06-27T14:00:00Z"},
		{"utc", "2025-06-27", "10:00", "UTC", "2025-06-27T10:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.date, tt.clock, tt.zone)
			require.NoError(t, err)
			want, err := time.Parse(time.RFC3339, tt.want)
			require.NoError(t, err)
			assert.True(t, v.Instant().Equal(want), "instant = %v, want %v", v.Instant(), want)
			assert.Equal(t, tt.zone, v.Zone())
		})
	}
}

func TestShadowInvariant(t *testing.T) {
	// instant must equal the civil fields interpreted with the recorded
	// offset, for plain values and for values built near a transition.
	for _, tc := range []struct{ date, clock, zone string }{
		{"2025-03-29", "01:30", "Europe/Paris"},
		{"2025-03-30", "02:30", "Europe/Paris"}, // skipped by spring-forward
		{"2025-10-26", "02:30", "Europe/Paris"}, // repeated by fall-back
		{"2025-01-15", "09:00", "Asia/Kolkata"},
	} {
		v, err := New(tc.date, tc.clock, tc.zone)
		require.NoError(t, err)
		civil := v.Civil()
		resolved := time.Date(civil.Year(), civil.Month(), civil.Day(),
			civil.Hour(), civil.Minute(), civil.Second(), 0, time.UTC).
			Add(-time.Duration(v.Offset()) * time.Second)
		assert.True(t, v.Instant().Equal(resolved),
			"%s %s %s: instant %v != civil@offset %v", tc.date, tc.clock, tc.zone, v.Instant(), resolved)
	}
}

func TestAddRoundTrip(t *testing.T) {
	v, err := New("2025-03-29", "23:00", "Europe/Paris")
	require.NoError(t, err)
	for _, d := range []time.Duration{time.Minute, 3 * time.Hour, 24 * time.Hour, 14 * 24 * time.Hour} {
		back := v.Add(d).Add(-d)
		assert.True(t, back.Instant().Equal(v.Instant()), "offset by %v then -%v drifted", d, d)
	}
}

func TestAddRederivesCivilAcrossDST(t *testing.T) {
	// 02:30 on the 29th exists; +24h on the instant lands after the
	// spring-forward, so the wall clock must move to 03:30.
	v, err := New("2025-03-29", "02:30", "Europe/Paris")
	require.NoError(t, err)
	next := v.Add(24 * time.Hour)
	assert.Equal(t, "03:30", next.Civil().Format("15:04"))
	assert.Equal(t, "Europe/Paris", next.Zone())
}

func TestAddWallKeepsCivilClockAcrossDST(t *testing.T) {
	// Event start 2025-03-29T01:30 Europe/Paris, 60 minutes long. Moving
	// the end forward one civil day crosses the spring-forward; the wall
	// clock must still read 02:30 even though that day's offset differs.
	start, err := New("2025-03-29", "01:30", "Europe/Paris")
	require.NoError(t, err)
	end := start.AddWall(time.Hour)
	require.Equal(t, "02:30", end.Civil().Format("15:04"))

	moved := end.AddWall(24 * time.Hour)
	assert.Equal(t, "2025-03-30 02:30", moved.Civil().Format("2006-01-02 15:04"))
	assert.NotEqual(t, end.Offset(), moved.Offset(), "offsets should differ across the transition")

	// The recorded offset still satisfies the shadow invariant.
	civil := moved.Civil()
	resolved := time.Date(civil.Year(), civil.Month(), civil.Day(),
		civil.Hour(), civil.Minute(), civil.Second(), 0, time.UTC).
		Add(-time.Duration(moved.Offset()) * time.Second)
	assert.True(t, moved.Instant().Equal(resolved))
}

func TestMovePreservesWallClockInOriginalZone(t *testing.T) {
	start, err := New("2025-06-02", "10:00", "America/New_York")
	require.NoError(t, err)
	end, err := New("2025-06-02", "10:30", "America/New_York")
	require.NoError(t, err)

	delta := 4 * time.Hour
	newStart := start.AddWall(delta)
	newEnd := end.AddWall(delta)

	assert.Equal(t, "14:00", newStart.Civil().Format("15:04"))
	assert.Equal(t, "14:30", newEnd.Civil().Format("15:04"))
	assert.Equal(t, "America/New_York", newStart.Zone())
}

func TestAllDayGridShiftRoundTrip(t *testing.T) {
	v, err := Date("2025-06-27")
	require.NoError(t, err)

	zones := []string{"Pacific/Auckland", "America/Los_Angeles", "UTC", "Asia/Kathmandu"}
	for _, z := range zones {
		loc, err := time.LoadLocation(z)
		require.NoError(t, err)

		g := v.ToGrid(loc)
		// The grid renders wall clocks in loc; the shifted value must sit
		// at loc's midnight of the civil date.
		assert.Equal(t, "2025-06-27 00:00", g.In(loc).Format("2006-01-02 15:04"), "zone %s", z)

		back := FromGrid(g, true)
		assert.True(t, back.AllDay())
		assert.True(t, back.Instant().Equal(v.Instant()), "zone %s: round trip drifted", z)
	}
}

func TestTimedGridShiftIsIdentity(t *testing.T) {
	v, err := New("2025-06-27", "10:00", "Europe/Paris")
	require.NoError(t, err)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, v.ToGrid(loc).Equal(v.Instant()))
}

func TestAllDayArithmeticStaysCivil(t *testing.T) {
	v, err := Date("2025-06-27")
	require.NoError(t, err)
	next := v.AddDays(1)
	assert.True(t, next.AllDay())
	assert.Equal(t, "2025-06-28", next.Civil().Format("2006-01-02"))
	// Wall-clock add of a fractional day must not smear an all-day value.
	same := v.AddWall(23 * time.Hour)
	assert.Equal(t, "2025-06-27", same.Civil().Format("2006-01-02"))
}

func TestParseICal(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		tzid    string
		isDate  bool
		allDay  bool
		zone    string
		instant string
	}{
		{"date value", "20250627", "", true, true, "", "2025-06-27T00:00:00Z"},
		{"utc value", "20250329T003000Z", "", false, false, "", "2025-03-29T00:30:00Z"},
		{"zoned value", "20250329T013000", "Europe/Paris", false, false, "Europe/Paris", "2025-03-29T00:30:00Z"},
		{"floating value", "20250329T013000", "", false, false, "Europe/Berlin", "2025-03-29T00:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseICal(tt.value, tt.tzid, tt.isDate, "Europe/Berlin")
			require.NoError(t, err)
			assert.Equal(t, tt.allDay, v.AllDay())
			assert.Equal(t, tt.zone, v.Zone())
			want, err := time.Parse(time.RFC3339, tt.instant)
			require.NoError(t, err)
			assert.True(t, v.Instant().Equal(want), "instant = %v, want %v", v.Instant(), want)
		})
	}

	_, err := ParseICal("garbage", "", false, "UTC")
	assert.Error(t, err)
}

func TestICalRoundTrip(t *testing.T) {
	for _, tc := range []struct{ date, clock, zone string }{
		{"2025-06-27", "", ""},
		{"2025-03-29", "01:30", "Europe/Paris"},
		{"2025-12-24", "18:00", "America/New_York"},
	} {
		var v Time
		var err error
		if tc.clock == "" {
			v, err = Date(tc.date)
		} else {
			v, err = New(tc.date, tc.clock, tc.zone)
		}
		require.NoError(t, err)

		value, tzid, isDate := v.ICal()
		back, err := ParseICal(value, tzid, isDate, "UTC")
		require.NoError(t, err)
		assert.True(t, back.Instant().Equal(v.Instant()), "%+v", tc)
		assert.Equal(t, v.AllDay(), back.AllDay())
		assert.Equal(t, v.Zone(), back.Zone())
	}

	// Bare instants serialize in the UTC form.
	bare := FromInstant(time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC))
	value, tzid, isDate := bare.ICal()
	assert.Equal(t, "20250627T080000Z", value)
	assert.Empty(t, tzid)
	assert.False(t, isDate)
}
