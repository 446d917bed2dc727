package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/caltime"
)

func mustTime(t *testing.T, date, clock, zone string) caltime.Time {
	t.Helper()
	v, err := caltime.New(date, clock, zone)
	require.NoError(t, err)
	return v
}

func TestEncodeParseRoundTrip(t *testing.T) {
	until := caltime.FromInstant(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		rule Rule
	}{
		{"plain daily", New(Daily)},
		{"daily interval", New(Daily).WithCount(10)},
		{"every other week", Rule{Freq: Weekly, Interval: 2, ByDay: []time.Weekday{time.Monday, time.Wednesday}}},
		{"weekly no day set", New(Weekly)},
		{"weekly until", New(Weekly).WithUntil(until)},
		{"monthly on 15th", Rule{Freq: Monthly, Interval: 1, ByMonthDay: 15}},
		{"monthly on 31st", Rule{Freq: Monthly, Interval: 1, ByMonthDay: 31}},
		{"yearly in june", Rule{Freq: Yearly, Interval: 1, ByMonth: time.June, ByMonthDay: 27}},
		{"three-year cadence", Rule{Freq: Yearly, Interval: 3, Count: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := tt.rule.Encode()
			require.NoError(t, err)
			back, err := Parse(wire)
			require.NoError(t, err)
			assert.True(t, back.Equal(tt.rule), "wire %q: got %+v, want %+v", wire, back, tt.rule)
		})
	}
}

func TestEncodeRejectsContractViolations(t *testing.T) {
	until := caltime.FromInstant(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	_, err := Rule{Freq: Daily}.Encode()
	assert.Error(t, err, "zero interval must be rejected")

	_, err = Rule{Freq: Daily, Interval: -2}.Encode()
	assert.Error(t, err, "negative interval must be rejected")

	_, err = Rule{Freq: Weekly, Interval: 1, Count: 3, Until: until}.Encode()
	assert.Error(t, err, "count and until together must be rejected")

	_, err = Rule{Freq: Monthly, Interval: 1, ByMonthDay: 32}.Encode()
	assert.Error(t, err)
}

func TestWeeklyEmptyDaySetIsNotFabricated(t *testing.T) {
	wire, err := New(Weekly).Encode()
	require.NoError(t, err)
	assert.NotContains(t, wire, "BYDAY", "empty day set must fall back to the start's weekday on the wire, not a fabricated set")

	back, err := Parse(wire)
	require.NoError(t, err)
	assert.Empty(t, back.ByDay)
}

func TestByMonthDayHighValuesFlaggedNotClamped(t *testing.T) {
	r := Rule{Freq: Monthly, Interval: 1, ByMonthDay: 31}
	wire, err := r.Encode()
	require.NoError(t, err)
	assert.Contains(t, wire, "BYMONTHDAY=31")
	assert.NotEmpty(t, r.Problems())

	assert.Empty(t, Rule{Freq: Monthly, Interval: 1, ByMonthDay: 15}.Problems())
}

func TestSetFrequencyResetsSelections(t *testing.T) {
	until := caltime.FromInstant(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	weekly := Rule{
		Freq:     Weekly,
		Interval: 2,
		ByDay:    []time.Weekday{time.Monday, time.Friday},
	}.WithUntil(until)

	monthly := weekly.SetFrequency(Monthly)
	assert.Equal(t, Monthly, monthly.Freq)
	assert.Empty(t, monthly.ByDay)
	assert.Zero(t, monthly.ByMonthDay)
	assert.Zero(t, monthly.ByMonth)
	assert.Equal(t, 2, monthly.Interval, "interval carries over")
	assert.True(t, monthly.Until.Equal(until), "end condition carries over")
}

func TestEndConditionMutualExclusivity(t *testing.T) {
	until := caltime.FromInstant(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	r := New(Daily).WithCount(5)
	assert.Equal(t, 5, r.Count)
	assert.True(t, r.Until.IsZero())

	r = r.WithUntil(until)
	assert.Zero(t, r.Count)
	assert.False(t, r.Until.IsZero())

	r = r.WithCount(3)
	assert.Equal(t, 3, r.Count)
	assert.True(t, r.Until.IsZero())

	r = r.Unbounded()
	assert.Zero(t, r.Count)
	assert.True(t, r.Until.IsZero())
}

func TestParseForeignRules(t *testing.T) {
	// Day order as authored.
	r, err := Parse("FREQ=WEEKLY;BYDAY=FR,MO")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Friday, time.Monday}, r.ByDay)
	assert.Equal(t, 1, r.Interval)

	// An RRULE: prefix is tolerated.
	r, err = Parse("RRULE:FREQ=MONTHLY;BYMONTHDAY=3")
	require.NoError(t, err)
	assert.Equal(t, Monthly, r.Freq)
	assert.Equal(t, 3, r.ByMonthDay)

	_, err = Parse("FREQ=HOURLY;INTERVAL=6")
	assert.Error(t, err, "sub-daily frequencies are outside the editable model")

	_, err = Parse("")
	assert.Error(t, err)
}

func TestExpandWeeklyWithExclusion(t *testing.T) {
	start := mustTime(t, "2025-06-02", "10:00", "Europe/Paris") // a Monday
	ex := mustTime(t, "2025-06-04", "10:00", "Europe/Paris")

	occ, err := Expand("FREQ=WEEKLY;BYDAY=MO,WE", start, []caltime.Time{ex},
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)

	var got []string
	for _, o := range occ {
		got = append(got, o.Civil().Format("2006-01-02 15:04"))
		assert.Equal(t, "Europe/Paris", o.Zone())
	}
	assert.Equal(t, []string{"2025-06-02 10:00", "2025-06-09 10:00", "2025-06-11 10:00"}, got)
}

func TestExpandKeepsWallClockAcrossDST(t *testing.T) {
	start := mustTime(t, "2025-03-24", "10:00", "Europe/Paris") // Monday before spring-forward
	occ, err := Expand("FREQ=WEEKLY;BYDAY=MO", start, nil,
		time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, occ, 2)

	assert.Equal(t, "10:00", occ[0].Civil().Format("15:04"))
	assert.Equal(t, "10:00", occ[1].Civil().Format("15:04"), "wall clock holds across the transition")
	assert.NotEqual(t, occ[0].Offset(), occ[1].Offset())
}

func TestExpandAllDay(t *testing.T) {
	start, err := caltime.Date("2025-06-27")
	require.NoError(t, err)

	occ, err := Expand("FREQ=DAILY;COUNT=3", start, nil,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	for i, want := range []string{"2025-06-27", "2025-06-28", "2025-06-29"} {
		assert.True(t, occ[i].AllDay())
		assert.Equal(t, want, occ[i].Civil().Format("2006-01-02"))
	}
}

func TestExpandCap(t *testing.T) {
	start := mustTime(t, "2025-01-01", "09:00", "UTC")
	occ, err := Expand("FREQ=DAILY", start, nil,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Len(t, occ, 10)
}

func TestSummary(t *testing.T) {
	until := caltime.FromInstant(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		rule Rule
		want string
	}{
		{New(Daily), "every day"},
		{Rule{Freq: Weekly, Interval: 2, ByDay: []time.Weekday{time.Monday, time.Wednesday}}, "every 2 weeks on Monday, Wednesday"},
		{Rule{Freq: Monthly, Interval: 1, ByMonthDay: 31}, "every month on day 31"},
		{Rule{Freq: Yearly, Interval: 1, ByMonth: time.June, ByMonthDay: 27}, "every year on day 27 in June"},
		{New(Daily).WithCount(10), "every day, 10 times"},
		{New(Weekly).WithUntil(until), "every week until Jun 30, 2025"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rule.Summary(English))
	}
}
