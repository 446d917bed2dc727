// Package caltime models calendar date-times as an absolute instant plus
// an optional "local shadow": the civil date-time, IANA zone id, and UTC
// offset the value was written with. Keeping the shadow alongside the
// instant lets timezone-aware and all-day values round-trip through wire
// payloads without losing the zone they were authored in.
package caltime

import (
	"fmt"
	"time"
)

// iCalendar value layouts.
const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
	layoutUTC      = "20060102T150405Z"
)

// Time is an absolute instant with an optional local shadow.
//
// Three shapes exist:
//   - timed with shadow: instant + civil fields + zone id + offset
//   - timed without shadow: bare instant (wire form was UTC)
//   - all-day: civil date only, no clock, no zone; the instant is pinned
//     to that date's midnight UTC so values stay comparable
//
// Invariant: when the shadow is present, the instant equals the civil
// date-time interpreted in the zone using the recorded offset. The offset
// is recorded, not re-derived on read, because near DST transitions the
// zone's offset at the instant can differ from the offset the civil time
// was resolved with.
type Time struct {
	instant time.Time
	loc     *time.Location
	zone    string
	offset  int // seconds east of UTC
	allDay  bool
}

// New builds a value from a civil date ("2006-01-02"), a civil clock
// ("15:04" or "15:04:05"), and an IANA zone id. An empty clock yields an
// all-day value and the zone is ignored.
func New(date, clock, zone string) (Time, error) {
	if clock == "" {
		return Date(date)
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Time{}, fmt.Errorf("parse civil date %q: %w", date, err)
	}
	c, err := parseClock(clock)
	if err != nil {
		return Time{}, err
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Time{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	return resolve(d.Year(), d.Month(), d.Day(), c.h, c.m, c.s, zone, loc), nil
}

// Date builds an all-day value from a civil date ("2006-01-02").
func Date(date string) (Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Time{}, fmt.Errorf("parse civil date %q: %w", date, err)
	}
	return DateOf(d.Year(), d.Month(), d.Day()), nil
}

// DateOf builds an all-day value from civil date fields.
func DateOf(y int, mo time.Month, d int) Time {
	return Time{
		instant: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		allDay:  true,
	}
}

// FromInstant wraps a bare instant with no local shadow.
func FromInstant(t time.Time) Time {
	return Time{instant: t.UTC()}
}

// InZone wraps an instant and derives its local shadow in the given zone.
func InZone(t time.Time, zone string) (Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Time{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	local := t.In(loc)
	_, off := local.Zone()
	return Time{instant: t.UTC(), loc: loc, zone: zone, offset: off}, nil
}

type clock struct{ h, m, s int }

func parseClock(s string) (clock, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return clock{}, fmt.Errorf("parse civil clock %q: %w", s, err)
	}
	return clock{t.Hour(), t.Minute(), t.Second()}, nil
}

// resolve turns civil fields plus a zone into an instant and the offset
// the civil time was resolved with. For wall clocks skipped or repeated
// by a DST transition the offset the runtime picks is recorded, keeping
// the civil view equal to what the caller wrote.
func resolve(y int, mo time.Month, d, hh, mm, ss int, zone string, loc *time.Location) Time {
	probe := time.Date(y, mo, d, hh, mm, ss, 0, loc)
	_, off := probe.Zone()
	civilUTC := time.Date(y, mo, d, hh, mm, ss, 0, time.UTC)
	return Time{
		instant: civilUTC.Add(-time.Duration(off) * time.Second),
		loc:     loc,
		zone:    zone,
		offset:  off,
	}
}

// IsZero reports whether t is the zero value.
func (t Time) IsZero() bool { return t.instant.IsZero() && !t.allDay }

// Instant returns the absolute instant in UTC.
func (t Time) Instant() time.Time { return t.instant }

// AllDay reports whether t carries a civil date only.
func (t Time) AllDay() bool { return t.allDay }

// HasShadow reports whether t carries a local shadow.
func (t Time) HasShadow() bool { return t.zone != "" }

// Zone returns the IANA zone id of the local shadow, or "" without one.
func (t Time) Zone() string { return t.zone }

// Offset returns the recorded UTC offset in seconds, or 0 without a shadow.
func (t Time) Offset() int { return t.offset }

// Location returns the shadow's location, or UTC without one.
func (t Time) Location() *time.Location {
	if t.loc != nil {
		return t.loc
	}
	return time.UTC
}

// Civil returns the civil view of t: a time.Time whose wall fields are
// the shadow's civil date-time. For an all-day value this is the date's
// midnight; for a bare instant it is the instant itself in UTC.
func (t Time) Civil() time.Time {
	if t.zone == "" {
		return t.instant
	}
	return t.instant.In(time.FixedZone(t.zone, t.offset))
}

// Add offsets t by d on the instant. The shadow's zone id is retained and
// its civil fields and offset are re-derived at the new instant, so
// crossing a DST transition changes the rendered wall clock. All-day
// values delegate to AddWall to keep their arithmetic civil.
func (t Time) Add(d time.Duration) Time {
	if t.allDay {
		return t.AddWall(d)
	}
	instant := t.instant.Add(d)
	if t.zone == "" {
		return Time{instant: instant}
	}
	_, off := instant.In(t.loc).Zone()
	return Time{instant: instant, loc: t.loc, zone: t.zone, offset: off}
}

// AddWall offsets t by d on the civil fields: the wall clock moves by
// exactly d even when the zone's offset changes in between, and the
// instant plus offset are re-resolved in the retained zone. All-day
// values shift by whole days (the remainder of d is dropped).
func (t Time) AddWall(d time.Duration) Time {
	if t.allDay {
		return t.AddDays(int(d / (24 * time.Hour)))
	}
	if t.zone == "" {
		return Time{instant: t.instant.Add(d)}
	}
	c := t.Civil().Add(d)
	return resolve(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), c.Second(), t.zone, t.loc)
}

// AddDays shifts t by n civil days. Timed values keep their wall clock
// (AddWall semantics); all-day values move date to date.
func (t Time) AddDays(n int) Time {
	if t.allDay {
		d := t.instant.AddDate(0, 0, n)
		return Time{instant: d, allDay: true}
	}
	if t.zone == "" {
		return Time{instant: t.instant.AddDate(0, 0, n)}
	}
	c := t.Civil().AddDate(0, 0, n)
	return resolve(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), c.Second(), t.zone, t.loc)
}

// Before reports whether t's instant is before u's.
func (t Time) Before(u Time) bool { return t.instant.Before(u.instant) }

// After reports whether t's instant is after u's.
func (t Time) After(u Time) bool { return t.instant.After(u.instant) }

// Equal reports whether t and u denote the same instant.
func (t Time) Equal(u Time) bool { return t.instant.Equal(u.instant) }

// Sub returns the duration t-u between the instants.
func (t Time) Sub(u Time) time.Duration { return t.instant.Sub(u.instant) }

// ToGrid returns the value a rendering grid should position t at when the
// grid displays wall clocks in loc. Timed values pass through as their
// instant. All-day values are re-interpreted as loc's midnight of the
// civil date, so the grid keeps them on the right date regardless of the
// viewer's offset. The shift is display-only: reverse it with FromGrid
// before anything is persisted, and never apply it twice.
func (t Time) ToGrid(loc *time.Location) time.Time {
	if !t.allDay {
		return t.instant
	}
	y, mo, d := t.instant.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}

// FromGrid reverses ToGrid. For all-day values the civil date is read
// from g in g's own location; timed values are taken as bare instants.
func FromGrid(g time.Time, allDay bool) Time {
	if !allDay {
		return FromInstant(g)
	}
	y, mo, d := g.Date()
	return DateOf(y, mo, d)
}

// ParseICal interprets an iCalendar DATE or DATE-TIME property value.
// The tzid parameter carries the property's TZID when present; isDate
// marks VALUE=DATE. Floating date-times (no TZID, no trailing Z) are
// resolved in floatingZone.
func ParseICal(value, tzid string, isDate bool, floatingZone string) (Time, error) {
	if isDate || len(value) == len(layoutDate) {
		d, err := time.Parse(layoutDate, value)
		if err != nil {
			return Time{}, fmt.Errorf("parse date value %q: %w", value, err)
		}
		return Time{
			instant: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			allDay:  true,
		}, nil
	}
	if tzid == "" && len(value) == len(layoutUTC) && value[len(value)-1] == 'Z' {
		u, err := time.Parse(layoutUTC, value)
		if err != nil {
			return Time{}, fmt.Errorf("parse utc value %q: %w", value, err)
		}
		return FromInstant(u), nil
	}
	zone := tzid
	if zone == "" {
		zone = floatingZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Time{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	c, err := time.Parse(layoutDateTime, value)
	if err != nil {
		return Time{}, fmt.Errorf("parse date-time value %q: %w", value, err)
	}
	return resolve(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), c.Second(), zone, loc), nil
}

// ICal renders t as an iCalendar property value. The returned tzid is
// non-empty for shadowed values and must be emitted as the property's
// TZID parameter; isDate marks an all-day DATE value. Bare instants
// render in the UTC form.
func (t Time) ICal() (value, tzid string, isDate bool) {
	if t.allDay {
		return t.instant.Format(layoutDate), "", true
	}
	if t.zone == "" {
		return t.instant.UTC().Format(layoutUTC), "", false
	}
	return t.Civil().Format(layoutDateTime), t.zone, false
}

// String renders t for logs.
func (t Time) String() string {
	switch {
	case t.allDay:
		return t.instant.Format("2006-01-02") + " (all day)"
	case t.zone == "":
		return t.instant.Format(time.RFC3339)
	default:
		return t.Civil().Format("2006-01-02T15:04:05") + " " + t.zone
	}
}
