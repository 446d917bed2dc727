package recur

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"caldr/internal/caltime"
)

// Safety cap so a malformed unbounded rule cannot expand forever.
const defaultMaxOccurrences = 1000

// Expand computes the occurrence starts of a recurring series within
// [from, to], both inclusive. The raw wire rule is used as-is so options
// beyond the editable model (ordinal weekdays, set positions) keep their
// grammar semantics; exdates are excluded by instant. Occurrence values
// inherit the template start's shape: its zone for shadowed starts, the
// civil date for all-day starts. max caps the expansion, with a default
// when it is not positive.
func Expand(wire string, start caltime.Time, exdates []caltime.Time, from, to time.Time, max int) ([]caltime.Time, error) {
	if max <= 0 {
		max = defaultMaxOccurrences
	}
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(wire), "RRULE:"))
	r, err := rrule.StrToRRule(s)
	if err != nil {
		return nil, fmt.Errorf("parse rule %q: %w", wire, err)
	}

	loc := start.Location()
	if start.AllDay() {
		loc = time.UTC
	}
	r.DTStart(start.Instant().In(loc))

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.Instant().In(loc))
	}

	times := set.Between(from.In(loc), to.In(loc), true)
	if len(times) > max {
		times = times[:max]
	}

	out := make([]caltime.Time, 0, len(times))
	for _, t := range times {
		switch {
		case start.AllDay():
			y, mo, d := t.UTC().Date()
			out = append(out, caltime.DateOf(y, mo, d))
		case start.HasShadow():
			out = append(out, start.Add(t.Sub(start.Instant())))
		default:
			out = append(out, caltime.FromInstant(t))
		}
	}
	return out, nil
}
