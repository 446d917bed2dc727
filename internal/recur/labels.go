package recur

import (
	"fmt"
	"strings"
	"time"
)

// Labels carries the localized words Summary composes rule descriptions
// from. It is passed explicitly by whichever surface renders summaries;
// there is no process-wide label table.
type Labels struct {
	Every      string
	Unit       map[Frequency]string // singular: "day"
	Units      map[Frequency]string // plural: "days"
	On         string
	OnDay      string
	In         string
	Times      string
	Until      string
	Weekdays   map[time.Weekday]string
	Months     map[time.Month]string
	DateLayout string
}

// English is the default label set.
var English = Labels{
	Every: "every",
	Unit: map[Frequency]string{
		Daily: "day", Weekly: "week", Monthly: "month", Yearly: "year",
	},
	Units: map[Frequency]string{
		Daily: "days", Weekly: "weeks", Monthly: "months", Yearly: "years",
	},
	On:    "on",
	OnDay: "on day",
	In:    "in",
	Times: "times",
	Until: "until",
	Weekdays: map[time.Weekday]string{
		time.Monday: "Monday", time.Tuesday: "Tuesday", time.Wednesday: "Wednesday",
		time.Thursday: "Thursday", time.Friday: "Friday", time.Saturday: "Saturday",
		time.Sunday: "Sunday",
	},
	Months: map[time.Month]string{
		time.January: "January", time.February: "February", time.March: "March",
		time.April: "April", time.May: "May", time.June: "June",
		time.July: "July", time.August: "August", time.September: "September",
		time.October: "October", time.November: "November", time.December: "December",
	},
	DateLayout: "Jan 2, 2006",
}

// Summary renders the rule as a human-readable phrase using the given
// labels, e.g. "every 2 weeks on Monday, Wednesday until Jun 30, 2025".
func (r Rule) Summary(l Labels) string {
	var b strings.Builder
	b.WriteString(l.Every)
	b.WriteByte(' ')
	if r.Interval > 1 {
		fmt.Fprintf(&b, "%d %s", r.Interval, l.Units[r.Freq])
	} else {
		b.WriteString(l.Unit[r.Freq])
	}
	if len(r.ByDay) > 0 {
		names := make([]string, len(r.ByDay))
		for i, d := range r.ByDay {
			names[i] = l.Weekdays[d]
		}
		fmt.Fprintf(&b, " %s %s", l.On, strings.Join(names, ", "))
	}
	if r.ByMonthDay != 0 {
		fmt.Fprintf(&b, " %s %d", l.OnDay, r.ByMonthDay)
	}
	if r.ByMonth != 0 {
		fmt.Fprintf(&b, " %s %s", l.In, l.Months[r.ByMonth])
	}
	if r.Count > 0 {
		fmt.Fprintf(&b, ", %d %s", r.Count, l.Times)
	}
	if !r.Until.IsZero() {
		fmt.Fprintf(&b, " %s %s", l.Until, r.Until.Civil().Format(l.DateLayout))
	}
	return b.String()
}
