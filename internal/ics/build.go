package ics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"caldr/internal/caltime"
	"caldr/internal/core"
)

const prodID = "-//caldr//caldr//EN"

// now is swapped out in tests for stable DTSTAMP values.
var now = time.Now

// Build renders events into one calendar resource. All events are
// expected to share a UID (the series template plus its exceptions);
// definitions for every zone the events reference are regenerated from
// scratch, so zones that are no longer referenced after an edit drop
// out.
func Build(events []core.Event) (*ical.Calendar, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("build calendar: no events")
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	from, to := zoneSpan(events)
	for _, tzid := range referencedZones(events) {
		tz, err := timezoneDef(tzid, from, to)
		if err != nil {
			return nil, fmt.Errorf("build calendar: %w", err)
		}
		cal.Children = append(cal.Children, tz)
	}
	for _, e := range events {
		cal.Children = append(cal.Children, eventComponent(e))
	}
	return cal, nil
}

// Encode renders events into w as one iCalendar stream.
func Encode(w io.Writer, events []core.Event) error {
	cal, err := Build(events)
	if err != nil {
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

func newComponent(name string) *ical.Component {
	return &ical.Component{Name: name, Props: make(ical.Props)}
}

func eventComponent(e core.Event) *ical.Component {
	c := newComponent(ical.CompEvent)
	c.Props.SetText(ical.PropUID, e.UID)
	c.Props.Set(prop(ical.PropDateTimeStamp, now().UTC().Format("20060102T150405Z")))

	c.Props.Set(timeProp(ical.PropDateTimeStart, e.Start))
	c.Props.Set(timeProp(ical.PropDateTimeEnd, e.End))
	if !e.RecurrenceID.IsZero() {
		c.Props.Set(timeProp(ical.PropRecurrenceID, e.RecurrenceID))
	}

	if e.Summary != "" {
		c.Props.SetText(ical.PropSummary, e.Summary)
	}
	if e.Description != "" {
		c.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		c.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.URL != "" {
		c.Props.Set(prop(ical.PropURL, e.URL))
	}
	if s := statusValue(e.Status); s != "" {
		c.Props.Set(prop(ical.PropStatus, s))
	}

	if e.RawRule != "" {
		c.Props.Set(prop(ical.PropRecurrenceRule, e.RawRule))
	}
	for _, ex := range e.ExDates {
		c.Props.Add(timeProp(ical.PropExceptionDates, ex))
	}

	if e.Sequence > 0 {
		c.Props.Set(prop(ical.PropSequence, strconv.Itoa(e.Sequence)))
	}
	if e.Organizer.Email != "" {
		c.Props.Set(participantProp(ical.PropOrganizer, e.Organizer, false))
	}
	for _, a := range e.Attendees {
		c.Props.Add(participantProp(ical.PropAttendee, a, true))
	}

	for _, a := range e.Alarms {
		c.Children = append(c.Children, alarmComponent(a))
	}
	return c
}

func alarmComponent(a core.Alarm) *ical.Component {
	c := newComponent(ical.CompAlarm)
	action := a.Action
	if action == "" {
		action = "DISPLAY"
	}
	c.Props.Set(prop(ical.PropAction, action))
	c.Props.Set(prop(ical.PropTrigger, formatDuration(a.Offset)))
	if a.Description != "" {
		c.Props.SetText(ical.PropDescription, a.Description)
	}
	return c
}

// timeProp renders a calendar time with the parameters its shape needs:
// VALUE=DATE for all-day values, TZID for shadowed ones.
func timeProp(name string, t caltime.Time) *ical.Prop {
	value, tzid, isDate := t.ICal()
	p := prop(name, value)
	if isDate {
		p.Params.Set(ical.ParamValue, string(ical.ValueDate))
	}
	if tzid != "" {
		p.Params.Set(ical.ParamTimezoneID, tzid)
	}
	return p
}

func participantProp(name string, a core.Attendee, withStatus bool) *ical.Prop {
	p := prop(name, "mailto:"+a.Email)
	if a.Name != "" {
		p.Params.Set(ical.ParamCommonName, a.Name)
	}
	if withStatus {
		p.Params.Set(ical.ParamParticipationStatus, responseValue(a.Response))
	}
	return p
}

func prop(name, value string) *ical.Prop {
	return &ical.Prop{Name: name, Params: make(ical.Params), Value: value}
}

func statusValue(s core.Status) string {
	switch s {
	case core.StatusTentative:
		return "TENTATIVE"
	case core.StatusCancelled:
		return "CANCELLED"
	default:
		return ""
	}
}

func responseValue(r core.Response) string {
	switch r {
	case core.ResponseAccepted:
		return "ACCEPTED"
	case core.ResponseDeclined:
		return "DECLINED"
	case core.ResponseTentative:
		return "TENTATIVE"
	default:
		return "NEEDS-ACTION"
	}
}

// referencedZones collects the zone ids the events' times carry, sorted
// for stable output.
func referencedZones(events []core.Event) []string {
	seen := map[string]bool{}
	add := func(t caltime.Time) {
		if z := t.Zone(); z != "" {
			seen[z] = true
		}
	}
	for _, e := range events {
		add(e.Start)
		add(e.End)
		add(e.RecurrenceID)
		for _, ex := range e.ExDates {
			add(ex)
		}
	}
	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// zoneSpan returns the year range the zone definitions must cover: the
// years touched by the events' own times, extended through the rule end
// for bounded series.
func zoneSpan(events []core.Event) (from, to time.Time) {
	for _, e := range events {
		for _, t := range []caltime.Time{e.Start, e.End, e.RecurrenceID} {
			if t.IsZero() {
				continue
			}
			i := t.Instant()
			if from.IsZero() || i.Before(from) {
				from = i
			}
			if to.IsZero() || i.After(to) {
				to = i
			}
		}
		if e.Rule != nil && !e.Rule.Until.IsZero() && e.Rule.Until.Instant().After(to) {
			to = e.Rule.Until.Instant()
		}
	}
	if from.IsZero() {
		from = now().UTC()
		to = from
	}
	// Whole years keep the definitions stable across small edits.
	from = time.Date(from.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	return from, to
}
