// Package ics converts between iCalendar payloads and the canonical
// event shape. Component structure, folding, and escaping belong to
// github.com/emersion/go-ical; this package owns the mapping of governed
// properties onto the model, reading raw property values so date shapes
// and zone references survive exactly as authored.
package ics

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"

	"caldr/internal/caltime"
	"caldr/internal/core"
	"caldr/internal/recur"
)

// Decode reads one iCalendar stream and returns its events. Floating
// date-times are resolved in floatingZone. Malformed events are skipped
// with a warning; the error is non-nil only when the stream itself does
// not parse.
func Decode(r io.Reader, floatingZone string) ([]core.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	return Events(cal, floatingZone), nil
}

// Events converts the event components of an already-decoded calendar.
// Components missing required properties are skipped with a warning so a
// single broken entry cannot take down the whole resource.
func Events(cal *ical.Calendar, floatingZone string) []core.Event {
	var out []core.Event
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		ev, err := eventFromComponent(child, floatingZone)
		if err != nil {
			slog.Warn("skipping malformed event", "error", err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

func eventFromComponent(c *ical.Component, floatingZone string) (core.Event, error) {
	var e core.Event

	uid := c.Props.Get(ical.PropUID)
	if uid == nil || uid.Value == "" {
		return e, fmt.Errorf("event without UID")
	}
	e.UID = uid.Value

	start := c.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return e, fmt.Errorf("event %s without DTSTART", e.UID)
	}
	var err error
	if e.Start, err = parseTimeProp(start, floatingZone); err != nil {
		return e, fmt.Errorf("event %s: %w", e.UID, err)
	}
	if e.End, err = parseEnd(c, e.Start, floatingZone); err != nil {
		return e, fmt.Errorf("event %s: %w", e.UID, err)
	}

	if p := c.Props.Get(ical.PropRecurrenceID); p != nil {
		if e.RecurrenceID, err = parseTimeProp(p, floatingZone); err != nil {
			return e, fmt.Errorf("event %s: %w", e.UID, err)
		}
	}

	e.Summary = textProp(c.Props, ical.PropSummary)
	e.Description = textProp(c.Props, ical.PropDescription)
	e.Location = textProp(c.Props, ical.PropLocation)
	if p := c.Props.Get(ical.PropURL); p != nil {
		e.URL = p.Value
	}
	e.Status = parseStatus(c.Props)

	if p := c.Props.Get(ical.PropRecurrenceRule); p != nil && p.Value != "" {
		e.RawRule = p.Value
		// Rules beyond the editable model keep only their raw form.
		if r, err := recur.Parse(p.Value); err == nil {
			e.Rule = &r
		}
	}
	for _, p := range c.Props[ical.PropExceptionDates] {
		for _, v := range strings.Split(p.Value, ",") {
			ex, err := parseTimeValue(v, &p, floatingZone)
			if err != nil {
				return e, fmt.Errorf("event %s: exdate: %w", e.UID, err)
			}
			e.ExDates = append(e.ExDates, ex)
		}
	}

	if p := c.Props.Get(ical.PropSequence); p != nil {
		if n, err := strconv.Atoi(p.Value); err == nil {
			e.Sequence = n
		}
	}

	if p := c.Props.Get(ical.PropOrganizer); p != nil {
		e.Organizer = parseParticipant(p)
	}
	for _, p := range c.Props[ical.PropAttendee] {
		e.Attendees = append(e.Attendees, parseParticipant(&p))
	}

	for _, child := range c.Children {
		if child.Name != ical.CompAlarm {
			continue
		}
		if a, ok := parseAlarm(child); ok {
			e.Alarms = append(e.Alarms, a)
		}
	}
	return e, nil
}

// parseTimeProp interprets a DATE or DATE-TIME property through its
// VALUE and TZID parameters.
func parseTimeProp(p *ical.Prop, floatingZone string) (caltime.Time, error) {
	return parseTimeValue(p.Value, p, floatingZone)
}

func parseTimeValue(value string, p *ical.Prop, floatingZone string) (caltime.Time, error) {
	isDate := p.Params.Get(ical.ParamValue) == string(ical.ValueDate)
	tzid := p.Params.Get(ical.ParamTimezoneID)
	return caltime.ParseICal(strings.TrimSpace(value), tzid, isDate, floatingZone)
}

// parseEnd resolves the event end from DTEND, DURATION, or the defaults
// for events carrying neither: one day for all-day events, zero length
// otherwise.
func parseEnd(c *ical.Component, start caltime.Time, floatingZone string) (caltime.Time, error) {
	if p := c.Props.Get(ical.PropDateTimeEnd); p != nil {
		return parseTimeProp(p, floatingZone)
	}
	if p := c.Props.Get(ical.PropDuration); p != nil {
		d, err := parseDuration(p.Value)
		if err != nil {
			return caltime.Time{}, fmt.Errorf("duration: %w", err)
		}
		return start.AddWall(d), nil
	}
	if start.AllDay() {
		return start.AddDays(1), nil
	}
	return start, nil
}

// textProp reads a text property, falling back to the raw value when
// unescaping fails.
func textProp(props ical.Props, name string) string {
	p := props.Get(name)
	if p == nil {
		return ""
	}
	if s, err := p.Text(); err == nil {
		return s
	}
	return p.Value
}

func parseStatus(props ical.Props) core.Status {
	p := props.Get(ical.PropStatus)
	if p == nil {
		return core.StatusConfirmed
	}
	switch strings.ToUpper(p.Value) {
	case "TENTATIVE":
		return core.StatusTentative
	case "CANCELLED":
		return core.StatusCancelled
	default:
		return core.StatusConfirmed
	}
}

func parseParticipant(p *ical.Prop) core.Attendee {
	addr := p.Value
	if len(addr) >= 7 && strings.EqualFold(addr[:7], "mailto:") {
		addr = addr[7:]
	}
	a := core.Attendee{
		Email: addr,
		Name:  p.Params.Get(ical.ParamCommonName),
	}
	switch strings.ToUpper(p.Params.Get(ical.ParamParticipationStatus)) {
	case "ACCEPTED":
		a.Response = core.ResponseAccepted
	case "DECLINED":
		a.Response = core.ResponseDeclined
	case "TENTATIVE":
		a.Response = core.ResponseTentative
	default:
		a.Response = core.ResponseNeedsAction
	}
	return a
}

// parseAlarm keeps reminders with a relative trigger; absolute triggers
// fall outside the model and are dropped.
func parseAlarm(c *ical.Component) (core.Alarm, bool) {
	var a core.Alarm
	if p := c.Props.Get(ical.PropAction); p != nil {
		a.Action = strings.ToUpper(p.Value)
	}
	p := c.Props.Get(ical.PropTrigger)
	if p == nil || p.Params.Get(ical.ParamValue) == string(ical.ValueDateTime) {
		return a, false
	}
	d, err := parseDuration(p.Value)
	if err != nil {
		return a, false
	}
	a.Offset = d
	a.Description = textProp(c.Props, ical.PropDescription)
	return a, true
}
