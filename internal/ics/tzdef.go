package ics

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// timezoneDef generates the definition component for an IANA zone. The
// observances cover every offset transition inside [from, to] plus the
// one already in force at from, so any time in the span resolves. Zones
// with no transitions at all collapse to a single standard observance.
func timezoneDef(tzid string, from, to time.Time) (*ical.Component, error) {
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", tzid, err)
	}
	c := newComponent(ical.CompTimezone)
	c.Props.Set(prop(ical.PropTimezoneID, tzid))

	var subs []*ical.Component
	if start, _ := from.In(loc).ZoneBounds(); !start.IsZero() {
		subs = append(subs, observance(start, loc))
	}
	cur := from.In(loc)
	for {
		_, end := cur.ZoneBounds()
		if end.IsZero() || !end.Before(to) {
			break
		}
		subs = append(subs, observance(end, loc))
		cur = end.In(loc)
	}
	if len(subs) == 0 {
		name, off := from.In(loc).Zone()
		sub := newComponent(ical.CompTimezoneStandard)
		sub.Props.Set(prop(ical.PropDateTimeStart, from.In(time.FixedZone("", off)).Format("20060102T150405")))
		sub.Props.Set(prop(ical.PropTimezoneOffsetFrom, utcOffset(off)))
		sub.Props.Set(prop(ical.PropTimezoneOffsetTo, utcOffset(off)))
		if name != "" {
			sub.Props.Set(prop(ical.PropTimezoneName, name))
		}
		subs = append(subs, sub)
	}
	c.Children = subs
	return c, nil
}

// observance renders the transition at instant tr. Per the wire format
// the start is the local wall time of the transition expressed in the
// offset in force before it.
func observance(tr time.Time, loc *time.Location) *ical.Component {
	_, fromOff := tr.Add(-time.Second).In(loc).Zone()
	local := tr.In(loc)
	name, toOff := local.Zone()

	kind := ical.CompTimezoneStandard
	if local.IsDST() {
		kind = ical.CompTimezoneDaylight
	}
	sub := newComponent(kind)
	sub.Props.Set(prop(ical.PropDateTimeStart, tr.In(time.FixedZone("", fromOff)).Format("20060102T150405")))
	sub.Props.Set(prop(ical.PropTimezoneOffsetFrom, utcOffset(fromOff)))
	sub.Props.Set(prop(ical.PropTimezoneOffsetTo, utcOffset(toOff)))
	if name != "" {
		sub.Props.Set(prop(ical.PropTimezoneName, name))
	}
	return sub
}

// utcOffset renders seconds east of UTC as the wire's ±hhmm form.
func utcOffset(sec int) string {
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	return fmt.Sprintf("%s%02d%02d", sign, sec/3600, (sec%3600)/60)
}
