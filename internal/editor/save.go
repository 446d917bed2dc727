package editor

import (
	"context"
	"fmt"
	"time"

	"caldr/internal/caltime"
	"caldr/internal/core"
	"caldr/internal/recur"
)

// Save persists an edited event into the resource it belongs to. A
// template or single event replaces itself; an occurrence becomes, or
// updates, the exception overriding its slot. An edited structured rule
// is re-encoded; an untouched rule keeps its wire form verbatim, so
// rule parts the translator does not model survive rewrites of other
// fields. The write is conditional on the revision the event was
// fetched at and nothing is shown as saved until the remote accepts it.
func (ed *Editor) Save(ctx context.Context, e core.Event) (core.Event, error) {
	if e.End.Before(e.Start) {
		return core.Event{}, fmt.Errorf("save %s: event ends before it starts", e.UID)
	}
	if e.Rule != nil {
		if prev, err := recur.Parse(e.RawRule); err != nil || !prev.Equal(*e.Rule) {
			wire, encErr := e.Rule.Encode()
			if encErr != nil {
				return core.Event{}, fmt.Errorf("save %s: %w", e.UID, encErr)
			}
			e.RawRule = wire
		}
	}

	res, ok := ed.client.Resource(e)
	if !ok {
		return core.Event{}, fmt.Errorf("save %s: %w", e.UID, core.ErrNotFound)
	}
	events := make([]core.Event, len(res.Events))
	copy(events, res.Events)

	if e.Recurs() && !e.IsException() {
		for _, prev := range events {
			if prev.Identity() == e.Identity() && !prev.Start.Equal(e.Start) {
				rebase(&e, events, prev)
				break
			}
		}
	}

	e.Sequence++
	events = mergeInto(events, e)
	for i := range events {
		events[i].ETag = e.ETag
	}

	updated, err := ed.client.Update(ctx, events)
	if err != nil {
		return core.Event{}, err
	}
	for _, ev := range updated {
		if ev.Identity() == e.Identity() {
			return ev, nil
		}
	}
	return core.Event{}, fmt.Errorf("save %s: persisted copy missing", e.UID)
}

// MoveResize applies a drag or resize from the display grid. The
// wall-clock delta between the new and the old start position, and
// independently between the new and the old end position, is applied to
// each bound's local shadow: an event dragged from 10:00 to 14:00 lands
// at 14:00 in its own zone even when the drag crosses a zone change or
// a DST transition in the display zone. A zero newEnd means a pure
// move, the end following the start. All-day events shift by whole grid
// days. The result goes through Save; callers keep the original
// placement on screen until that returns.
func (ed *Editor) MoveResize(ctx context.Context, e core.Event, newStart, newEnd time.Time) (core.Event, error) {
	moved, err := shift(e, newStart, newEnd)
	if err != nil {
		return core.Event{}, err
	}
	return ed.Save(ctx, moved)
}

func shift(e core.Event, newStart, newEnd time.Time) (core.Event, error) {
	if newStart.IsZero() {
		return core.Event{}, fmt.Errorf("move %s: no target position", e.UID)
	}
	if e.AllDay() {
		days := dayDelta(e.Start, newStart)
		e.Start = e.Start.AddDays(days)
		if newEnd.IsZero() {
			e.End = e.End.AddDays(days)
		} else {
			e.End = e.End.AddDays(dayDelta(e.End, newEnd))
		}
	} else {
		d := wallDelta(e.Start, newStart)
		e.Start = e.Start.AddWall(d)
		if newEnd.IsZero() {
			e.End = e.End.AddWall(d)
		} else {
			e.End = e.End.AddWall(wallDelta(e.End, newEnd))
		}
	}
	if e.End.Before(e.Start) {
		return core.Event{}, fmt.Errorf("move %s: event ends before it starts", e.UID)
	}
	return e, nil
}

// wallDelta measures how far a grid position moved in civil terms,
// immune to DST gaps between the two positions in the display zone.
// Both wall clocks are read in the target's location; a timed value
// comes off the grid as a bare instant, and its wall fields only mean
// something once rendered in the zone the drag happened in.
func wallDelta(old caltime.Time, to time.Time) time.Duration {
	from := old.ToGrid(to.Location()).In(to.Location())
	return asUTC(to).Sub(asUTC(from))
}

// dayDelta counts whole grid days between the old and new position.
func dayDelta(old caltime.Time, to time.Time) int {
	from := old.ToGrid(to.Location())
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

func asUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Delete removes an event. A single event or a template selected
// directly takes its whole resource with it. For an occurrence the
// scope question is answered first: "whole series" deletes the
// resource, "this occurrence" keeps the template alive and hides the
// one slot instead.
func (ed *Editor) Delete(ctx context.Context, e core.Event, scope Scope) error {
	if !e.IsException() {
		return ed.client.Delete(ctx, e)
	}

	if scope == ScopeUnset {
		chosen, err := ed.handlers.decide(ctx, e)
		if err != nil {
			return err
		}
		if chosen == ScopeUnset {
			return ErrScopeRequired
		}
		scope = chosen
	}

	switch scope {
	case ScopeSeries:
		return ed.client.Delete(ctx, e)
	case ScopeOccurrence:
		return ed.cancelOccurrence(ctx, e)
	default:
		return fmt.Errorf("delete: unknown scope %d", scope)
	}
}

// cancelOccurrence removes one slot from a series without touching the
// template's lifetime. The template gains an exclusion date for the
// slot and a cancelled exception is written alongside it; consumers
// honoring either mechanism hide the occurrence, and the template keeps
// producing every other slot.
func (ed *Editor) cancelOccurrence(ctx context.Context, e core.Event) error {
	res, ok := ed.client.Resource(e)
	if !ok {
		return fmt.Errorf("delete occurrence of %s: %w", e.UID, core.ErrNotFound)
	}
	events := make([]core.Event, len(res.Events))
	copy(events, res.Events)

	slot := e.RecurrenceID
	cancelled := e
	cancelled.Status = core.StatusCancelled
	cancelled.Sequence++
	events = mergeInto(events, cancelled)

	for i := range events {
		ev := &events[i]
		if !ev.Recurs() || ev.IsException() {
			continue
		}
		if !hasExDate(ev.ExDates, slot) {
			ev.ExDates = append(ev.ExDates, slot)
		}
		ev.Sequence++
	}

	for i := range events {
		events[i].ETag = e.ETag
	}
	_, err := ed.client.Update(ctx, events)
	return err
}

// rebase keeps series bookkeeping attached when a template start moves.
// Exclusion dates and exception slots shift by the same wall-clock
// delta as the template, so an excluded slot stays excluded and a moved
// occurrence stays bound to its place in the series. Exception start
// and end values are left where the user put them.
func rebase(tmpl *core.Event, events []core.Event, prev core.Event) {
	if tmpl.AllDay() {
		days := civilDays(prev.Start, tmpl.Start)
		if days == 0 {
			return
		}
		ex := make([]caltime.Time, len(tmpl.ExDates))
		for i, x := range tmpl.ExDates {
			ex[i] = x.AddDays(days)
		}
		tmpl.ExDates = ex
		for i := range events {
			if events[i].IsException() {
				events[i].RecurrenceID = events[i].RecurrenceID.AddDays(days)
			}
		}
		return
	}

	d := civilShift(prev.Start, tmpl.Start)
	if d == 0 {
		return
	}
	ex := make([]caltime.Time, len(tmpl.ExDates))
	for i, x := range tmpl.ExDates {
		ex[i] = x.AddWall(d)
	}
	tmpl.ExDates = ex
	for i := range events {
		if events[i].IsException() {
			events[i].RecurrenceID = events[i].RecurrenceID.AddWall(d)
		}
	}
}

// civilShift measures how far b's wall clock sits from a's.
func civilShift(a, b caltime.Time) time.Duration {
	return asUTC(b.Civil()).Sub(asUTC(a.Civil()))
}

// civilDays counts whole civil days from a to b.
func civilDays(a, b caltime.Time) int {
	ay, am, ad := a.Civil().Date()
	by, bm, bd := b.Civil().Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// mergeInto replaces the event sharing e's identity or appends it.
func mergeInto(events []core.Event, e core.Event) []core.Event {
	for i, ev := range events {
		if ev.Identity() == e.Identity() {
			events[i] = e
			return events
		}
	}
	return append(events, e)
}

func hasExDate(list []caltime.Time, slot caltime.Time) bool {
	for _, x := range list {
		if x.Equal(slot) {
			return true
		}
	}
	return false
}
