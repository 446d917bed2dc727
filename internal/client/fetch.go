package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"caldr/internal/core"
	"caldr/internal/recur"
)

// FetchWindow retrieves the resources of every calendar overlapping the
// window and replaces the cache with them. Fetches run in parallel per
// calendar; a failing calendar keeps its previously cached resources and
// is logged. The result is the raw cached event list; Occurrences
// computes the display view on top of it.
//
// A fetch that finishes after a newer fetch or reload has started is
// discarded, so navigating quickly between windows cannot interleave
// stale results into the cache.
func (c *Client) FetchWindow(ctx context.Context, w core.Window) ([]core.Event, error) {
	type task struct {
		remote core.Remote
		cal    core.Calendar
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	var tasks []task
	for _, st := range c.statuses {
		remote, ok := c.remotes[st.Source.ID]
		if !ok {
			continue
		}
		for _, cal := range st.Calendars {
			if !cal.HoldsEvents {
				continue
			}
			tasks = append(tasks, task{remote, cal})
		}
	}
	c.mu.Unlock()

	results := make([][]core.Object, len(tasks))
	errList := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			objs, err := tk.remote.Objects(ctx, tk.cal.Path, w, tk.remote.SupportsExpand())
			if err != nil {
				errList[i] = fmt.Errorf("fetch %s on %s: %w", tk.cal.Path, tk.cal.SourceID, err)
				return
			}
			results[i] = objs
		}()
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.log.Debug("discarding stale window", "from", w.Start, "to", w.End)
		return nil, nil
	}

	fetched := map[string]bool{}
	var errs []error
	for i, tk := range tasks {
		if errList[i] != nil {
			c.log.Warn("calendar fetch failed", "error", errList[i])
			errs = append(errs, errList[i])
			continue
		}
		fetched[calendarKey(tk.cal.SourceID, tk.cal.Path)] = true
	}

	var objs []core.Object
	for _, r := range results {
		objs = append(objs, r...)
	}
	// Calendars that failed this round keep their previous resources.
	for _, o := range c.cache.objects {
		if len(o.Events) > 0 && !fetched[calendarKey(o.Events[0].SourceID, o.Events[0].CalendarPath)] {
			objs = append(objs, o)
		}
	}
	c.cache.replace(objs)
	c.window = w

	events := c.cache.all(c.hidden)
	if len(events) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return events, nil
}

// Window returns the bounds of the last applied fetch.
func (c *Client) Window() core.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// Occurrences computes the display list for the window from the cache:
// recurring series expanded to occurrences with their exceptions
// applied, cancelled entries dropped, everything sorted by start. Series
// already expanded by the remote pass through as-is.
func (c *Client) Occurrences(w core.Window) ([]core.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []core.Event
	var errs []error
	for _, o := range c.cache.objects {
		if len(o.Events) == 0 {
			continue
		}
		if c.hidden[calendarKey(o.Events[0].SourceID, o.Events[0].CalendarPath)] {
			continue
		}
		evs, err := expandObject(o, w, c.cfg.MaxExpand)
		if err != nil {
			c.log.Warn("expanding series", "path", o.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, evs...)
	}
	sortEvents(out)
	if out == nil && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func expandObject(o core.Object, w core.Window, max int) ([]core.Event, error) {
	byUID := map[string][]core.Event{}
	var order []string
	for _, e := range o.Events {
		if _, ok := byUID[e.UID]; !ok {
			order = append(order, e.UID)
		}
		byUID[e.UID] = append(byUID[e.UID], e)
	}
	var out []core.Event
	for _, uid := range order {
		evs, err := expandSeries(byUID[uid], w, max)
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

// expandSeries turns the events sharing one UID into in-window
// occurrences: the template is expanded through its rule, overrides
// replace the occurrence they target, and overrides moved off their
// original slot are kept on their own.
func expandSeries(events []core.Event, w core.Window, max int) ([]core.Event, error) {
	var tmpl *core.Event
	overrides := map[int64]core.Event{}
	var rest []core.Event
	for _, e := range events {
		switch {
		case e.Recurs() && !e.IsException():
			e := e
			tmpl = &e
		case e.IsException():
			overrides[e.RecurrenceID.Instant().Unix()] = e
		default:
			rest = append(rest, e)
		}
	}

	var out []core.Event
	add := func(e core.Event) {
		if e.Cancelled() {
			return
		}
		if !w.Overlaps(e.Start.Instant(), e.End.Instant()) {
			return
		}
		out = append(out, e)
	}

	for _, e := range rest {
		add(e)
	}
	if tmpl == nil {
		// Server-expanded instances or orphan overrides stand alone.
		for _, e := range overrides {
			add(e)
		}
		return out, nil
	}
	if tmpl.Cancelled() {
		return out, nil
	}

	// Widen the expansion start so occurrences that begin before the
	// window but run into it still show up.
	duration := tmpl.Duration()
	from := w.Start
	if duration > 0 {
		from = from.Add(-duration)
	}
	starts, err := recur.Expand(tmpl.RawRule, tmpl.Start, tmpl.ExDates, from, w.End, max)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", tmpl.UID, err)
	}

	days := int(duration / (24 * time.Hour))
	seen := map[int64]bool{}
	for _, start := range starts {
		seen[start.Instant().Unix()] = true
		if ov, ok := overrides[start.Instant().Unix()]; ok {
			add(ov)
			continue
		}
		occ := *tmpl
		occ.RecurrenceID = start
		occ.Start = start
		if start.AllDay() {
			occ.End = start.AddDays(days)
		} else {
			occ.End = start.Add(duration)
		}
		occ.RawRule, occ.Rule, occ.ExDates = "", nil, nil
		add(occ)
	}
	for key, ov := range overrides {
		if !seen[key] {
			add(ov)
		}
	}
	return out, nil
}
