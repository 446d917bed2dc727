// Package editor implements the event-edit protocol on top of the sync
// client: creating events with sensible defaults, resolving whether an
// edit targets one occurrence or its whole series, applying drag deltas
// to the local shadow, and turning occurrence deletes into cancelled
// exceptions. Every trigger is a fresh call carrying everything it
// needs; the protocol holds no state between invocations.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caldr/internal/client"
	"caldr/internal/core"
)

// ErrScopeRequired means an edit touched an occurrence of a recurring
// series and no scope was chosen or decidable. The caller either passes
// an explicit scope or wires CustomHandlers with a decider that can ask.
var ErrScopeRequired = errors.New("series or occurrence scope required")

// Scope says what a series edit applies to.
type Scope int

const (
	// No choice made yet; the protocol must resolve one
	ScopeUnset Scope = iota
	// Just the targeted occurrence
	ScopeOccurrence
	// The whole series via its template
	ScopeSeries
)

// ScopeDecider answers the series-vs-occurrence question, typically by
// prompting. Returning ScopeUnset aborts the edit.
type ScopeDecider interface {
	DecideScope(ctx context.Context, e core.Event) (Scope, error)
}

// ScopeDeciderFunc adapts a function to the ScopeDecider interface.
type ScopeDeciderFunc func(ctx context.Context, e core.Event) (Scope, error)

// DecideScope implements ScopeDecider.
func (f ScopeDeciderFunc) DecideScope(ctx context.Context, e core.Event) (Scope, error) {
	return f(ctx, e)
}

type handlerKind int

const (
	handlerDefault handlerKind = iota
	handlerCustom
)

// Handlers is the protocol's interaction surface. The zero value is the
// default set; construct with DefaultHandlers or CustomHandlers so the
// choice is explicit rather than inferred from which callbacks happen
// to be present.
type Handlers struct {
	kind    handlerKind
	decider ScopeDecider
}

// DefaultHandlers cannot ask anything: scope questions fail with
// ErrScopeRequired and the caller passes scopes explicitly.
func DefaultHandlers() Handlers {
	return Handlers{kind: handlerDefault}
}

// CustomHandlers wires the caller's prompts into the protocol.
func CustomHandlers(decider ScopeDecider) Handlers {
	return Handlers{kind: handlerCustom, decider: decider}
}

func (h Handlers) decide(ctx context.Context, e core.Event) (Scope, error) {
	if h.kind == handlerCustom && h.decider != nil {
		return h.decider.DecideScope(ctx, e)
	}
	return ScopeUnset, ErrScopeRequired
}

// Editor drives the edit protocol against one client.
type Editor struct {
	client   *client.Client
	handlers Handlers
}

// New builds an editor over the given client.
func New(c *client.Client, h Handlers) *Editor {
	return &Editor{client: c, handlers: h}
}

// Create stores a proposed event in the target calendar. A missing end
// defaults to start plus 30 minutes for timed events and one day for
// all-day events; a structured rule on the event is encoded onto the
// wire. Encoding contract violations (interval below one, count and
// until together) fail fast before anything is dispatched.
func (ed *Editor) Create(ctx context.Context, sourceID, calendarPath string, e core.Event) (core.Event, error) {
	if e.Start.IsZero() {
		return core.Event{}, fmt.Errorf("create: event has no start")
	}
	if e.End.IsZero() {
		if e.AllDay() {
			e.End = e.Start.AddDays(1)
		} else {
			e.End = e.Start.Add(30 * time.Minute)
		}
	}
	if e.End.Before(e.Start) {
		return core.Event{}, fmt.Errorf("create: event ends before it starts")
	}
	if e.Rule != nil {
		wire, err := e.Rule.Encode()
		if err != nil {
			return core.Event{}, fmt.Errorf("create: %w", err)
		}
		e.RawRule = wire
	}
	return ed.client.Create(ctx, sourceID, calendarPath, e)
}

// Select resolves what an edit applies to. For an occurrence of a
// recurring series the scope question is answered first, before any
// field is touched: "whole series" substitutes the cached template for
// the occurrence, "this occurrence" keeps it. Non-recurring events pass
// through unchanged.
func (ed *Editor) Select(ctx context.Context, e core.Event, scope Scope) (core.Event, Scope, error) {
	if !e.IsException() {
		if e.Recurs() {
			return e, ScopeSeries, nil
		}
		return e, ScopeOccurrence, nil
	}

	if scope == ScopeUnset {
		chosen, err := ed.handlers.decide(ctx, e)
		if err != nil {
			return core.Event{}, ScopeUnset, err
		}
		if chosen == ScopeUnset {
			return core.Event{}, ScopeUnset, ErrScopeRequired
		}
		scope = chosen
	}

	switch scope {
	case ScopeOccurrence:
		return e, scope, nil
	case ScopeSeries:
		tmpl, err := ed.template(e)
		if err != nil {
			return core.Event{}, ScopeUnset, err
		}
		return tmpl, scope, nil
	default:
		return core.Event{}, ScopeUnset, fmt.Errorf("select: unknown scope %d", scope)
	}
}

// template finds the series template behind an occurrence in the cache.
func (ed *Editor) template(e core.Event) (core.Event, error) {
	res, ok := ed.client.Resource(e)
	if !ok {
		return core.Event{}, fmt.Errorf("series of %s: %w", e.UID, core.ErrNotFound)
	}
	for _, ev := range res.Events {
		if ev.Recurs() && !ev.IsException() {
			return ev, nil
		}
	}
	return core.Event{}, fmt.Errorf("series template of %s: %w", e.UID, core.ErrNotFound)
}
