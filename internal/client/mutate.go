package client

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"caldr/internal/core"
)

// Create writes a new event into a calendar. A missing UID is generated.
// The stored event comes back stamped with its resource coordinates and
// revision; a UID already taken on the remote surfaces as
// core.ErrIdentityCollision.
func (c *Client) Create(ctx context.Context, sourceID, calendarPath string, e core.Event) (core.Event, error) {
	remote, err := c.remote(sourceID)
	if err != nil {
		return core.Event{}, err
	}
	if e.UID == "" {
		e.UID = uuid.NewString()
	}
	e.SourceID = sourceID
	e.CalendarPath = calendarPath
	e.Path = path.Join(calendarPath, e.UID) + ".ics"

	etag, err := remote.CreateObject(ctx, e.Path, []core.Event{e})
	if err != nil {
		return core.Event{}, fmt.Errorf("create %s: %w", e.UID, err)
	}
	e.ETag = etag

	c.mu.Lock()
	c.cache.upsert(core.Object{Path: e.Path, ETag: etag, Events: []core.Event{e}})
	c.mu.Unlock()
	return e, nil
}

// Update replaces one resource with the given events, conditional on the
// revision the caller's copy was fetched at. The events must all belong
// to the same resource (the series template plus its exceptions). When
// the remote reports core.ErrStaleRevision nothing was written and the
// cache is left alone; the caller refetches and reapplies.
func (c *Client) Update(ctx context.Context, events []core.Event) ([]core.Event, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("update: no events")
	}
	first := events[0]
	for _, e := range events[1:] {
		if e.Path != first.Path || e.SourceID != first.SourceID {
			return nil, fmt.Errorf("update: events span resources")
		}
	}
	remote, err := c.remote(first.SourceID)
	if err != nil {
		return nil, err
	}

	out := make([]core.Event, len(events))
	copy(out, events)
	etag, err := remote.UpdateObject(ctx, first.Path, first.ETag, out)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", first.UID, err)
	}
	for i := range out {
		out[i].ETag = etag
	}

	c.mu.Lock()
	c.cache.upsert(core.Object{Path: first.Path, ETag: etag, Events: out})
	c.mu.Unlock()
	return out, nil
}

// Delete removes a whole resource, a single event or an entire series,
// conditional on its revision.
func (c *Client) Delete(ctx context.Context, e core.Event) error {
	remote, err := c.remote(e.SourceID)
	if err != nil {
		return err
	}
	if err := remote.DeleteObject(ctx, e.Path, e.ETag); err != nil {
		return fmt.Errorf("delete %s: %w", e.UID, err)
	}
	c.mu.Lock()
	c.cache.remove(e.SourceID, e.Path)
	c.mu.Unlock()
	return nil
}

// Resource returns the cached resource an event belongs to: the event
// set sharing its path, template and exceptions together.
func (c *Client) Resource(e core.Event) (core.Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.object(e.SourceID, e.Path)
}
