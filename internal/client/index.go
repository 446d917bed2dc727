package client

import (
	"sort"
	"strings"

	"caldr/internal/core"
)

// index is the in-memory cache of fetched resources. Resources are keyed
// by source and resource path; every contained event is also keyed by
// its identity within its calendar, so lookups cost one map read. It is
// not safe for concurrent use; the client guards it with its own lock.
type index struct {
	objects map[string]core.Object
	byID    map[string]core.Event
}

func newIndex() *index {
	return &index{
		objects: map[string]core.Object{},
		byID:    map[string]core.Event{},
	}
}

func objectKey(sourceID, path string) string {
	return sourceID + "\x00" + path
}

func identityKey(sourceID, calendarPath, identity string) string {
	return sourceID + "\x00" + calendarPath + "\x00" + identity
}

// replace swaps in the full result set of a window fetch.
func (ix *index) replace(objs []core.Object) {
	ix.objects = make(map[string]core.Object, len(objs))
	ix.byID = make(map[string]core.Event)
	for _, o := range objs {
		ix.upsert(o)
	}
}

// upsert stores one resource, replacing any previous revision. Events
// the new revision no longer carries leave the identity map with it.
func (ix *index) upsert(o core.Object) {
	if len(o.Events) == 0 {
		return
	}
	key := objectKey(o.Events[0].SourceID, o.Path)
	if prev, ok := ix.objects[key]; ok {
		ix.dropIdentities(prev)
	}
	ix.objects[key] = o
	for _, e := range o.Events {
		ix.byID[identityKey(e.SourceID, e.CalendarPath, e.Identity())] = e
	}
}

func (ix *index) remove(sourceID, path string) {
	key := objectKey(sourceID, path)
	if prev, ok := ix.objects[key]; ok {
		ix.dropIdentities(prev)
	}
	delete(ix.objects, key)
}

// purge drops every resource of one source. Useful when a source is
// removed or reloaded from scratch.
func (ix *index) purge(sourceID string) {
	for k, o := range ix.objects {
		if strings.HasPrefix(k, sourceID+"\x00") {
			ix.dropIdentities(o)
			delete(ix.objects, k)
		}
	}
}

func (ix *index) dropIdentities(o core.Object) {
	for _, e := range o.Events {
		delete(ix.byID, identityKey(e.SourceID, e.CalendarPath, e.Identity()))
	}
}

func (ix *index) object(sourceID, path string) (core.Object, bool) {
	o, ok := ix.objects[objectKey(sourceID, path)]
	return o, ok
}

// lookup finds one event by its identity within a calendar.
func (ix *index) lookup(sourceID, calendarPath, identity string) (core.Event, bool) {
	e, ok := ix.byID[identityKey(sourceID, calendarPath, identity)]
	return e, ok
}

// all returns every cached event sorted by start, skipping the given
// calendars.
func (ix *index) all(hidden map[string]bool) []core.Event {
	var out []core.Event
	for _, o := range ix.objects {
		for _, e := range o.Events {
			if hidden[calendarKey(e.SourceID, e.CalendarPath)] {
				continue
			}
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

func calendarKey(sourceID, path string) string {
	return sourceID + "\x00" + path
}

func sortEvents(events []core.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Identity() < b.Identity()
	})
}

func sortContacts(contacts []core.Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UID < b.UID
	})
}
