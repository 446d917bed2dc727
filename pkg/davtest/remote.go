package davtest

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-vcard"

	"caldr/internal/core"
	"caldr/internal/ics"
	"caldr/internal/recur"
)

// Remote is an in-memory core.Remote for tests. The zero value is not
// usable; construct with New. All methods are safe for concurrent use.
type Remote struct {
	mu        sync.RWMutex
	sourceID  string
	calendars []core.Calendar
	books     []core.AddressBook
	contacts  map[string][]contactEntry
	objects   map[string]core.Object
	nextRev   int
	expand    bool

	// Fail, when non-nil, makes every remote call return this error.
	Fail error
}

// contactEntry is one stored address-book resource: the encoded card
// plus the metadata a server would keep beside it.
type contactEntry struct {
	path string
	etag string
	card vcard.Card
}

// New creates an empty fake remote for the given source ID.
func New(sourceID string) *Remote {
	return &Remote{
		sourceID: sourceID,
		contacts: map[string][]contactEntry{},
		objects:  map[string]core.Object{},
		nextRev:  1,
	}
}

// AddCalendar registers an event collection.
func (r *Remote) AddCalendar(calPath, name string) core.Calendar {
	r.mu.Lock()
	defer r.mu.Unlock()
	cal := core.Calendar{
		SourceID:    r.sourceID,
		Path:        calPath,
		Name:        name,
		HoldsEvents: true,
	}
	r.calendars = append(r.calendars, cal)
	return cal
}

// AddAddressBook registers a contact collection.
func (r *Remote) AddAddressBook(bookPath, name string) core.AddressBook {
	r.mu.Lock()
	defer r.mu.Unlock()
	book := core.AddressBook{SourceID: r.sourceID, Path: bookPath, Name: name}
	r.books = append(r.books, book)
	return book
}

// AddContact pre-populates one address-book entry. The entry is stored
// as an encoded vCard, the way a server holds it, so reads go through
// the same codec real remotes use.
func (r *Remote) AddContact(bookPath string, c core.Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := c.Path
	if p == "" {
		p = path.Join(bookPath, c.UID) + ".vcf"
	}
	r.contacts[bookPath] = append(r.contacts[bookPath], contactEntry{
		path: p,
		etag: r.rev(),
		card: ics.CardFromContact(c),
	})
}

// SetExpand turns server-side occurrence expansion on or off.
func (r *Remote) SetExpand(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expand = on
}

// Seed stores one resource holding the given events (a template plus its
// exceptions, or a single event) and returns it stamped with a fresh
// revision. The resource path is derived from the first event's UID.
func (r *Remote) Seed(calPath string, events ...core.Event) core.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := path.Join(calPath, events[0].UID) + ".ics"
	o := core.Object{Path: p, ETag: r.rev(), Events: stamp(events, r.sourceID, calPath, p)}
	r.objects[p] = o
	return o
}

// Object reads a stored resource back for assertions.
func (r *Remote) Object(p string) (core.Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[p]
	return o, ok
}

// Reset clears all resources and contacts, keeping the collections.
func (r *Remote) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = map[string]core.Object{}
	r.contacts = map[string][]contactEntry{}
	r.nextRev = 1
	r.Fail = nil
}

func (r *Remote) rev() string {
	tag := fmt.Sprintf(`"rev-%d"`, r.nextRev)
	r.nextRev++
	return tag
}

func stamp(events []core.Event, sourceID, calPath, p string) []core.Event {
	out := make([]core.Event, len(events))
	copy(out, events)
	for i := range out {
		out[i].SourceID = sourceID
		out[i].CalendarPath = calPath
		out[i].Path = p
	}
	return out
}

// Calendars implements core.Remote.
func (r *Remote) Calendars(ctx context.Context) ([]core.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	out := make([]core.Calendar, len(r.calendars))
	copy(out, r.calendars)
	return out, nil
}

// Objects implements core.Remote. The window filter evaluates recurrence
// rules, so a template whose occurrences fall inside the window matches
// even when the template start does not.
func (r *Remote) Objects(ctx context.Context, calendarPath string, w core.Window, expand bool) ([]core.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	var out []core.Object
	for _, o := range r.objects {
		if len(o.Events) == 0 || o.Events[0].CalendarPath != calendarPath {
			continue
		}
		if !objectInWindow(o, w) {
			continue
		}
		if expand && r.expand {
			o = expandObject(o, w)
		}
		out = append(out, withETag(o))
	}
	return out, nil
}

// GetObject implements core.Remote.
func (r *Remote) GetObject(ctx context.Context, p string) (core.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Fail != nil {
		return core.Object{}, r.Fail
	}
	o, ok := r.objects[p]
	if !ok {
		return core.Object{}, fmt.Errorf("object %s: %w", p, core.ErrNotFound)
	}
	return withETag(o), nil
}

// CreateObject implements core.Remote.
func (r *Remote) CreateObject(ctx context.Context, p string, events []core.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return "", r.Fail
	}
	if _, exists := r.objects[p]; exists {
		return "", fmt.Errorf("object %s: %w", p, core.ErrIdentityCollision)
	}
	calPath := strings.TrimSuffix(p, path.Base(p))
	o := core.Object{Path: p, ETag: r.rev(), Events: stamp(events, r.sourceID, calPath, p)}
	r.objects[p] = o
	return o.ETag, nil
}

// UpdateObject implements core.Remote. An empty etag is unconditional.
func (r *Remote) UpdateObject(ctx context.Context, p, etag string, events []core.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return "", r.Fail
	}
	o, ok := r.objects[p]
	if !ok {
		return "", fmt.Errorf("object %s: %w", p, core.ErrNotFound)
	}
	if etag != "" && etag != o.ETag {
		return "", fmt.Errorf("object %s: %w", p, core.ErrStaleRevision)
	}
	calPath := strings.TrimSuffix(p, path.Base(p))
	o = core.Object{Path: p, ETag: r.rev(), Events: stamp(events, r.sourceID, calPath, p)}
	r.objects[p] = o
	return o.ETag, nil
}

// DeleteObject implements core.Remote. An empty etag is unconditional.
func (r *Remote) DeleteObject(ctx context.Context, p, etag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	o, ok := r.objects[p]
	if !ok {
		return fmt.Errorf("object %s: %w", p, core.ErrNotFound)
	}
	if etag != "" && etag != o.ETag {
		return fmt.Errorf("object %s: %w", p, core.ErrStaleRevision)
	}
	delete(r.objects, p)
	return nil
}

// AddressBooks implements core.Remote.
func (r *Remote) AddressBooks(ctx context.Context) ([]core.AddressBook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	out := make([]core.AddressBook, len(r.books))
	copy(out, r.books)
	return out, nil
}

// Contacts implements core.Remote.
func (r *Remote) Contacts(ctx context.Context, bookPath string) ([]core.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	out := make([]core.Contact, 0, len(r.contacts[bookPath]))
	for _, entry := range r.contacts[bookPath] {
		c := ics.ContactFromCard(entry.card)
		c.SourceID = r.sourceID
		c.BookPath = bookPath
		c.Path = entry.path
		c.ETag = entry.etag
		out = append(out, c)
	}
	return out, nil
}

// SupportsExpand implements core.Remote.
func (r *Remote) SupportsExpand() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expand
}

func withETag(o core.Object) core.Object {
	events := make([]core.Event, len(o.Events))
	copy(events, o.Events)
	for i := range events {
		events[i].ETag = o.ETag
	}
	o.Events = events
	return o
}

func objectInWindow(o core.Object, w core.Window) bool {
	for _, e := range o.Events {
		if e.Recurs() && !e.IsException() {
			occ, err := recur.Expand(e.RawRule, e.Start, e.ExDates, w.Start.Add(-e.Duration()), w.End, 0)
			if err == nil && len(occ) > 0 {
				return true
			}
			continue
		}
		if w.Overlaps(e.Start.Instant(), e.End.Instant()) {
			return true
		}
	}
	return false
}

// expandObject mimics a server-side expansion: the template is replaced
// by its in-window instances, overrides substitute for the occurrence
// they target, and cancelled instances are omitted.
func expandObject(o core.Object, w core.Window) core.Object {
	var tmpl *core.Event
	overrides := map[int64]core.Event{}
	var rest []core.Event
	for _, e := range o.Events {
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
	if tmpl == nil {
		return o
	}

	out := core.Object{Path: o.Path, ETag: o.ETag, Events: rest}
	starts, err := recur.Expand(tmpl.RawRule, tmpl.Start, tmpl.ExDates, w.Start.Add(-tmpl.Duration()), w.End, 0)
	if err != nil {
		return o
	}
	duration := tmpl.Duration()
	days := int(duration / (24 * time.Hour))
	for _, start := range starts {
		if ov, ok := overrides[start.Instant().Unix()]; ok {
			if !ov.Cancelled() {
				out.Events = append(out.Events, ov)
			}
			continue
		}
		inst := *tmpl
		inst.RecurrenceID = start
		inst.Start = start
		if start.AllDay() {
			inst.End = start.AddDays(days)
		} else {
			inst.End = start.Add(duration)
		}
		inst.RawRule, inst.Rule, inst.ExDates = "", nil, nil
		out.Events = append(out.Events, inst)
	}
	return out
}
