// Package client aggregates the configured sources into one calendar
// surface: it discovers collections, caches window fetches, expands
// recurring series for display, and funnels every mutation through the
// revision checks of the remote.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"caldr/internal/core"
)

// Dialer connects one configured source. The returned remote stamps the
// source's ID onto everything it yields.
type Dialer func(ctx context.Context, src core.Source) (core.Remote, error)

// Config carries the client's construction parameters.
type Config struct {
	Dial Dialer
	// IANA zone floating wire times resolve in; empty means UTC
	FloatingZone string
	// Cap on client-side occurrence expansion per series; 0 for the
	// package default
	MaxExpand int
	// Logger for fetch and discovery chatter; nil falls back to
	// slog.Default()
	Logger *slog.Logger
}

// SourceStatus is the per-source outcome of LoadSources. A source that
// failed keeps a nil remote and a non-nil Err; the others stay usable.
type SourceStatus struct {
	Source       core.Source
	Calendars    []core.Calendar
	AddressBooks []core.AddressBook
	Err          error
}

// Client is the aggregate calendar surface. All methods are safe for
// concurrent use.
type Client struct {
	cfg Config
	log *slog.Logger

	mu         sync.Mutex
	statuses   []SourceStatus
	remotes    map[string]core.Remote
	hidden     map[string]bool
	cache      *index
	window     core.Window
	generation uint64
}

// New builds a client; sources are attached with LoadSources.
func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		log:     log,
		remotes: map[string]core.Remote{},
		hidden:  map[string]bool{},
		cache:   newIndex(),
	}
}

// LoadSources dials the given sources and discovers their calendars and
// address books, in parallel. A failing source is reported in its status
// and skipped by later fetches; it does not take down the rest.
func (c *Client) LoadSources(ctx context.Context, sources []core.Source) []SourceStatus {
	statuses := make([]SourceStatus, len(sources))
	remotes := make([]core.Remote, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = SourceStatus{Source: src}
			remote, err := c.cfg.Dial(ctx, src)
			if err != nil {
				statuses[i].Err = fmt.Errorf("dial %s: %w", src.ID, err)
				return
			}
			cals, err := remote.Calendars(ctx)
			if err != nil {
				statuses[i].Err = fmt.Errorf("discover calendars on %s: %w", src.ID, err)
				return
			}
			for j := range cals {
				cals[j].Hidden = src.Hides(cals[j].Path)
			}
			books, err := remote.AddressBooks(ctx)
			if err != nil {
				// Calendar-only servers are common; log and move on.
				c.log.Debug("no address books", "source", src.ID, "error", err)
			}
			statuses[i].Calendars = cals
			statuses[i].AddressBooks = books
			remotes[i] = remote
		}()
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = statuses
	c.remotes = map[string]core.Remote{}
	c.hidden = map[string]bool{}
	c.cache = newIndex()
	c.generation++
	for i, st := range statuses {
		if st.Err != nil {
			c.log.Warn("source unavailable", "source", st.Source.ID, "error", st.Err)
			continue
		}
		c.remotes[st.Source.ID] = remotes[i]
		for _, cal := range st.Calendars {
			if cal.Hidden {
				c.hidden[calendarKey(cal.SourceID, cal.Path)] = true
			}
		}
	}
	return statuses
}

// Sources returns the statuses of the last LoadSources call.
func (c *Client) Sources() []SourceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SourceStatus, len(c.statuses))
	copy(out, c.statuses)
	return out
}

// Calendars lists the calendars of every reachable source.
func (c *Client) Calendars() []core.Calendar {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.Calendar
	for _, st := range c.statuses {
		if st.Err != nil {
			continue
		}
		for _, cal := range st.Calendars {
			cal.Hidden = c.hidden[calendarKey(cal.SourceID, cal.Path)]
			out = append(out, cal)
		}
	}
	return out
}

// CalendarName resolves a calendar's display name, falling back to its
// path.
func (c *Client) CalendarName(sourceID, path string) string {
	for _, cal := range c.Calendars() {
		if cal.SourceID == sourceID && cal.Path == path {
			return cal.Name
		}
	}
	return path
}

// SetCalendarHidden toggles a calendar out of (or back into) aggregate
// views. The calendar stays listed and its cached events are kept, so
// unhiding needs no refetch.
func (c *Client) SetCalendarHidden(sourceID, path string, hidden bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.statuses {
		for _, cal := range st.Calendars {
			if cal.SourceID == sourceID && cal.Path == path {
				if hidden {
					c.hidden[calendarKey(sourceID, path)] = true
				} else {
					delete(c.hidden, calendarKey(sourceID, path))
				}
				return nil
			}
		}
	}
	return fmt.Errorf("calendar %s on %s: %w", path, sourceID, core.ErrNotFound)
}

// Lookup finds a cached event by identity within one calendar.
func (c *Client) Lookup(sourceID, calendarPath, identity string) (core.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.lookup(sourceID, calendarPath, identity)
}

// Contacts fetches the entries of every address book across sources.
// Book failures are logged and skipped; the error is non-nil only when
// no book could be read at all.
func (c *Client) Contacts(ctx context.Context) ([]core.Contact, error) {
	c.mu.Lock()
	type task struct {
		remote core.Remote
		book   core.AddressBook
	}
	var tasks []task
	for _, st := range c.statuses {
		remote, ok := c.remotes[st.Source.ID]
		if !ok {
			continue
		}
		for _, book := range st.AddressBooks {
			tasks = append(tasks, task{remote, book})
		}
	}
	c.mu.Unlock()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		contacts []core.Contact
		errs     []error
	)
	for _, tk := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := tk.remote.Contacts(ctx, tk.book.Path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.log.Warn("address book unavailable", "source", tk.book.SourceID, "book", tk.book.Path, "error", err)
				errs = append(errs, err)
				return
			}
			contacts = append(contacts, got...)
		}()
	}
	wg.Wait()

	if len(contacts) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sortContacts(contacts)
	return contacts, nil
}

func (c *Client) remote(sourceID string) (core.Remote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remote, ok := c.remotes[sourceID]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", sourceID, core.ErrSourceUnreachable)
	}
	return remote, nil
}
