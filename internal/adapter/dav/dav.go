// Package dav implements core.Remote over CalDAV and CardDAV. Discovery
// and windowed queries go through the webdav client library; writes go
// over plain HTTP so the adapter controls the conditional headers the
// revision checks depend on.
package dav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/emersion/go-webdav/carddav"
	"golang.org/x/oauth2"

	"caldr/internal/core"
)

// Auth modes accepted in a source's config.
const (
	AuthBasic = "basic"
	AuthOAuth = "oauth"
)

// Options carries the construction parameters New cannot derive from the
// source itself.
type Options struct {
	// IANA zone floating wire times resolve in; empty means UTC
	FloatingZone string
	// Token source for sources with Auth "oauth"
	TokenSource oauth2.TokenSource
	// Logger for discovery chatter; nil falls back to slog.Default()
	Logger *slog.Logger
}

// Remote is one connected CalDAV/CardDAV account.
type Remote struct {
	sourceID     string
	base         *url.URL
	httpc        webdav.HTTPClient
	cal          *caldav.Client
	card         *carddav.Client
	floatingZone string
	log          *slog.Logger
}

var _ core.Remote = (*Remote)(nil)

// New connects a source. An endpoint without a scheme is treated as a
// bare domain and resolved through well-known discovery; a full URL is
// used as the context path directly. The address book context is
// optional: a source whose server speaks no CardDAV still connects.
func New(ctx context.Context, src core.Source, opts Options) (*Remote, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	httpc, err := authClient(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	calURL, cardURL := src.Endpoint, src.Endpoint
	if !strings.Contains(src.Endpoint, "://") {
		calURL, err = caldav.DiscoverContextURL(ctx, src.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("discover caldav context for %q: %w", src.Endpoint, errors.Join(core.ErrSourceUnreachable, err))
		}
		log.Debug("discovered caldav context", "source", src.ID, "url", calURL)
		cardURL, err = carddav.DiscoverContextURL(ctx, src.Endpoint)
		if err != nil {
			log.Debug("no carddav context", "source", src.ID, "error", err)
			cardURL = ""
		}
	}

	base, err := url.Parse(calURL)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", calURL, err)
	}

	cal, err := caldav.NewClient(httpc, calURL)
	if err != nil {
		return nil, fmt.Errorf("caldav client for %q: %w", calURL, err)
	}
	var card *carddav.Client
	if cardURL != "" {
		card, err = carddav.NewClient(httpc, cardURL)
		if err != nil {
			return nil, fmt.Errorf("carddav client for %q: %w", cardURL, err)
		}
	}

	return &Remote{
		sourceID:     src.ID,
		base:         base,
		httpc:        httpc,
		cal:          cal,
		card:         card,
		floatingZone: opts.FloatingZone,
		log:          log,
	}, nil
}

func authClient(ctx context.Context, src core.Source, opts Options) (webdav.HTTPClient, error) {
	switch src.Auth {
	case AuthOAuth:
		if opts.TokenSource == nil {
			return nil, fmt.Errorf("source %s: oauth auth needs a token source", src.ID)
		}
		return oauth2.NewClient(ctx, opts.TokenSource), nil
	case AuthBasic, "":
		if src.Username == "" {
			return http.DefaultClient, nil
		}
		return webdav.HTTPClientWithBasicAuth(nil, src.Username, src.Password), nil
	default:
		return nil, fmt.Errorf("source %s: unknown auth mode %q", src.ID, src.Auth)
	}
}

// SupportsExpand implements core.Remote. Server-side expansion needs a
// calendar-data expand element the client library cannot emit, so
// recurring resources always come back as templates.
func (r *Remote) SupportsExpand() bool { return false }

// Calendars implements core.Remote: principal, then home set, then the
// collections under it.
func (r *Remote) Calendars(ctx context.Context) ([]core.Calendar, error) {
	principal, err := r.cal.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, unreachable("find principal", err)
	}
	home, err := r.cal.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, unreachable("find calendar home set", err)
	}
	cals, err := r.cal.FindCalendars(ctx, home)
	if err != nil {
		return nil, unreachable("list calendars", err)
	}

	out := make([]core.Calendar, 0, len(cals))
	for _, cl := range cals {
		out = append(out, core.Calendar{
			SourceID:    r.sourceID,
			Path:        cl.Path,
			Name:        cl.Name,
			Description: cl.Description,
			HoldsEvents: holdsEvents(cl.SupportedComponentSet),
		})
	}
	return out, nil
}

// holdsEvents reports whether a collection accepts VEVENT. Servers that
// advertise no component set get the benefit of the doubt.
func holdsEvents(set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, comp := range set {
		if comp == "VEVENT" {
			return true
		}
	}
	return false
}

// AddressBooks implements core.Remote. A source without a CardDAV
// context has no books; that is not an error.
func (r *Remote) AddressBooks(ctx context.Context) ([]core.AddressBook, error) {
	if r.card == nil {
		return nil, nil
	}
	principal, err := r.card.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, unreachable("find principal", err)
	}
	home, err := r.card.FindAddressBookHomeSet(ctx, principal)
	if err != nil {
		return nil, unreachable("find address book home set", err)
	}
	books, err := r.card.FindAddressBooks(ctx, home)
	if err != nil {
		return nil, unreachable("list address books", err)
	}

	out := make([]core.AddressBook, 0, len(books))
	for _, b := range books {
		out = append(out, core.AddressBook{
			SourceID:    r.sourceID,
			Path:        b.Path,
			Name:        b.Name,
			Description: b.Description,
		})
	}
	return out, nil
}

func unreachable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(core.ErrSourceUnreachable, err))
}

// quoteETag restores the wire form the webdav library strips from
// multistatus responses. Header values are already quoted and pass
// through untouched, as do weak validators.
func quoteETag(s string) string {
	if s == "" || strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "W/") {
		return s
	}
	return `"` + s + `"`
}
