package dav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/emersion/go-webdav/caldav"
	"github.com/emersion/go-webdav/carddav"

	"caldr/internal/core"
	"caldr/internal/ics"
)

// Objects implements core.Remote with a windowed calendar-query REPORT.
// The expand flag is ignored; see SupportsExpand.
func (r *Remote) Objects(ctx context.Context, calendarPath string, w core.Window, expand bool) ([]core.Object, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: w.Start.UTC(),
				End:   w.End.UTC(),
			}},
		},
	}
	objs, err := r.cal.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, unreachable("query "+calendarPath, err)
	}

	out := make([]core.Object, 0, len(objs))
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		events := ics.Events(obj.Data, r.floatingZone)
		if len(events) == 0 {
			// Matched the filter but parsed to nothing we display.
			continue
		}
		o := core.Object{Path: obj.Path, ETag: quoteETag(obj.ETag)}
		o.Events = r.stamp(events, calendarPath, o.Path, o.ETag)
		out = append(out, o)
	}
	return out, nil
}

// GetObject implements core.Remote. The fetch goes over plain GET so a
// missing resource maps cleanly to ErrNotFound.
func (r *Remote) GetObject(ctx context.Context, p string) (core.Object, error) {
	req, err := r.newRequest(ctx, http.MethodGet, p, nil)
	if err != nil {
		return core.Object{}, err
	}
	resp, err := r.do(req)
	if err != nil {
		return core.Object{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Object{}, statusErr(resp, p)
	}

	events, err := ics.Decode(resp.Body, r.floatingZone)
	if err != nil {
		return core.Object{}, fmt.Errorf("object %s: %w", p, err)
	}
	o := core.Object{Path: p, ETag: resp.Header.Get("Etag")}
	o.Events = r.stamp(events, strings.TrimSuffix(p, path.Base(p)), p, o.ETag)
	return o, nil
}

// CreateObject implements core.Remote. If-None-Match guards the write,
// so a path collision surfaces instead of overwriting a stranger.
func (r *Remote) CreateObject(ctx context.Context, p string, events []core.Event) (string, error) {
	resp, err := r.put(ctx, p, events, func(h http.Header) {
		h.Set("If-None-Match", "*")
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return r.putETag(ctx, resp, p)
	case http.StatusPreconditionFailed:
		return "", fmt.Errorf("object %s: %w", p, core.ErrIdentityCollision)
	default:
		return "", statusErr(resp, p)
	}
}

// UpdateObject implements core.Remote. A non-empty etag becomes the
// If-Match condition; empty replaces unconditionally.
func (r *Remote) UpdateObject(ctx context.Context, p, etag string, events []core.Event) (string, error) {
	resp, err := r.put(ctx, p, events, func(h http.Header) {
		if etag != "" {
			h.Set("If-Match", quoteETag(etag))
		}
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return r.putETag(ctx, resp, p)
	default:
		return "", statusErr(resp, p)
	}
}

// DeleteObject implements core.Remote.
func (r *Remote) DeleteObject(ctx context.Context, p, etag string) error {
	req, err := r.newRequest(ctx, http.MethodDelete, p, nil)
	if err != nil {
		return err
	}
	if etag != "" {
		req.Header.Set("If-Match", quoteETag(etag))
	}
	resp, err := r.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return statusErr(resp, p)
	}
}

// Contacts implements core.Remote with an addressbook-query REPORT.
func (r *Remote) Contacts(ctx context.Context, bookPath string) ([]core.Contact, error) {
	if r.card == nil {
		return nil, fmt.Errorf("book %s: source has no carddav context: %w", bookPath, core.ErrNotFound)
	}
	query := &carddav.AddressBookQuery{
		DataRequest: carddav.AddressDataRequest{AllProp: true},
	}
	objs, err := r.card.QueryAddressBook(ctx, bookPath, query)
	if err != nil {
		return nil, unreachable("query "+bookPath, err)
	}

	out := make([]core.Contact, 0, len(objs))
	for _, obj := range objs {
		c := ics.ContactFromCard(obj.Card)
		c.SourceID = r.sourceID
		c.BookPath = bookPath
		c.Path = obj.Path
		c.ETag = quoteETag(obj.ETag)
		out = append(out, c)
	}
	return out, nil
}

func (r *Remote) stamp(events []core.Event, calPath, p, etag string) []core.Event {
	for i := range events {
		events[i].SourceID = r.sourceID
		events[i].CalendarPath = calPath
		events[i].Path = p
		events[i].ETag = etag
	}
	return events
}

func (r *Remote) put(ctx context.Context, p string, events []core.Event, headers func(http.Header)) (*http.Response, error) {
	var body bytes.Buffer
	if err := ics.Encode(&body, events); err != nil {
		return nil, fmt.Errorf("object %s: %w", p, err)
	}
	req, err := r.newRequest(ctx, http.MethodPut, p, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	headers(req.Header)
	return r.do(req)
}

// putETag extracts the revision tag of a successful PUT. Servers that
// rewrite payloads omit the header; those need a follow-up read.
func (r *Remote) putETag(ctx context.Context, resp *http.Response, p string) (string, error) {
	io.Copy(io.Discard, resp.Body)
	if etag := resp.Header.Get("Etag"); etag != "" {
		return etag, nil
	}
	req, err := r.newRequest(ctx, http.MethodGet, p, nil)
	if err != nil {
		return "", err
	}
	got, err := r.do(req)
	if err != nil {
		return "", err
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		return "", statusErr(got, p)
	}
	io.Copy(io.Discard, got.Body)
	return got.Header.Get("Etag"), nil
}

func (r *Remote) newRequest(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	u := r.base.ResolveReference(&url.URL{Path: p})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", p, err)
	}
	return req, nil
}

func (r *Remote) do(req *http.Request) (*http.Response, error) {
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, unreachable(req.Method+" "+req.URL.Path, err)
	}
	return resp, nil
}

func statusErr(resp *http.Response, p string) error {
	io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("object %s: %w", p, core.ErrNotFound)
	case resp.StatusCode == http.StatusPreconditionFailed:
		return fmt.Errorf("object %s: %w", p, core.ErrStaleRevision)
	case resp.StatusCode >= 500:
		return fmt.Errorf("object %s: %s: %w", p, resp.Status, core.ErrSourceUnreachable)
	default:
		return fmt.Errorf("object %s: unexpected status %s", p, resp.Status)
	}
}
