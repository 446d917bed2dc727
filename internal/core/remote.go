package core

import (
	"context"
	"time"
)

// Window bounds a fetch in absolute time, half-open [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether the spans [from, until) and the window share
// any instant. Zero-length spans count when their instant is inside.
func (w Window) Overlaps(from, until time.Time) bool {
	if !until.After(from) {
		return w.Contains(from)
	}
	return from.Before(w.End) && until.After(w.Start)
}

// Object is one calendar resource: the series template plus any
// exception events sharing its UID, or a single event for non-recurring
// entries.
type Object struct {
	// Resource path on the server
	Path string
	// Revision tag the server returned for this resource
	ETag string
	// Events parsed from the resource payload
	Events []Event
}

// Remote is a connected source. Implementations talk one wire protocol
// and convert payloads to the canonical event shape; everything above
// this interface is protocol-agnostic.
//
// Mutations are guarded: CreateObject must fail with ErrIdentityCollision
// if the path is already taken, UpdateObject and DeleteObject must fail
// with ErrStaleRevision if the resource's revision no longer matches
// etag. Transport failures wrap ErrSourceUnreachable.
type Remote interface {
	// Calendars lists the event collections behind the source.
	Calendars(ctx context.Context) ([]Calendar, error)

	// Objects retrieves the resources of one calendar that overlap the
	// window. When expand is true and the remote supports it, recurring
	// resources come back with server-computed occurrences instead of
	// the raw template; remotes without expansion ignore the flag.
	Objects(ctx context.Context, calendarPath string, w Window, expand bool) ([]Object, error)

	// GetObject retrieves a single resource by path.
	GetObject(ctx context.Context, path string) (Object, error)

	// CreateObject writes a new resource and returns its revision tag.
	CreateObject(ctx context.Context, path string, events []Event) (etag string, err error)

	// UpdateObject replaces the resource at path, conditional on etag,
	// and returns the new revision tag.
	UpdateObject(ctx context.Context, path, etag string, events []Event) (newETag string, err error)

	// DeleteObject removes the resource at path, conditional on etag.
	DeleteObject(ctx context.Context, path, etag string) error

	// AddressBooks lists the contact collections behind the source, if
	// the source carries any.
	AddressBooks(ctx context.Context) ([]AddressBook, error)

	// Contacts retrieves the entries of one address book.
	Contacts(ctx context.Context, bookPath string) ([]Contact, error)

	// SupportsExpand reports whether Objects honors the expand flag.
	SupportsExpand() bool
}
