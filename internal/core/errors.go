package core

import "errors"

// Failure classes surfaced to callers. Adapters wrap transport detail
// around these so callers can branch with errors.Is without knowing the
// wire protocol.
var (
	// The source could not be reached or answered with a server failure.
	// Cached data stays valid; the caller may retry later.
	ErrSourceUnreachable = errors.New("source unreachable")

	// The resource changed on the remote since it was fetched. The
	// caller must refetch and reapply; nothing was written.
	ErrStaleRevision = errors.New("stale revision")

	// A resource with the same identity already exists on the remote.
	ErrIdentityCollision = errors.New("identity collision")

	// The resource is gone or was never there.
	ErrNotFound = errors.New("not found")
)
