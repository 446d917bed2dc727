// Package davtest provides an in-memory remote for testing.
//
// The fake implements core.Remote with real revision semantics, so the
// layers above it can be exercised without a server: conditional writes
// fail with core.ErrStaleRevision on a mismatched etag and with
// core.ErrIdentityCollision on an occupied path, and window fetches
// evaluate recurrence rules the way a server's time-range filter does.
//
// # Basic Usage
//
//	remote := davtest.New("work")
//	cal := remote.AddCalendar("/cal/work/", "Work")
//
//	start, _ := caltime.New("2025-06-02", "10:00", "Europe/Paris")
//	remote.Seed(cal.Path, core.Event{
//		UID:   "standup",
//		Start: start,
//		End:   start.Add(30 * time.Minute),
//	})
//
//	c := client.New(client.Config{
//		Dial: func(ctx context.Context, src core.Source) (core.Remote, error) {
//			return remote, nil
//		},
//	})
//
// # Test Helpers
//
// Seed pre-populates one resource and returns it stamped with its
// revision; Object reads a resource back for assertions; Fail makes
// every call return a chosen error to simulate an unreachable source;
// SetExpand(true) turns on server-side occurrence expansion so the
// merge path above it can be tested. Reset clears all data between
// tests.
package davtest
