package davtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/caltime"
	"caldr/internal/core"
)

func mustTime(t *testing.T, date, clock, zone string) caltime.Time {
	t.Helper()
	v, err := caltime.New(date, clock, zone)
	require.NoError(t, err)
	return v
}

func TestRevisionSemantics(t *testing.T) {
	ctx := context.Background()
	remote := New("test")
	cal := remote.AddCalendar("/cal/test/", "Test")

	start := mustTime(t, "2025-06-02", "10:00", "UTC")
	seeded := remote.Seed(cal.Path, core.Event{UID: "a", Start: start, End: start.Add(time.Hour)})

	_, err := remote.CreateObject(ctx, seeded.Path, seeded.Events)
	assert.ErrorIs(t, err, core.ErrIdentityCollision)

	_, err = remote.UpdateObject(ctx, seeded.Path, `"rev-999"`, seeded.Events)
	assert.ErrorIs(t, err, core.ErrStaleRevision)

	newTag, err := remote.UpdateObject(ctx, seeded.Path, seeded.ETag, seeded.Events)
	require.NoError(t, err)
	assert.NotEqual(t, seeded.ETag, newTag)

	err = remote.DeleteObject(ctx, seeded.Path, seeded.ETag)
	assert.ErrorIs(t, err, core.ErrStaleRevision, "the old revision no longer matches")

	require.NoError(t, remote.DeleteObject(ctx, seeded.Path, newTag))
	_, err = remote.GetObject(ctx, seeded.Path)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestWindowFilterEvaluatesRules(t *testing.T) {
	ctx := context.Background()
	remote := New("test")
	cal := remote.AddCalendar("/cal/test/", "Test")

	start := mustTime(t, "2025-01-06", "09:00", "UTC") // a Monday
	remote.Seed(cal.Path, core.Event{
		UID:     "weekly",
		Start:   start,
		End:     start.Add(time.Hour),
		RawRule: "FREQ=WEEKLY;BYDAY=MO;UNTIL=20250301T000000Z",
	})

	june := core.Window{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	objs, err := remote.Objects(ctx, cal.Path, june, false)
	require.NoError(t, err)
	assert.Empty(t, objs, "the series ended before the window")

	feb := core.Window{
		Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	objs, err = remote.Objects(ctx, cal.Path, feb, false)
	require.NoError(t, err)
	require.Len(t, objs, 1, "occurrences fall inside the window even though the template start does not")
	assert.Equal(t, "weekly", objs[0].Events[0].UID)
	assert.Equal(t, "test", objs[0].Events[0].SourceID)
}

func TestContactsRoundTripThroughCards(t *testing.T) {
	ctx := context.Background()
	remote := New("test")
	book := remote.AddAddressBook("/card/test/", "People")
	remote.AddContact(book.Path, core.Contact{
		UID:    "ada",
		Name:   "Ada Lovelace",
		Emails: []string{"ada@example.org"},
		Phones: []string{"+44 20 7946 0000"},
	})

	contacts, err := remote.Contacts(ctx, book.Path)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	c := contacts[0]
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, []string{"ada@example.org"}, c.Emails)
	assert.Equal(t, []string{"+44 20 7946 0000"}, c.Phones)
	assert.Equal(t, "test", c.SourceID)
	assert.Equal(t, "/card/test/ada.vcf", c.Path)
	assert.NotEmpty(t, c.ETag)
}

func TestServerSideExpansion(t *testing.T) {
	ctx := context.Background()
	remote := New("test")
	cal := remote.AddCalendar("/cal/test/", "Test")
	remote.SetExpand(true)

	start := mustTime(t, "2025-06-02", "10:00", "Europe/Paris") // a Monday
	moved := start.AddDays(7).Add(4 * time.Hour)
	remote.Seed(cal.Path,
		core.Event{
			UID:     "standup",
			Summary: "Standup",
			Start:   start,
			End:     start.Add(30 * time.Minute),
			RawRule: "FREQ=WEEKLY;BYDAY=MO;COUNT=4",
		},
		core.Event{
			UID:          "standup",
			RecurrenceID: start.AddDays(7),
			Summary:      "Standup (moved)",
			Start:        moved,
			End:          moved.Add(30 * time.Minute),
		},
		core.Event{
			UID:          "standup",
			RecurrenceID: start.AddDays(14),
			Summary:      "Standup",
			Start:        start.AddDays(14),
			End:          start.AddDays(14).Add(30 * time.Minute),
			Status:       core.StatusCancelled,
		},
	)

	w := core.Window{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	objs, err := remote.Objects(ctx, cal.Path, w, true)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	var summaries []string
	for _, e := range objs[0].Events {
		require.True(t, e.IsException() || !e.Recurs(), "expanded instances carry no rule")
		summaries = append(summaries, e.Summary)
	}
	// Four occurrences minus the cancelled one, with the moved override.
	assert.Len(t, summaries, 3)
	assert.Contains(t, summaries, "Standup (moved)")
}
