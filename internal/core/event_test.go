package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/caltime"
)

func TestIdentity(t *testing.T) {
	tmpl := Event{UID: "abc"}
	assert.Equal(t, "abc", tmpl.Identity())
	assert.False(t, tmpl.IsException())

	occ, err := caltime.New("2025-06-27", "10:00", "Europe/Paris")
	require.NoError(t, err)
	exc := Event{UID: "abc", RecurrenceID: occ}
	assert.Equal(t, "abc/20250627T100000", exc.Identity())
	assert.True(t, exc.IsException())

	day, err := caltime.Date("2025-06-27")
	require.NoError(t, err)
	assert.Equal(t, "abc/20250627", Event{UID: "abc", RecurrenceID: day}.Identity())
}

func TestWindowOverlaps(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
	}

	at := func(day, hour int) time.Time {
		return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
	}

	assert.True(t, w.Overlaps(at(3, 10), at(3, 11)))
	assert.True(t, w.Overlaps(at(7, 23), at(8, 1)), "spans crossing the end overlap")
	assert.True(t, w.Overlaps(time.Date(2025, 5, 31, 10, 0, 0, 0, time.UTC), at(1, 1)),
		"spans crossing the start overlap")
	assert.False(t, w.Overlaps(at(8, 0), at(8, 1)), "the window end is exclusive")
	assert.False(t, w.Overlaps(at(9, 0), at(10, 0)))

	// Zero-length spans count by their instant.
	assert.True(t, w.Overlaps(at(3, 10), at(3, 10)))
	assert.False(t, w.Overlaps(at(8, 0), at(8, 0)))
}
