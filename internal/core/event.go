package core

import (
	"time"

	"caldr/internal/caltime"
	"caldr/internal/recur"
)

// Status is the scheduling state of an event.
type Status int

const (
	StatusConfirmed Status = iota
	// Tentatively scheduled
	StatusTentative
	// Cancelled; kept on the wire so expanders drop the occurrence
	StatusCancelled
)

// Response represents a participant's answer to an invitation.
type Response int

const (
	// Awaiting the participant's response
	ResponseNeedsAction Response = iota
	ResponseAccepted
	ResponseDeclined
	ResponseTentative
)

// Attendee is a participant on an event. The same shape is used for the
// organizer, whose Response carries no meaning.
type Attendee struct {
	Name     string
	Email    string
	Response Response
}

// Alarm is a reminder attached to an event.
type Alarm struct {
	// For example, "DISPLAY" or "EMAIL"
	Action string
	// Relative to the event start; negative means before
	Offset      time.Duration
	Description string
}

// Event is the canonical calendar entry. Both sync directions speak this
// shape: adapters convert remote payloads into it, and the codec renders
// it back out. One recurring series is stored as a template event plus
// zero or more exception events sharing its UID, each exception keyed by
// the occurrence start it replaces.
type Event struct {
	// Unique ID within the calendar (provided by the source on fetch,
	// generated locally on create)
	UID string
	// The occurrence start this event overrides; zero for the template
	RecurrenceID caltime.Time

	// Which source and calendar this event came from
	SourceID     string
	CalendarPath string
	// Resource coordinates on the remote, stamped by the adapter.
	// Events parsed from the same resource share Path and ETag.
	Path string
	ETag string

	// Details
	Summary     string
	Description string
	Location    string
	Status      Status
	URL         string

	// Timing
	Start caltime.Time
	End   caltime.Time

	// Recurrence. RawRule keeps the wire form verbatim so rule parts
	// beyond the editable model survive round-trips; Rule is nil when
	// the event does not recur or the rule could not be reduced.
	RawRule string
	Rule    *recur.Rule
	// Occurrence starts removed from the series
	ExDates []caltime.Time

	Organizer Attendee
	Attendees []Attendee
	Alarms    []Alarm

	// Bumped on every mutation that changes scheduling
	Sequence int
}

// AllDay reports whether the event covers whole civil days.
func (e Event) AllDay() bool {
	return e.Start.AllDay()
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// InProgress checks if the event is happening right now.
func (e Event) InProgress(now time.Time) bool {
	return now.After(e.Start.Instant()) && now.Before(e.End.Instant())
}

// Recurs reports whether the event carries a recurrence rule.
func (e Event) Recurs() bool {
	return e.RawRule != ""
}

// IsException reports whether the event overrides one occurrence of a
// recurring series.
func (e Event) IsException() bool {
	return !e.RecurrenceID.IsZero()
}

// Cancelled reports whether the event was cancelled.
func (e Event) Cancelled() bool {
	return e.Status == StatusCancelled
}

// Identity keys the event within its calendar: the UID alone for a
// template, the UID plus the overridden occurrence start for an
// exception.
func (e Event) Identity() string {
	if e.RecurrenceID.IsZero() {
		return e.UID
	}
	v, _, _ := e.RecurrenceID.ICal()
	return e.UID + "/" + v
}
