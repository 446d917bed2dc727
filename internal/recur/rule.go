// Package recur translates between the wire recurrence-rule grammar and
// the structured rule value the edit surfaces work with. The grammar
// itself (tokenizing, ordinal weekdays, skip semantics) belongs to
// github.com/teambition/rrule-go; this package owns the editing policy
// on top of it.
package recur

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"caldr/internal/caltime"
)

// Frequency is the repeat unit of a rule.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

// String renders the frequency for logs and summaries.
func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// Rule is the editable recurrence model. The end condition is exactly one
// of unbounded (Count zero, Until zero), a count, or an until instant;
// use WithCount/WithUntil/Unbounded to switch between them, which keeps
// the two fields mutually exclusive.
type Rule struct {
	Freq       Frequency
	Interval   int            // repeat every N units; >= 1
	ByDay      []time.Weekday // weekly day set, in authored order
	ByMonthDay int            // day of month, 0 when unset
	ByMonth    time.Month     // 0 when unset
	Count      int            // 0 when unset
	Until      caltime.Time   // zero when unset
}

// New returns a rule repeating at the given frequency with interval 1 and
// no end condition.
func New(freq Frequency) Rule {
	return Rule{Freq: freq, Interval: 1}
}

// SetFrequency switches the repeat unit. The by-day, by-month-day, and
// by-month selections are reset (a weekly day set is meaningless for a
// monthly rule); interval and end condition carry over.
func (r Rule) SetFrequency(f Frequency) Rule {
	return Rule{Freq: f, Interval: r.Interval, Count: r.Count, Until: r.Until}
}

// WithCount ends the rule after n occurrences, clearing any until.
func (r Rule) WithCount(n int) Rule {
	r.Count = n
	r.Until = caltime.Time{}
	return r
}

// WithUntil ends the rule at t, clearing any count.
func (r Rule) WithUntil(t caltime.Time) Rule {
	r.Until = t
	r.Count = 0
	return r
}

// Unbounded removes the end condition.
func (r Rule) Unbounded() Rule {
	r.Count = 0
	r.Until = caltime.Time{}
	return r
}

// Problems reports caller-side warnings for rules that are legal on the
// wire but deserve a prompt, currently a monthly/yearly day-of-month of
// 29-31: months lacking that day produce no occurrence, which the wire
// grammar's skip semantics allow and this package deliberately does not
// clamp.
func (r Rule) Problems() []string {
	var out []string
	if r.ByMonthDay >= 29 {
		out = append(out, fmt.Sprintf("day %d does not exist in every month; shorter months are skipped", r.ByMonthDay))
	}
	return out
}

// Encode renders the rule in the wire grammar. Encoding a rule with both
// a count and an until set, or an interval below 1, is a caller error.
func (r Rule) Encode() (string, error) {
	if r.Interval < 1 {
		return "", fmt.Errorf("encode rule: interval %d is below 1", r.Interval)
	}
	if r.Count < 0 {
		return "", fmt.Errorf("encode rule: negative count %d", r.Count)
	}
	if r.Count > 0 && !r.Until.IsZero() {
		return "", errors.New("encode rule: count and until are mutually exclusive")
	}
	if r.ByMonthDay < 0 || r.ByMonthDay > 31 {
		return "", fmt.Errorf("encode rule: day of month %d out of range", r.ByMonthDay)
	}
	if r.ByMonth < 0 || r.ByMonth > 12 {
		return "", fmt.Errorf("encode rule: month %d out of range", r.ByMonth)
	}

	opt := rrule.ROption{Freq: wireFreq(r.Freq)}
	if r.Interval > 1 {
		opt.Interval = r.Interval
	}
	for _, d := range r.ByDay {
		opt.Byweekday = append(opt.Byweekday, wireWeekday(d))
	}
	if r.ByMonthDay != 0 {
		opt.Bymonthday = []int{r.ByMonthDay}
	}
	if r.ByMonth != 0 {
		opt.Bymonth = []int{int(r.ByMonth)}
	}
	if r.Count > 0 {
		opt.Count = r.Count
	}
	if !r.Until.IsZero() {
		opt.Until = r.Until.Instant().UTC()
	}
	return opt.RRuleString(), nil
}

// Parse interprets a wire rule. Sub-daily frequencies are rejected; parts
// the editing model does not carry (ordinal weekdays, set positions,
// additional by-month-day entries) are reduced to their closest editable
// form. Callers that must preserve such rules verbatim keep the raw wire
// string on the event and only replace it when the rule is actually
// edited.
func Parse(wire string) (Rule, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(wire), "RRULE:"))
	if s == "" {
		return Rule{}, errors.New("parse rule: empty value")
	}
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("parse rule %q: %w", wire, err)
	}

	var r Rule
	switch opt.Freq {
	case rrule.DAILY:
		r.Freq = Daily
	case rrule.WEEKLY:
		r.Freq = Weekly
	case rrule.MONTHLY:
		r.Freq = Monthly
	case rrule.YEARLY:
		r.Freq = Yearly
	default:
		return Rule{}, fmt.Errorf("parse rule %q: unsupported frequency %v", wire, opt.Freq)
	}

	r.Interval = opt.Interval
	if r.Interval < 1 {
		r.Interval = 1
	}
	for _, wd := range opt.Byweekday {
		r.ByDay = append(r.ByDay, civilWeekday(wd))
	}
	if len(opt.Bymonthday) > 0 {
		r.ByMonthDay = opt.Bymonthday[0]
	}
	if len(opt.Bymonth) > 0 {
		r.ByMonth = time.Month(opt.Bymonth[0])
	}
	if opt.Count > 0 {
		r.Count = opt.Count
	}
	if !opt.Until.IsZero() {
		r.Until = caltime.FromInstant(opt.Until)
	}
	return r, nil
}

// Equal reports whether two rules are the same editable value.
func (r Rule) Equal(o Rule) bool {
	if r.Freq != o.Freq || r.Interval != o.Interval ||
		r.ByMonthDay != o.ByMonthDay || r.ByMonth != o.ByMonth ||
		r.Count != o.Count || !r.Until.Equal(o.Until) || r.Until.IsZero() != o.Until.IsZero() {
		return false
	}
	if len(r.ByDay) != len(o.ByDay) {
		return false
	}
	for i := range r.ByDay {
		if r.ByDay[i] != o.ByDay[i] {
			return false
		}
	}
	return true
}

func wireFreq(f Frequency) rrule.Frequency {
	switch f {
	case Weekly:
		return rrule.WEEKLY
	case Monthly:
		return rrule.MONTHLY
	case Yearly:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}

// wireWeekday maps a civil weekday onto the grammar's Monday-based one.
func wireWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func civilWeekday(d rrule.Weekday) time.Weekday {
	return time.Weekday((d.Day() + 1) % 7)
}
