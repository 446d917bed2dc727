package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caldr/internal/caltime"
	"caldr/internal/core"
	"caldr/internal/editor"
	"caldr/internal/recur"
)

var eventCmd = &cobra.Command{
	Use:     "event",
	Aliases: []string{"ev"},
	Short:   "Create, inspect, move, and delete events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an event",
	Long: `Create an event on one of your calendars.

Examples:
  caldr event add --calendar Work --summary "Standup" --start "2025-09-01 09:30"
  caldr event add --calendar Personal --summary "Trip" --start 2025-09-05 --end 2025-09-08
  caldr event add --calendar Work --summary "Review" --start "2025-09-02 15:00" \
      --repeat weekly --byday tue --count 10`,
	RunE: runEventAdd,
}

var eventShowCmd = &cobra.Command{
	Use:   "show <uid>",
	Short: "Show one event in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventShow,
}

var eventMoveCmd = &cobra.Command{
	Use:   "move <uid>",
	Short: "Move or resize an event",
	Long: `Move an event to a new start (and optionally a new end). The event keeps
its wall-clock time in its own timezone: moving a 10:00 meeting to 14:00
lands it at 14:00 even across a DST change.

For a repeating event, pass --on to pick one occurrence and --scope to
say whether the move applies to that occurrence or the whole series.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventMove,
}

var eventDeleteCmd = &cobra.Command{
	Use:     "delete <uid>",
	Aliases: []string{"rm"},
	Short:   "Delete an event",
	Long: `Delete an event. Deleting one occurrence of a repeating series keeps the
series alive: the occurrence is cancelled and excluded, not the template.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventDelete,
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventShowCmd)
	eventCmd.AddCommand(eventMoveCmd)
	eventCmd.AddCommand(eventDeleteCmd)

	eventAddCmd.Flags().String("calendar", "", "Target calendar (name or path)")
	eventAddCmd.Flags().String("summary", "", "Event title")
	eventAddCmd.Flags().String("start", "", "Start ('YYYY-MM-DD HH:MM' or 'YYYY-MM-DD' for all-day)")
	eventAddCmd.Flags().String("end", "", "End (same forms; defaults to +30m, or +1 day all-day)")
	eventAddCmd.Flags().String("location", "", "Location")
	eventAddCmd.Flags().String("description", "", "Description")
	eventAddCmd.Flags().String("repeat", "", "Repeat frequency: daily, weekly, monthly, yearly")
	eventAddCmd.Flags().Int("every", 1, "Repeat interval (every N days/weeks/...)")
	eventAddCmd.Flags().String("byday", "", "Weekdays for weekly rules (e.g. mon,wed,fri)")
	eventAddCmd.Flags().Int("bymonthday", 0, "Day of month for monthly/yearly rules")
	eventAddCmd.Flags().Int("bymonth", 0, "Month (1-12) for yearly rules")
	eventAddCmd.Flags().Int("count", 0, "End after N occurrences")
	eventAddCmd.Flags().String("until", "", "End on this date (YYYY-MM-DD)")
	eventAddCmd.MarkFlagRequired("calendar")
	eventAddCmd.MarkFlagRequired("summary")
	eventAddCmd.MarkFlagRequired("start")

	eventShowCmd.Flags().String("on", "", "Pick one occurrence of a repeating event")

	eventMoveCmd.Flags().String("start", "", "New start ('YYYY-MM-DD HH:MM' or 'YYYY-MM-DD')")
	eventMoveCmd.Flags().String("end", "", "New end (omit to keep the duration)")
	eventMoveCmd.Flags().String("on", "", "Pick one occurrence of a repeating event")
	eventMoveCmd.Flags().String("scope", "", "For repeating events: occurrence or series")
	eventMoveCmd.MarkFlagRequired("start")

	eventDeleteCmd.Flags().String("on", "", "Pick one occurrence of a repeating event")
	eventDeleteCmd.Flags().String("scope", "", "For repeating events: occurrence or series")
	eventDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	calendarFlag, _ := cmd.Flags().GetString("calendar")
	target, err := pickCalendar(calendarFlag)
	if err != nil {
		return err
	}

	startStr, _ := cmd.Flags().GetString("start")
	start, err := parseWhen(startStr)
	if err != nil {
		return err
	}
	var end caltime.Time
	if endStr, _ := cmd.Flags().GetString("end"); endStr != "" {
		if end, err = parseWhen(endStr); err != nil {
			return err
		}
		if start.AllDay() && end.AllDay() {
			end = end.AddDays(1) // DTEND is exclusive; the end date is meant inclusively
		}
	}

	e := core.Event{Start: start, End: end}
	e.Summary, _ = cmd.Flags().GetString("summary")
	e.Location, _ = cmd.Flags().GetString("location")
	e.Description, _ = cmd.Flags().GetString("description")

	rule, err := buildRule(cmd)
	if err != nil {
		return err
	}
	e.Rule = rule

	created, err := ed.Create(cmd.Context(), target.SourceID, target.Path, e)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	fmt.Printf("✓ Created on %s\n\n", target.Name)
	DisplayEvent(created, DisplayOptionsFromConfig(true))
	if rule != nil {
		for _, warn := range rule.Problems() {
			fmt.Printf("\n⚠ %s\n", warn)
		}
	}
	return nil
}

func runEventShow(cmd *cobra.Command, args []string) error {
	on, _ := cmd.Flags().GetString("on")
	e, err := findEvent(cmd.Context(), args[0], on)
	if err != nil {
		return err
	}
	DisplayEvent(e, DisplayOptionsFromConfig(true))
	return nil
}

func runEventMove(cmd *cobra.Command, args []string) error {
	on, _ := cmd.Flags().GetString("on")
	e, err := findEvent(cmd.Context(), args[0], on)
	if err != nil {
		return err
	}

	scope, err := parseScope(cmd)
	if err != nil {
		return err
	}
	sel, _, err := ed.Select(cmd.Context(), e, scope)
	if err != nil {
		return err
	}

	startStr, _ := cmd.Flags().GetString("start")
	newStart, err := parseWhenInstant(startStr)
	if err != nil {
		return err
	}
	var newEnd time.Time
	if endStr, _ := cmd.Flags().GetString("end"); endStr != "" {
		if newEnd, err = parseWhenInstant(endStr); err != nil {
			return err
		}
	}

	moved, err := ed.MoveResize(cmd.Context(), sel, newStart, newEnd)
	if err != nil {
		if isStale(err) {
			return fmt.Errorf("the event changed on the server since it was fetched; rerun to retry: %w", err)
		}
		return fmt.Errorf("failed to move event: %w", err)
	}

	fmt.Println("✓ Moved")
	fmt.Println()
	DisplayEvent(moved, DisplayOptionsFromConfig(true))
	return nil
}

func runEventDelete(cmd *cobra.Command, args []string) error {
	on, _ := cmd.Flags().GetString("on")
	e, err := findEvent(cmd.Context(), args[0], on)
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		label := e.Summary
		if label == "" {
			label = e.UID
		}
		if !confirm(fmt.Sprintf("Delete %q?", label)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	scope, err := parseScope(cmd)
	if err != nil {
		return err
	}
	if err := ed.Delete(cmd.Context(), e, scope); err != nil {
		if isStale(err) {
			return fmt.Errorf("the event changed on the server since it was fetched; rerun to retry: %w", err)
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Println("✓ Deleted")
	return nil
}

// pickCalendar resolves a --calendar value to exactly one calendar.
func pickCalendar(name string) (core.Calendar, error) {
	if name == "" {
		return core.Calendar{}, fmt.Errorf("no calendar given")
	}
	matches := resolveCalendars([]string{name})
	if len(matches) == 0 {
		return core.Calendar{}, fmt.Errorf("no calendar matches %q\nUse 'caldr calendars' to see available calendars", name)
	}
	return matches[0], nil
}

// findEvent fetches a window around now and resolves a UID (or unique UID
// prefix) to its cached event. With on set, the matching occurrence of the
// series is returned instead of the template.
func findEvent(ctx context.Context, uid, on string) (core.Event, error) {
	now := time.Now()
	w := core.Window{Start: now.AddDate(0, -1, 0), End: now.AddDate(1, 0, 0)}
	if viper.GetString("from") != "" || viper.GetString("to") != "" {
		var err error
		if w, err = resolveRange(now); err != nil {
			return core.Event{}, err
		}
	}

	events, err := cal.FetchWindow(ctx, w)
	if err != nil {
		return core.Event{}, fmt.Errorf("failed to fetch events: %w", err)
	}

	var match core.Event
	found := 0
	for _, e := range events {
		if e.IsException() {
			continue
		}
		if e.UID == uid {
			match, found = e, 1
			break
		}
		if strings.HasPrefix(e.UID, uid) {
			match = e
			found++
		}
	}
	switch {
	case found == 0:
		return core.Event{}, fmt.Errorf("event %s: %w (searched %s to %s)", uid, core.ErrNotFound,
			w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	case found > 1:
		return core.Event{}, fmt.Errorf("uid prefix %q is ambiguous (%d matches)", uid, found)
	}

	if on == "" {
		return match, nil
	}

	slot, err := parseWhen(on)
	if err != nil {
		return core.Event{}, err
	}
	occurrences, err := cal.Occurrences(w)
	if err != nil {
		return core.Event{}, err
	}
	for _, occ := range occurrences {
		if occ.UID != match.UID || !occ.IsException() {
			continue
		}
		if occ.RecurrenceID.Instant().Equal(slot.Instant()) || occ.Start.Instant().Equal(slot.Instant()) {
			return occ, nil
		}
	}
	return core.Event{}, fmt.Errorf("no occurrence of %s at %s: %w", match.UID, slot, core.ErrNotFound)
}

// parseWhen reads 'YYYY-MM-DD HH:MM' (or with 'T') as a timed value in the
// display zone, and a bare 'YYYY-MM-DD' as an all-day value.
func parseWhen(s string) (caltime.Time, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " T") {
		parts := strings.SplitN(strings.ReplaceAll(s, "T", " "), " ", 2)
		zone := viper.GetString("timezone")
		if zone == "" {
			zone = "Local"
		}
		return caltime.New(parts[0], parts[1], zone)
	}
	return caltime.Date(s)
}

// parseWhenInstant reads the same forms as parseWhen but as a grid
// position in the display zone, the shape MoveResize expects.
func parseWhenInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := displayLocation()
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse %q (use 'YYYY-MM-DD HH:MM' or 'YYYY-MM-DD')", s)
}

func buildRule(cmd *cobra.Command) (*recur.Rule, error) {
	repeat, _ := cmd.Flags().GetString("repeat")
	if repeat == "" {
		return nil, nil
	}

	var freq recur.Frequency
	switch strings.ToLower(repeat) {
	case "daily":
		freq = recur.Daily
	case "weekly":
		freq = recur.Weekly
	case "monthly":
		freq = recur.Monthly
	case "yearly":
		freq = recur.Yearly
	default:
		return nil, fmt.Errorf("unknown repeat frequency %q (use daily, weekly, monthly, yearly)", repeat)
	}

	r := recur.New(freq)
	if every, _ := cmd.Flags().GetInt("every"); every != 1 {
		r.Interval = every
	}
	if byday, _ := cmd.Flags().GetString("byday"); byday != "" {
		days, err := parseWeekdays(byday)
		if err != nil {
			return nil, err
		}
		r.ByDay = days
	}
	r.ByMonthDay, _ = cmd.Flags().GetInt("bymonthday")
	if m, _ := cmd.Flags().GetInt("bymonth"); m != 0 {
		r.ByMonth = time.Month(m)
	}

	count, _ := cmd.Flags().GetInt("count")
	untilStr, _ := cmd.Flags().GetString("until")
	if count > 0 && untilStr != "" {
		return nil, fmt.Errorf("--count and --until are mutually exclusive")
	}
	if count > 0 {
		r = r.WithCount(count)
	}
	if untilStr != "" {
		until, err := caltime.Date(untilStr)
		if err != nil {
			return nil, err
		}
		r = r.WithUntil(until)
	}

	// Surface encoding contract violations before anything is sent.
	if _, err := r.Encode(); err != nil {
		return nil, err
	}
	return &r, nil
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "sunday": time.Sunday,
		"mon": time.Monday, "monday": time.Monday,
		"tue": time.Tuesday, "tuesday": time.Tuesday,
		"wed": time.Wednesday, "wednesday": time.Wednesday,
		"thu": time.Thursday, "thursday": time.Thursday,
		"fri": time.Friday, "friday": time.Friday,
		"sat": time.Saturday, "saturday": time.Saturday,
	}
	var out []time.Weekday
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		d, ok := names[tok]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", tok)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseScope(cmd *cobra.Command) (editor.Scope, error) {
	s, _ := cmd.Flags().GetString("scope")
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return editor.ScopeUnset, nil
	case "occurrence", "this":
		return editor.ScopeOccurrence, nil
	case "series", "all":
		return editor.ScopeSeries, nil
	default:
		return editor.ScopeUnset, fmt.Errorf("unknown scope %q (use occurrence or series)", s)
	}
}

// promptScope is the interactive scope decider wired into the editor: it
// asks on the terminal when an edit hits an occurrence of a series and no
// --scope was given.
func promptScope(ctx context.Context, e core.Event) (editor.Scope, error) {
	label := e.Summary
	if label == "" {
		label = e.UID
	}
	fmt.Fprintf(os.Stderr, "%q repeats.\n", label)
	fmt.Fprint(os.Stderr, "Apply to this [o]ccurrence or the whole [s]eries? [o/s/q] ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return editor.ScopeUnset, fmt.Errorf("read scope answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "o", "occurrence":
		return editor.ScopeOccurrence, nil
	case "s", "series":
		return editor.ScopeSeries, nil
	default:
		return editor.ScopeUnset, nil
	}
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func isStale(err error) bool {
	return errors.Is(err, core.ErrStaleRevision)
}
