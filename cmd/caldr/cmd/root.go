package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caldr/internal/adapter/dav"
	"caldr/internal/client"
	"caldr/internal/core"
	"caldr/internal/editor"
	"caldr/internal/recur"
	"caldr/internal/util"
)

var (
	cfgFile string
	profile string

	// Wired by initClient for every command that talks to the remotes.
	cal *client.Client
	ed  *editor.Editor
)

var rootCmd = &cobra.Command{
	Use:   "caldr",
	Short: "A terminal client for CalDAV calendars and CardDAV contacts",
	Long: `caldr syncs events and contacts from your CalDAV/CardDAV servers and
shows them in the terminal: an agenda listing, event editing from the
command line, and an interactive day view.

Servers are configured as sources (see 'caldr sources'); nothing is
stored locally beyond OAuth tokens; every run fetches fresh.`,
	PersistentPreRunE: initClient,
	RunE:              runAgenda,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/caldr/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., work, personal)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	// Range and filter flags
	rootCmd.PersistentFlags().IntP("days", "d", 7, "Number of days to fetch (ignored if --from/--to specified)")
	rootCmd.PersistentFlags().String("from", "", "Start date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().String("to", "", "End date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().StringP("calendars", "c", "", "Comma-separated list of calendar names to filter")
	rootCmd.PersistentFlags().String("timezone", "", "IANA zone events are displayed in (default: system local)")
	rootCmd.PersistentFlags().Bool("no-allday", false, "Exclude all-day events")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("days", rootCmd.PersistentFlags().Lookup("days"))
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
	viper.BindPFlag("to", rootCmd.PersistentFlags().Lookup("to"))
	viper.BindPFlag("calendars", rootCmd.PersistentFlags().Lookup("calendars"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	viper.BindPFlag("no_allday", rootCmd.PersistentFlags().Lookup("no-allday"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "caldr")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("CALDR")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("days", 7)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyProfile()
}

func initLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// applyProfile merges profile-specific settings over defaults.
func applyProfile() {
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	// Settings a profile can override, but only if the user hasn't set
	// them explicitly on the command line.
	settings := []string{
		"use_sources",
		"days",
		"from",
		"to",
		"calendars",
		"timezone",
		"no_allday",
	}
	for _, key := range settings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}

	displaySettings := []string{
		"display.calendar",
		"display.time",
		"display.location",
		"display.description",
		"display.status",
		"display.repeats",
		"display.attendees",
		"display.alarms",
		"display.url",
		"display.id",
		"display.in_progress",
	}
	for _, key := range displaySettings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

// sourceConfig is one entry of the config file's sources list. It carries
// the fields core.Source needs plus the credential indirections that stay
// a config concern.
type sourceConfig struct {
	ID              string   `yaml:"id" mapstructure:"id"`
	Name            string   `yaml:"name,omitempty" mapstructure:"name"`
	Endpoint        string   `yaml:"endpoint" mapstructure:"endpoint"`
	Username        string   `yaml:"username,omitempty" mapstructure:"username"`
	Auth            string   `yaml:"auth,omitempty" mapstructure:"auth"`
	Password        string   `yaml:"password,omitempty" mapstructure:"password"`
	PasswordEnv     string   `yaml:"password_env,omitempty" mapstructure:"password_env"`
	CredentialsFile string   `yaml:"credentials_file,omitempty" mapstructure:"credentials_file"`
	TokenFile       string   `yaml:"token_file,omitempty" mapstructure:"token_file"`
	Hidden          []string `yaml:"hidden,omitempty" mapstructure:"hidden"`
}

func (sc sourceConfig) toSource() core.Source {
	password := sc.Password
	if sc.PasswordEnv != "" {
		password = os.Getenv(sc.PasswordEnv)
	}
	return core.Source{
		ID:              sc.ID,
		Name:            sc.Name,
		Endpoint:        sc.Endpoint,
		Username:        sc.Username,
		Auth:            sc.Auth,
		Password:        password,
		CredentialsFile: expandPath(sc.CredentialsFile),
		TokenFile:       expandPath(sc.TokenFile),
		Hidden:          sc.Hidden,
	}
}

// configuredSources reads the sources list, narrowed to the ids in
// use_sources when the profile or flag set one.
func configuredSources() ([]core.Source, error) {
	var cfgs []sourceConfig
	if err := viper.UnmarshalKey("sources", &cfgs); err != nil {
		return nil, fmt.Errorf("read sources from config: %w", err)
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no sources configured\n\nAdd one with: caldr sources add <id> --endpoint=<url>")
	}

	only := map[string]bool{}
	if filter := viper.GetString("use_sources"); filter != "" {
		for _, id := range strings.Split(filter, ",") {
			only[strings.TrimSpace(id)] = true
		}
	}

	var out []core.Source
	for _, sc := range cfgs {
		if len(only) > 0 && !only[sc.ID] {
			continue
		}
		out = append(out, sc.toSource())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sources match use_sources=%q", viper.GetString("use_sources"))
	}
	return out, nil
}

func dialSource(ctx context.Context, src core.Source) (core.Remote, error) {
	opts := dav.Options{
		FloatingZone: viper.GetString("timezone"),
		Logger:       slog.Default(),
	}
	if src.Auth == dav.AuthOAuth {
		ts, err := sourceTokenSource(ctx, src)
		if err != nil {
			return nil, err
		}
		opts.TokenSource = ts
	}
	return dav.New(ctx, src, opts)
}

func initClient(cmd *cobra.Command, args []string) error {
	// Commands that only touch the config file skip the remotes.
	name := cmd.Name()
	parent := ""
	if cmd.Parent() != nil {
		parent = cmd.Parent().Name()
	}
	if name == "help" || name == "completion" || name == "auth" ||
		name == "sources" || parent == "sources" {
		return nil
	}

	sources, err := configuredSources()
	if err != nil {
		return err
	}

	cal = client.New(client.Config{
		Dial:         dialSource,
		FloatingZone: viper.GetString("timezone"),
		Logger:       slog.Default(),
	})

	statuses := cal.LoadSources(cmd.Context(), sources)
	reachable := 0
	for _, st := range statuses {
		if st.Err == nil {
			reachable++
		}
	}
	if reachable == 0 {
		return fmt.Errorf("no source reachable (%d configured)", len(statuses))
	}

	ed = editor.New(cal, editor.CustomHandlers(editor.ScopeDeciderFunc(promptScope)))
	return nil
}

// displayLocation is the zone agenda output and the day view render in.
func displayLocation() *time.Location {
	if zone := viper.GetString("timezone"); zone != "" {
		if loc, err := time.LoadLocation(zone); err == nil {
			return loc
		}
		slog.Warn("unknown display timezone, using system local", "zone", zone)
	}
	return time.Local
}

// resolveRange turns the --from/--to/--days flags into a fetch window.
func resolveRange(now time.Time) (core.Window, error) {
	fromStr := viper.GetString("from")
	toStr := viper.GetString("to")

	var start, end time.Time
	if fromStr != "" || toStr != "" {
		start = now
		if fromStr != "" {
			var err error
			start, err = parseDate(fromStr, now)
			if err != nil {
				return core.Window{}, err
			}
		}
		if toStr != "" {
			var err error
			end, err = parseDate(toStr, now)
			if err != nil {
				return core.Window{}, err
			}
			end = end.Add(24 * time.Hour) // end date is inclusive
		} else {
			end = start.Add(time.Duration(viper.GetInt("days")) * 24 * time.Hour)
		}
	} else {
		start = now
		end = now.Add(time.Duration(viper.GetInt("days")) * 24 * time.Hour)
	}
	if !end.After(start) {
		return core.Window{}, fmt.Errorf("empty range: %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return core.Window{Start: start, End: end}, nil
}

func runAgenda(cmd *cobra.Command, args []string) error {
	now := time.Now()
	w, err := resolveRange(now)
	if err != nil {
		return err
	}

	if _, err := cal.FetchWindow(cmd.Context(), w); err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	events, err := cal.Occurrences(w)
	if err != nil {
		return fmt.Errorf("failed to expand events: %w", err)
	}
	events = filterEvents(events)

	loc := displayLocation()
	fmt.Printf("📅 Events from %s to %s:\n", w.Start.In(loc).Format("Jan 2"), w.End.In(loc).Add(-time.Second).Format("Jan 2"))
	fmt.Println("─────────────────────────────────────────────────")

	if len(events) == 0 {
		fmt.Println("No upcoming events found.")
		return nil
	}

	for _, event := range events {
		fmt.Println()
		DisplayEvent(event, DisplayOptionsFromConfig(false))
	}

	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Total: %d events\n", len(events))

	return nil
}

// filterEvents applies the --calendars and --no-allday flags.
func filterEvents(events []core.Event) []core.Event {
	names := viper.GetString("calendars")
	noAllDay := viper.GetBool("no_allday")
	if names == "" && !noAllDay {
		return events
	}

	var keep map[string]bool
	if names != "" {
		keep = map[string]bool{}
		for _, cal := range resolveCalendars(strings.Split(names, ",")) {
			keep[cal.SourceID+"\x00"+cal.Path] = true
		}
	}

	var out []core.Event
	for _, e := range events {
		if noAllDay && e.AllDay() {
			continue
		}
		if keep != nil && !keep[e.SourceID+"\x00"+e.CalendarPath] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// resolveCalendars matches names against the discovered calendars: exact
// path first, then case-insensitive name substring.
func resolveCalendars(names []string) []core.Calendar {
	calendars := cal.Calendars()
	var out []core.Calendar

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		nameLower := strings.ToLower(name)

		matched := false
		for _, c := range calendars {
			if c.Path == name {
				out = append(out, c)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, c := range calendars {
			if strings.Contains(strings.ToLower(c.Name), nameLower) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// DisplayOptions controls how events are printed.
type DisplayOptions struct {
	Compact        bool   // Compact mode for list views
	ShowCalendar   bool   // Show calendar name
	ShowTime       bool   // Show when/duration
	ShowLocation   bool   // Show location
	ShowDesc       bool   // Show description
	ShowStatus     bool   // Show scheduling status
	ShowRule       bool   // Show recurrence summary
	ShowAttendees  bool   // Show organizer and attendees
	ShowAlarms     bool   // Show reminders
	ShowURL        bool   // Show event URL
	ShowID         bool   // Show event UID
	ShowInProgress bool   // Show in-progress status
	Indent         string // Indentation prefix
}

// DefaultDisplayOptions returns options for the agenda listing.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Compact:        true,
		ShowCalendar:   true,
		ShowTime:       true,
		ShowLocation:   true,
		ShowDesc:       true,
		ShowStatus:     true,
		ShowRule:       true,
		ShowAttendees:  false,
		ShowAlarms:     false,
		ShowURL:        true,
		ShowID:         false,
		ShowInProgress: true,
		Indent:         "  ",
	}
}

// DetailedDisplayOptions returns options for single-event views.
func DetailedDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Compact:        false,
		ShowCalendar:   true,
		ShowTime:       true,
		ShowLocation:   true,
		ShowDesc:       true,
		ShowStatus:     true,
		ShowRule:       true,
		ShowAttendees:  true,
		ShowAlarms:     true,
		ShowURL:        true,
		ShowID:         true,
		ShowInProgress: false,
		Indent:         "  ",
	}
}

// DisplayOptionsFromConfig builds display options from viper config.
func DisplayOptionsFromConfig(detailed bool) DisplayOptions {
	opts := DefaultDisplayOptions()
	if detailed {
		opts = DetailedDisplayOptions()
	}

	if viper.IsSet("display.calendar") {
		opts.ShowCalendar = viper.GetBool("display.calendar")
	}
	if viper.IsSet("display.time") {
		opts.ShowTime = viper.GetBool("display.time")
	}
	if viper.IsSet("display.location") {
		opts.ShowLocation = viper.GetBool("display.location")
	}
	if viper.IsSet("display.description") {
		opts.ShowDesc = viper.GetBool("display.description")
	}
	if viper.IsSet("display.status") {
		opts.ShowStatus = viper.GetBool("display.status")
	}
	if viper.IsSet("display.repeats") {
		opts.ShowRule = viper.GetBool("display.repeats")
	}
	if viper.IsSet("display.attendees") {
		opts.ShowAttendees = viper.GetBool("display.attendees")
	}
	if viper.IsSet("display.alarms") {
		opts.ShowAlarms = viper.GetBool("display.alarms")
	}
	if viper.IsSet("display.url") {
		opts.ShowURL = viper.GetBool("display.url")
	}
	if viper.IsSet("display.id") {
		opts.ShowID = viper.GetBool("display.id")
	}
	if viper.IsSet("display.in_progress") {
		opts.ShowInProgress = viper.GetBool("display.in_progress")
	}

	return opts
}

// DisplayEvent prints an event with the given options.
func DisplayEvent(event core.Event, opts DisplayOptions) {
	indent := opts.Indent
	loc := displayLocation()

	title := event.Summary
	if title == "" {
		title = "(no title)"
	}
	if event.Cancelled() {
		title = "✗ " + title + " (cancelled)"
	}
	fmt.Printf("%s%s\n", indent, title)

	if opts.ShowCalendar {
		fmt.Printf("%s📅 Calendar:    %s\n", indent, cal.CalendarName(event.SourceID, event.CalendarPath))
	}

	if opts.ShowTime {
		fmt.Printf("%s🕐 When:        %s\n", indent, formatEventTime(event, loc))
		fmt.Printf("%s⏱️  Duration:    %s\n", indent, formatDurationCompact(event.Duration()))
	}

	if opts.ShowRule && event.Rule != nil {
		fmt.Printf("%s🔁 Repeats:     %s\n", indent, event.Rule.Summary(recur.English))
		for _, warn := range event.Rule.Problems() {
			fmt.Printf("%s   ⚠ %s\n", indent, warn)
		}
	}

	if opts.ShowLocation && event.Location != "" {
		fmt.Printf("%s📍 Location:    %s\n", indent, event.Location)
	}

	if opts.ShowDesc && event.Description != "" {
		if opts.Compact {
			fmt.Printf("%s📝 Description: %s\n", indent, util.TruncateText(util.HTMLToText(event.Description, 80), 80))
		} else {
			fmt.Printf("%s📝 Description:\n", indent)
			desc := util.HTMLToText(event.Description, 60)
			for _, line := range wrapText(desc, 60) {
				fmt.Printf("%s   %s\n", indent, line)
			}
		}
	}

	if opts.ShowStatus {
		fmt.Printf("%s📊 Status:      %s\n", indent, formatStatus(event.Status))
	}

	if opts.ShowAttendees {
		if event.Organizer.Email != "" || event.Organizer.Name != "" {
			fmt.Printf("%s👤 Organizer:   %s\n", indent, formatParticipant(event.Organizer))
		}
		if len(event.Attendees) > 0 {
			fmt.Printf("%s👥 Attendees:\n", indent)
			for _, a := range event.Attendees {
				fmt.Printf("%s   • %s (%s)\n", indent, formatParticipant(a), formatResponse(a.Response))
			}
		}
	}

	if opts.ShowAlarms && len(event.Alarms) > 0 {
		fmt.Printf("%s⏰ Reminders:\n", indent)
		for _, a := range event.Alarms {
			fmt.Printf("%s   • %s before start\n", indent, formatDurationCompact(a.Offset))
		}
	}

	if opts.ShowURL && event.URL != "" {
		linkText := util.MakeHyperlink(event.URL, event.URL)
		fmt.Printf("%s🔗 Event:       %s\n", indent, linkText)
	}

	if opts.ShowInProgress && event.InProgress(time.Now()) {
		remaining := time.Until(event.End.Instant())
		fmt.Printf("%s🟢 IN PROGRESS (%s remaining)\n", indent, formatDurationCompact(remaining))
	}

	if opts.ShowID {
		fmt.Printf("%s🆔 UID:         %s\n", indent, event.Identity())
	}
}

// wrapText wraps text to the given width.
func wrapText(s string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
			} else {
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// formatDurationCompact formats a duration in a compact way.
func formatDurationCompact(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatEventTime renders the event's span in the display zone. All-day
// values go through the grid-shift convention so the printed date is the
// civil date the event was authored for, whatever the viewer's offset.
func formatEventTime(e core.Event, loc *time.Location) string {
	start := e.Start.ToGrid(loc).In(loc)
	end := e.End.ToGrid(loc).In(loc)

	if e.AllDay() {
		lastDay := end.AddDate(0, 0, -1) // DTEND is exclusive
		if !lastDay.After(start) || sameDay(start, lastDay) {
			return start.Format("Mon, Jan 2") + " (all day)"
		}
		return fmt.Sprintf("%s - %s (all day)", start.Format("Mon, Jan 2"), lastDay.Format("Mon, Jan 2"))
	}

	if sameDay(start, end) {
		return fmt.Sprintf("%s, %s - %s", start.Format("Mon, Jan 2"), start.Format("3:04 PM"), end.Format("3:04 PM"))
	}
	return fmt.Sprintf("%s - %s", start.Format("Mon, Jan 2 3:04 PM"), end.Format("Mon, Jan 2 3:04 PM"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatStatus(status core.Status) string {
	switch status {
	case core.StatusConfirmed:
		return "Confirmed ✓"
	case core.StatusTentative:
		return "Tentative ?"
	case core.StatusCancelled:
		return "Cancelled ✗"
	default:
		return "Unknown"
	}
}

func formatParticipant(a core.Attendee) string {
	switch {
	case a.Name != "" && a.Email != "":
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	case a.Name != "":
		return a.Name
	default:
		return a.Email
	}
}

func formatResponse(r core.Response) string {
	switch r {
	case core.ResponseAccepted:
		return "accepted"
	case core.ResponseDeclined:
		return "declined"
	case core.ResponseTentative:
		return "tentative"
	default:
		return "awaiting reply"
	}
}

// parseDate parses a date string in various formats.
// Supports: YYYY-MM-DD, "today", "tomorrow", "yesterday", weekday names.
func parseDate(s string, defaultTime time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	// Weekday names (e.g., "monday", "next tuesday")
	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "sun": time.Sunday,
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
	}

	dayName := strings.TrimPrefix(s, "next ")
	if wd, ok := weekdays[dayName]; ok {
		daysUntil := int(wd - today.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return today.AddDate(0, 0, daysUntil), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}

	// MM-DD and MM/DD in the current year
	if t, err := time.ParseInLocation("01-02", s, now.Location()); err == nil {
		return t.AddDate(now.Year(), 0, 0), nil
	}
	if t, err := time.ParseInLocation("01/02", s, now.Location()); err == nil {
		return t.AddDate(now.Year(), 0, 0), nil
	}
	if t, err := time.ParseInLocation("01/02/2006", s, now.Location()); err == nil {
		return t, nil
	}

	return defaultTime, fmt.Errorf("unable to parse date: %s (use YYYY-MM-DD, 'today', 'tomorrow', or weekday names)", s)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
