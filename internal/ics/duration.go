package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDuration interprets the wire duration grammar ("P1D", "-PT15M",
// "P1DT12H30M", "P2W").
func parseDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("malformed duration %q", orig)
	}
	s = s[1:]

	var d time.Duration
	inTime := false
	units := 0
	num := ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num += string(r)
			continue
		}
		if r == 'T' {
			if inTime || num != "" {
				return 0, fmt.Errorf("malformed duration %q", orig)
			}
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", orig)
		}
		num = ""
		var unit time.Duration
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("malformed duration %q", orig)
		}
		d += time.Duration(n) * unit
		units++
	}
	if num != "" || units == 0 {
		return 0, fmt.Errorf("malformed duration %q", orig)
	}
	if neg {
		d = -d
	}
	return d, nil
}

// formatDuration renders d in the wire grammar, seconds precision.
func formatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')
	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		d -= days * 24 * time.Hour
	}
	if d > 0 {
		b.WriteByte('T')
		if h := d / time.Hour; h > 0 {
			fmt.Fprintf(&b, "%dH", h)
			d -= h * time.Hour
		}
		if m := d / time.Minute; m > 0 {
			fmt.Fprintf(&b, "%dM", m)
			d -= m * time.Minute
		}
		if s := d / time.Second; s > 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	if b.String() == "P" || b.String() == "-P" {
		return "PT0S"
	}
	return b.String()
}
