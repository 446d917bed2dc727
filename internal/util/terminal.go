package util

import "fmt"

// MakeHyperlink wraps displayText in an OSC 8 escape so terminals that
// support it (iTerm2, Konsole, WezTerm, Windows Terminal) make the text
// clickable without printing the URL. BEL terminators rather than ST;
// a few emulators mishandle the two-byte form.
func MakeHyperlink(url, displayText string) string {
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, displayText)
}

// TruncateText cuts s to maxLen runes, ending with "…" when anything
// was dropped. maxLen <= 0 means no limit.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
