package util

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// DESCRIPTION is plain text on the wire, but servers bridging richer
// stores (Google's CalDAV endpoint, Exchange gateways) ship HTML in it.
// These patterns cover the fragment-level HTML such descriptions use.
var (
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	lineBreak  = regexp.MustCompile(`(?i)<(?:br|hr)\s*/?\s*>`)
	blockOpen  = regexp.MustCompile(`(?i)<(?:p|div|h[1-6]|blockquote|pre|table|tr)(?:\s[^>]*)?\s*>`)
	blockClose = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|blockquote|pre|table|tr)\s*>`)
	listWrap   = regexp.MustCompile(`(?i)</?(?:ul|ol)(?:\s[^>]*)?\s*>`)
	itemOpen   = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?\s*>`)
	itemClose  = regexp.MustCompile(`(?i)</li\s*>`)
	anchorOpen = regexp.MustCompile(`(?i)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>`)
	anchorEnd  = regexp.MustCompile(`(?i)</a\s*>`)

	manyBlank = regexp.MustCompile(`\n{3,}`)
	manySpace = regexp.MustCompile(`[^\S\n]+`)
)

// HTMLToText flattens an HTML description into terminal text. Anchors
// become OSC 8 hyperlinks with their text truncated to width, block
// elements and list items become line structure, and entities are
// decoded. A string with no markup passes through mostly untouched, so
// it is safe to call on every description. Pass width <= 0 to skip link
// truncation.
func HTMLToText(s string, width int) string {
	if s == "" || !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(html.UnescapeString(s))
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = lineBreak.ReplaceAllString(s, "\n")
	s = blockClose.ReplaceAllString(s, "\n\n")
	s = blockOpen.ReplaceAllString(s, "\n")

	// <li> carries the structure; the ul/ol wrappers just vanish.
	s = listWrap.ReplaceAllString(s, "")
	s = itemOpen.ReplaceAllString(s, "\n  • ")
	s = itemClose.ReplaceAllString(s, "")

	s = renderAnchors(s, width)

	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = manySpace.ReplaceAllString(s, " ")

	// Trim each line but keep the bullet indent.
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "• ") {
			lines[i] = "  • " + strings.TrimPrefix(trimmed, "• ")
		} else {
			lines[i] = trimmed
		}
	}
	s = strings.Join(lines, "\n")
	s = manyBlank.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// renderAnchors rewrites every <a href>...</a> pair into a clickable
// hyperlink, resolving tracker redirects to the real target first.
func renderAnchors(s string, maxWidth int) string {
	for {
		open := anchorOpen.FindStringSubmatchIndex(s)
		if open == nil {
			return s
		}

		href := unwrapRedirect(s[open[2]:open[3]])
		rest := s[open[1]:]

		end := anchorEnd.FindStringIndex(rest)
		if end == nil {
			// Unclosed anchor; drop the tag, keep whatever follows
			s = s[:open[0]] + rest
			continue
		}

		text := strings.TrimSpace(anyTag.ReplaceAllString(rest[:end[0]], ""))
		if text == "" {
			text = href
		}
		if maxWidth > 0 {
			text = TruncateText(text, maxWidth)
		}

		s = s[:open[0]] + MakeHyperlink(href, text) + rest[end[1]:]
	}
}

// unwrapRedirect strips the wrappers that hosted calendars put around
// outbound links so the hyperlink points at the actual destination.
func unwrapRedirect(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch {
	case u.Host == "www.google.com" && u.Path == "/url":
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	case strings.HasSuffix(u.Host, "safelinks.protection.outlook.com"):
		if q := u.Query().Get("url"); q != "" {
			return q
		}
	}
	return raw
}
