package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToTextPlainPassthrough(t *testing.T) {
	assert.Equal(t, "Bring the slides", HTMLToText("Bring the slides", 80))
	assert.Equal(t, "", HTMLToText("", 80))
}

func TestHTMLToTextEntities(t *testing.T) {
	assert.Equal(t, "Q3 & Q4 review", HTMLToText("Q3 &amp; Q4 review", 80))
}

func TestHTMLToTextBlocks(t *testing.T) {
	got := HTMLToText("<p>First</p><p>Second</p>", 80)
	assert.Equal(t, "First\n\nSecond", got)

	got = HTMLToText("line one<br>line two<br/>line three", 80)
	assert.Equal(t, "line one\nline two\nline three", got)
}

func TestHTMLToTextList(t *testing.T) {
	got := HTMLToText("<ul><li>Agenda</li><li>Notes</li></ul>", 80)
	assert.Equal(t, "• Agenda\n  • Notes", got)
}

func TestHTMLToTextAnchor(t *testing.T) {
	got := HTMLToText(`Join via <a href="https://meet.example.com/abc">this link</a>`, 80)
	assert.Contains(t, got, "\033]8;;https://meet.example.com/abc\a")
	assert.Contains(t, got, "this link")
}

func TestHTMLToTextUnwrapsRedirects(t *testing.T) {
	google := `<a href="https://www.google.com/url?q=https://example.com/doc&sa=D">doc</a>`
	assert.Contains(t, HTMLToText(google, 80), "\033]8;;https://example.com/doc\a")

	safelink := `<a href="https://eur01.safelinks.protection.outlook.com/?url=https://example.com/doc">doc</a>`
	assert.Contains(t, HTMLToText(safelink, 80), "\033]8;;https://example.com/doc\a")
}

func TestHTMLToTextCollapsesBlankRuns(t *testing.T) {
	got := HTMLToText("<div>a</div><div></div><div></div><div>b</div>", 80)
	assert.False(t, strings.Contains(got, "\n\n\n"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "exact", TruncateText("exact", 5))
	assert.Equal(t, "long…", TruncateText("longer", 5))
	assert.Equal(t, "…", TruncateText("ab", 1))
	assert.Equal(t, "unlimited", TruncateText("unlimited", 0))
}

func TestMakeHyperlink(t *testing.T) {
	got := MakeHyperlink("https://example.com", "Example")
	assert.Equal(t, "\033]8;;https://example.com\aExample\033]8;;\a", got)
}
