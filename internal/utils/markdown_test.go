package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownBasics(t *testing.T) {
	out := RenderMarkdown("## Outlook\n\nChips are **scarce**.")
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "Outlook")
	assert.Contains(t, out, "<strong>scarce</strong>")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	// The tag must not survive; its text ends up as inert content
	out := RenderMarkdown("hello <script>alert(1)</script> world")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestRenderMarkdownLazyLoadsImages(t *testing.T) {
	out := RenderMarkdown("![chart](https://example.com/chart.png)")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.Contains(t, out, "https://example.com/chart.png")
}

func TestSanitizeHTML(t *testing.T) {
	assert.Equal(t, "plain", SanitizeHTML(`<iframe src="x"></iframe>plain`))
}

func TestEnhanceHTMLContentEmptyInput(t *testing.T) {
	assert.Equal(t, "", EnhanceHTMLContent(""))
}
