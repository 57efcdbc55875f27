package render

import (
	"strings"

	"github.com/diogo/researchcopilot/internal/models"
)

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalCache.acquire(opts)
	if err != nil {
		return "", err
	}
	defer globalCache.release(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at width
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// Reply renders a finished assistant reply. Error fragments and render
// failures fall back to the raw text. Rendered output is cached, since the
// chat view redraws every reply on each update.
func Reply(content string, opts Options) string {
	if strings.TrimSpace(content) == "" || models.IsErrorFragment(content) {
		return content
	}
	if out, ok := globalCache.reply(opts, content); ok {
		return out
	}
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	globalCache.storeReply(opts, content, out)
	return out
}
