package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// UGC keeps safe formatting markup in user content and strips scripts,
// handlers and unsafe links.
func UGC(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Text strips every tag and returns whitespace-normalized plain text.
func Text(s string) string {
	s = strings.NewReplacer("</p>", " ", "<br>", " ", "<br/>", " ", "</div>", " ").Replace(s)
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
