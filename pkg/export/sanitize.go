package export

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	introPolicyOnce sync.Once
	introPolicy     *bluemonday.Policy
)

// escapeCell escapes submitted text for a report table. Tag-like text is
// kept so the report shows the same value as the csv export.
func escapeCell(raw string) string {
	return html.EscapeString(raw)
}

// sanitizeIntro keeps basic formatting in author-supplied intro markup and
// drops everything else.
func sanitizeIntro(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return introSanitizer().Sanitize(raw)
}

func introSanitizer() *bluemonday.Policy {
	introPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "em", "b", "i", "ul", "ol", "li", "code")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		introPolicy = p
	})
	return introPolicy
}
