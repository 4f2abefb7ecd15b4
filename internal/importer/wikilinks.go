package importer

import (
	"regexp"
	"strings"
)

// wikilinkRe matches [[target]] and [[target|alias]] spans. Targets carry
// no brackets or pipes; aliases carry no brackets.
var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`)

// WikiLink is one [[...]] reference found in a note body.
type WikiLink struct {
	// Target is the linked note or entity name, as written.
	Target string

	// Alias is the display text after the pipe, empty when the link has
	// none.
	Alias string

	// Raw is the full matched span, brackets included.
	Raw string
}

// ExtractWikiLinks returns the wiki links in body in first-seen order,
// deduplicated by case-insensitive target.
func ExtractWikiLinks(body string) []WikiLink {
	seen := make(map[string]bool)
	var links []WikiLink

	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := strings.TrimSpace(m[1])
		key := strings.ToLower(target)
		if seen[key] {
			continue
		}
		seen[key] = true

		links = append(links, WikiLink{
			Target: target,
			Alias:  strings.TrimSpace(m[2]),
			Raw:    m[0],
		})
	}
	return links
}

// StripWikiLinks flattens every wiki link in body to plain text: the alias
// when one is present, the target otherwise.
func StripWikiLinks(body string) string {
	return wikilinkRe.ReplaceAllStringFunc(body, func(span string) string {
		m := wikilinkRe.FindStringSubmatch(span)
		if m == nil {
			return span
		}
		if alias := strings.TrimSpace(m[2]); alias != "" {
			return alias
		}
		return strings.TrimSpace(m[1])
	})
}
