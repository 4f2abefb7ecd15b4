package importer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/haldane/mnemograph/pkg/types"
)

// summaryLimit caps the length of a derived summary, in runes.
const summaryLimit = 240

// Note is one parsed Markdown file, ready to become a memory node.
type Note struct {
	// Path is the absolute filesystem path of the file.
	Path string

	// RelPath is the path relative to the import root.
	RelPath string

	// Title comes from frontmatter, the first H1 heading, or the filename,
	// in that order of preference.
	Title string

	// Type is the memory type declared in frontmatter, or documentation
	// when absent or unrecognized.
	Type types.MemoryType

	// Content is the note body with frontmatter removed and wiki links
	// flattened to their display text.
	Content string

	// Summary is the first prose paragraph of the body.
	Summary string

	// Tags merges frontmatter tags with inline #tags, deduplicated
	// case-insensitively.
	Tags []string

	// Collection is the top-level directory the note lives under, empty
	// for notes at the root.
	Collection string

	// Frontmatter holds the raw parsed YAML frontmatter.
	Frontmatter map[string]interface{}

	// Links are the unique wiki links referenced by the body.
	Links []WikiLink

	// Timestamp is the note's own date from frontmatter, zero when absent.
	Timestamp time.Time

	// Importance and Confidence seed the memory's quality signals. They
	// default to 0.5 and may be overridden in frontmatter.
	Importance float64
	Confidence float64
}

// ParseNote parses a Markdown file's content. relPath locates the note
// within the import root and supplies the fallback title and collection.
func ParseNote(content []byte, absPath, relPath string) (*Note, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("frontmatter in %s: %w", relPath, err)
	}

	title := frontmatterString(fm, "title", "")
	if title == "" {
		title = extractH1(body)
	}
	if title == "" {
		title = titleFromPath(relPath)
	}

	tags := mergeTags(frontmatterTags(fm), inlineTags(body))
	links := ExtractWikiLinks(body)
	flattened := StripWikiLinks(body)

	return &Note{
		Path:        absPath,
		RelPath:     relPath,
		Title:       title,
		Type:        memoryTypeFrom(fm),
		Content:     buildContent(title, flattened),
		Summary:     summarize(flattened),
		Tags:        tags,
		Collection:  collectionFromPath(relPath),
		Frontmatter: fm,
		Links:       links,
		Timestamp:   frontmatterTime(fm),
		Importance:  frontmatterFloat(fm, "importance", 0.5),
		Confidence:  frontmatterFloat(fm, "confidence", 0.5),
	}, nil
}

// splitFrontmatter separates a YAML frontmatter block (between --- lines at
// the top of the file) from the Markdown body. Files without frontmatter,
// including ones with an unterminated opening delimiter, come back whole as
// the body with an empty map.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return map[string]interface{}{}, text, nil
	}

	fm := make(map[string]interface{})
	raw := strings.Join(lines[1:closing], "\n")
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return map[string]interface{}{}, text, fmt.Errorf("invalid YAML: %w", err)
	}
	return fm, strings.Join(lines[closing+1:], "\n"), nil
}

// memoryTypeFrom reads the declared memory type from frontmatter. Unknown
// or missing types fall back to documentation, the natural type for
// imported reference notes.
func memoryTypeFrom(fm map[string]interface{}) types.MemoryType {
	declared := types.MemoryType(strings.ToLower(frontmatterString(fm, "type", "")))
	if types.IsValidMemoryType(declared) {
		return declared
	}
	return types.MemoryTypeDocumentation
}

// collectionFromPath returns the top-level directory of relPath as a
// normalized collection name, or "" for notes at the root.
func collectionFromPath(relPath string) string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) < 2 {
		return ""
	}
	return sanitizeSegment(parts[0])
}

// titleFromPath derives a readable title from the filename, with
// underscores and dashes opened up into spaces.
func titleFromPath(relPath string) string {
	base := filepath.Base(relPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// extractH1 returns the text of the first ATX heading in the body.
func extractH1(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// frontmatterTags reads tags from frontmatter, accepting both a YAML list
// and a comma-separated string.
func frontmatterTags(fm map[string]interface{}) []string {
	switch v := fm["tags"].(type) {
	case []interface{}:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

// timeLayouts are the frontmatter date formats accepted, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// frontmatterTime reads the note's own date from frontmatter. The YAML
// decoder already produces time.Time for ISO timestamps; everything else
// is matched against the accepted layouts. Returns zero when no date field
// parses.
func frontmatterTime(fm map[string]interface{}) time.Time {
	for _, key := range []string{"date", "created", "created_at", "updated_at"} {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case time.Time:
			return v
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}

// frontmatterString reads a string value by key, with a default.
func frontmatterString(fm map[string]interface{}, key, def string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return def
}

// frontmatterFloat reads a numeric value by key, with a default. YAML
// decodes whole numbers as int, so both arrive here.
func frontmatterFloat(fm map[string]interface{}, key string, def float64) float64 {
	switch v := fm[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// inlineTagRe matches #hashtags in body text.
var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// inlineTags returns the unique #hashtags found in the body, in first-seen
// order.
func inlineTags(body string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		tag := strings.TrimSpace(m[1])
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// mergeTags combines two tag slices, deduplicating case-insensitively and
// keeping the first spelling seen.
func mergeTags(a, b []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, tag := range append(a, b...) {
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// sanitizeSegment normalizes a path segment into a lowercase hyphenated
// name safe to use as a collection label.
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// buildContent assembles the memory content: the body, prefixed with a
// title heading when the body does not already open with one.
func buildContent(title, body string) string {
	body = strings.TrimSpace(body)
	if title == "" || strings.HasPrefix(body, "# ") {
		return body
	}
	if body == "" {
		return "# " + title
	}
	return "# " + title + "\n\n" + body
}

// summarize returns the first prose paragraph of the body, whitespace
// collapsed and truncated to a display-friendly length. Headings and blank
// blocks are passed over.
func summarize(body string) string {
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		line := strings.Join(strings.Fields(block), " ")
		if runes := []rune(line); len(runes) > summaryLimit {
			return string(runes[:summaryLimit]) + "..."
		}
		return line
	}
	return ""
}
