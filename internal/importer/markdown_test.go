package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldane/mnemograph/internal/importer"
	"github.com/haldane/mnemograph/pkg/types"
)

func TestParseNote(t *testing.T) {
	content := []byte(`---
title: Capacity Planning
type: decision
tags: [infra, capacity]
date: 2024-03-09
importance: 0.8
confidence: 0.7
status: draft
---

# Capacity Planning

We sized the ingest tier against [[Load Test Results|the load tests]].
See also [[Redis Cache]]. #sizing

Second paragraph with details.
`)

	parsed, err := importer.ParseNote(content, "/vault/Infra/capacity-planning.md", "Infra/capacity-planning.md")
	require.NoError(t, err)

	assert.Equal(t, "Capacity Planning", parsed.Title)
	assert.Equal(t, types.MemoryTypeDecision, parsed.Type)
	assert.Equal(t, "infra", parsed.Collection)
	assert.ElementsMatch(t, []string{"infra", "capacity", "sizing"}, parsed.Tags)

	require.Len(t, parsed.Links, 2)
	assert.Equal(t, "Load Test Results", parsed.Links[0].Target)
	assert.Equal(t, "the load tests", parsed.Links[0].Alias)
	assert.Equal(t, "Redis Cache", parsed.Links[1].Target)

	assert.NotContains(t, parsed.Content, "[[")
	assert.Contains(t, parsed.Content, "the load tests")
	assert.True(t, strings.HasPrefix(parsed.Content, "# Capacity Planning"))

	assert.Equal(t, 2024, parsed.Timestamp.Year())
	assert.InDelta(t, 0.8, parsed.Importance, 1e-9)
	assert.InDelta(t, 0.7, parsed.Confidence, 1e-9)
	assert.Equal(t, "draft", parsed.Frontmatter["status"])
	assert.True(t, strings.HasPrefix(parsed.Summary, "We sized the ingest tier"))
}

func TestParseNoteDefaults(t *testing.T) {
	parsed, err := importer.ParseNote([]byte("Plain body without frontmatter.\n"), "/vault/quick-note.md", "quick-note.md")
	require.NoError(t, err)

	assert.Equal(t, "quick note", parsed.Title)
	assert.Equal(t, types.MemoryTypeDocumentation, parsed.Type)
	assert.Empty(t, parsed.Collection)
	assert.Empty(t, parsed.Tags)
	assert.Empty(t, parsed.Links)
	assert.True(t, parsed.Timestamp.IsZero())
	assert.InDelta(t, 0.5, parsed.Importance, 1e-9)
	assert.InDelta(t, 0.5, parsed.Confidence, 1e-9)
	assert.Equal(t, "# quick note\n\nPlain body without frontmatter.", parsed.Content)
	assert.Equal(t, "Plain body without frontmatter.", parsed.Summary)
}

func TestParseNoteCommaTags(t *testing.T) {
	content := []byte("---\ntitle: Comma Tags\ntags: go, sqlite , graph\n---\n\nBody.\n")

	parsed, err := importer.ParseNote(content, "/vault/comma.md", "comma.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sqlite", "graph"}, parsed.Tags)
}

func TestParseNoteUnterminatedFrontmatter(t *testing.T) {
	content := []byte("---\ntitle: Dangling\nno closing delimiter here\n")

	parsed, err := importer.ParseNote(content, "/vault/dangling.md", "dangling.md")
	require.NoError(t, err)

	// The whole file is treated as body when the frontmatter never closes.
	assert.Empty(t, parsed.Frontmatter)
	assert.Equal(t, "dangling", parsed.Title)
	assert.Contains(t, parsed.Content, "no closing delimiter here")
}

func TestParseNoteUnknownType(t *testing.T) {
	content := []byte("---\ntype: prophecy\n---\n\nBody.\n")

	parsed, err := importer.ParseNote(content, "/vault/odd.md", "odd.md")
	require.NoError(t, err)
	assert.Equal(t, types.MemoryTypeDocumentation, parsed.Type)
}

func TestExtractWikiLinks(t *testing.T) {
	links := importer.ExtractWikiLinks("See [[Project Alpha]] and [[Beta|B]] plus [[project alpha]] again.")

	require.Len(t, links, 2, "duplicate targets should collapse case-insensitively")
	assert.Equal(t, "Project Alpha", links[0].Target)
	assert.Empty(t, links[0].Alias)
	assert.Equal(t, "Beta", links[1].Target)
	assert.Equal(t, "B", links[1].Alias)
	assert.Equal(t, "[[Beta|B]]", links[1].Raw)
}

func TestStripWikiLinks(t *testing.T) {
	got := importer.StripWikiLinks("See [[Project Alpha]] and [[Beta|B]] plus [[project alpha]] again.")
	assert.Equal(t, "See Project Alpha and B plus project alpha again.", got)
}
