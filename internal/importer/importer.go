// Package importer seeds the memory graph from Markdown note collections:
// Obsidian vaults, exported wikis, or plain directories of notes. Each note
// becomes a memory node, wiki links between notes become RELATED_TO edges
// and entity mentions, and re-importing a changed file supersedes the
// note's previous memory so the edit lands in its version chain.
package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/attribution"
	"github.com/haldane/mnemograph/internal/engine"
	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/pkg/types"
)

// Actions reported by ImportFile.
const (
	ActionCreated    = "created"
	ActionSuperseded = "superseded"
	ActionUnchanged  = "unchanged"
	ActionSkipped    = "skipped"
)

// Importer turns Markdown notes into memory nodes. It keeps an in-process
// index of what it has imported so wiki links resolve to memory ids and
// changed files supersede their previous version instead of duplicating it.
type Importer struct {
	store  graph.Store
	edges  *engine.RelationshipManager
	chain  *engine.VersionChain
	logger *zap.Logger

	// mu protects the two indexes below.
	mu      sync.RWMutex
	byPath  map[string]importEntry
	byTitle map[string]string
}

// importEntry tracks one imported file: the memory currently backing it and
// a content digest used to detect revisions.
type importEntry struct {
	id  string
	sum [sha256.Size]byte
}

// Result summarizes one completed import pass.
type Result struct {
	FilesFound    int           `json:"files_found"`
	FilesImported int           `json:"files_imported"`
	FilesSkipped  int           `json:"files_skipped"`
	FilesFailed   int           `json:"files_failed"`
	Relationships int           `json:"relationships"`
	Mentions      int           `json:"mentions"`
	Errors        []string      `json:"errors,omitempty"`
	Took          time.Duration `json:"took"`
}

// New creates an importer writing to the given store. A nil logger disables
// logging.
func New(store graph.Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		store:   store,
		edges:   engine.NewRelationshipManager(types.NewRelationshipRegistry()),
		chain:   engine.NewVersionChain(store, logger),
		logger:  logger,
		byPath:  make(map[string]importEntry),
		byTitle: make(map[string]string),
	}
}

// ImportDir walks root and imports every Markdown note under it, then runs
// a link pass: each wiki link records an entity mention, and links that
// resolve to another imported note become RELATED_TO edges. Per-file parse
// and store failures are collected in the result; only an unusable root or
// a cancelled context fail the pass as a whole.
func (imp *Importer) ImportDir(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("importer: cannot access %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("importer: %q is not a directory", root)
	}

	files, err := collectMarkdownFiles(root)
	if err != nil {
		return nil, fmt.Errorf("importer: walk %q: %w", root, err)
	}

	res := &Result{FilesFound: len(files)}

	// Phase 1: store every note. Linking waits until all notes are indexed
	// so links to notes that appear later in the walk still resolve.
	type record struct {
		note *Note
		id   string
	}
	var records []record

	for _, absPath := range files {
		if err := ctx.Err(); err != nil {
			res.Took = time.Since(start)
			return res, err
		}

		rel, err := filepath.Rel(root, absPath)
		if err != nil {
			rel = absPath
		}

		note, id, action, err := imp.storeNote(ctx, absPath, rel)
		switch {
		case err != nil:
			res.FilesFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", rel, err))
			imp.logger.Warn("note import failed", zap.String("file", rel), zap.Error(err))
		case action == ActionSkipped || action == ActionUnchanged:
			res.FilesSkipped++
		default:
			res.FilesImported++
			records = append(records, record{note: note, id: id})
		}
	}

	// Phase 2: mentions and edges.
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			res.Took = time.Since(start)
			return res, err
		}
		imp.linkNote(ctx, rec.note, rec.id, res)
	}

	res.Took = time.Since(start)
	imp.logger.Info("import complete",
		zap.String("dir", root),
		zap.Int("files", res.FilesFound),
		zap.Int("imported", res.FilesImported),
		zap.Int("relationships", res.Relationships),
		zap.Int("mentions", res.Mentions),
		zap.Int("failed", res.FilesFailed))
	return res, nil
}

// ImportFile imports a single note under root and links it immediately
// against everything indexed so far. A file whose content digest matches
// its last import is left alone; a changed file supersedes the note's
// previous memory version. Returns the backing memory id and the action
// taken.
func (imp *Importer) ImportFile(ctx context.Context, root, absPath string) (string, string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", "", fmt.Errorf("importer: %q is not under %q: %w", absPath, root, err)
	}

	note, id, action, err := imp.storeNote(ctx, absPath, rel)
	if err != nil {
		return "", "", fmt.Errorf("importer: %s: %w", rel, err)
	}
	if note == nil {
		return id, action, nil
	}

	res := &Result{}
	imp.linkNote(ctx, note, id, res)
	for _, msg := range res.Errors {
		imp.logger.Warn("link pass issue", zap.String("file", rel), zap.String("issue", msg))
	}
	return id, action, nil
}

// MemoryID returns the memory currently backing the note at the given
// root-relative path.
func (imp *Importer) MemoryID(rel string) (string, bool) {
	imp.mu.RLock()
	defer imp.mu.RUnlock()
	entry, ok := imp.byPath[rel]
	return entry.id, ok
}

// storeNote reads, parses, and persists one note. The returned note is nil
// when nothing was written (empty file, or content unchanged since the last
// import).
func (imp *Importer) storeNote(ctx context.Context, absPath, rel string) (*Note, string, string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", ActionSkipped, nil
	}

	sum := sha256.Sum256(data)
	prev, known := imp.lookupPath(rel)
	if known && prev.sum == sum {
		return nil, prev.id, ActionUnchanged, nil
	}

	note, err := ParseNote(data, absPath, rel)
	if err != nil {
		return nil, "", "", fmt.Errorf("parse: %w", err)
	}

	memory := imp.toMemory(note)
	action := ActionCreated
	if known {
		id, err := imp.chain.CreateVersion(ctx, prev.id, memory)
		if err != nil {
			return nil, "", "", fmt.Errorf("supersede: %w", err)
		}
		memory.ID = id
		action = ActionSuperseded
	} else if err := imp.store.CreateMemory(ctx, memory); err != nil {
		return nil, "", "", fmt.Errorf("store: %w", err)
	}

	imp.index(rel, note.Title, memory.ID, sum)
	return note, memory.ID, action, nil
}

// linkNote records an entity mention for every wiki link in the note and a
// RELATED_TO edge for every link that resolves to another imported note.
// Failures accumulate in res rather than aborting the remaining links.
func (imp *Importer) linkNote(ctx context.Context, note *Note, memoryID string, res *Result) {
	ts := note.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	for _, link := range note.Links {
		entity := entityName(link.Target)
		mention := graph.EntityMention{
			Entity:      entity,
			MemoryID:    memoryID,
			MemoryTitle: note.Title,
			Timestamp:   ts,
		}
		if err := imp.store.RecordEntityMention(ctx, entity, memoryID, mention); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: mention %q: %v", note.RelPath, entity, err))
			continue
		}
		res.Mentions++

		targetID, ok := imp.lookupTitle(link.Target)
		if !ok || targetID == memoryID {
			continue
		}
		created, err := imp.relate(ctx, memoryID, targetID, link)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: link %q: %v", note.RelPath, link.Target, err))
			continue
		}
		if created {
			res.Relationships++
		}
	}
}

// relate creates one RELATED_TO edge for a resolved wiki link, unless the
// pair is already connected. RELATED_TO is bidirectional, so two notes that
// reference each other still yield a single edge.
func (imp *Importer) relate(ctx context.Context, fromID, toID string, link WikiLink) (bool, error) {
	if err := imp.edges.Validate(fromID, toID, types.RelRelatedTo); err != nil {
		return false, err
	}
	existing, err := imp.store.RelationshipsBetween(ctx, fromID, toID)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	props := imp.edges.CreateProperties(types.RelRelatedTo,
		engine.WithEdgeContext("wikilink "+link.Raw))
	rel := types.NewRelationship(fromID, toID, types.RelRelatedTo, props)
	if err := imp.store.CreateRelationship(ctx, rel); err != nil {
		return false, err
	}
	return true, nil
}

// toMemory builds the memory node for a parsed note. Frontmatter may date
// the note and seed its quality signals; provenance lands in the context
// bag.
func (imp *Importer) toMemory(note *Note) *types.Memory {
	memory := types.NewMemory(note.Type, note.Title, note.Content)
	memory.Summary = note.Summary
	memory.Tags = note.Tags
	memory.Importance = types.Clamp01(note.Importance)
	memory.Confidence = types.Clamp01(note.Confidence)
	if !note.Timestamp.IsZero() {
		memory.CreatedAt = note.Timestamp.UTC()
	}
	memory.Context = noteContext(note)
	return memory
}

// noteContext assembles the provenance bag for an imported note. Scalar
// frontmatter keys the parser did not consume are carried along under a
// note_ prefix.
func noteContext(note *Note) types.Context {
	c := types.Context{
		"source":      "markdown-import",
		"source_path": note.RelPath,
		"imported_by": attribution.Identify(),
	}
	if note.Collection != "" {
		c["collection"] = note.Collection
	}
	if len(note.Links) > 0 {
		targets := make([]string, len(note.Links))
		for i, link := range note.Links {
			targets[i] = link.Target
		}
		c["linked_notes"] = targets
	}

	for key, value := range note.Frontmatter {
		switch key {
		case "title", "tags", "type", "date", "created", "created_at",
			"updated_at", "importance", "confidence":
			continue
		}
		switch value.(type) {
		case string, bool, int, float64:
			c["note_"+key] = value
		}
	}
	return c
}

func (imp *Importer) index(rel, title, id string, sum [sha256.Size]byte) {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	imp.byPath[rel] = importEntry{id: id, sum: sum}
	imp.byTitle[strings.ToLower(title)] = id
	if alt := strings.ToLower(titleFromPath(rel)); alt != "" {
		imp.byTitle[alt] = id
	}
}

func (imp *Importer) lookupPath(rel string) (importEntry, bool) {
	imp.mu.RLock()
	defer imp.mu.RUnlock()
	entry, ok := imp.byPath[rel]
	return entry, ok
}

// lookupTitle resolves a wiki-link target against the imported notes, by
// note title or by filename-derived title.
func (imp *Importer) lookupTitle(target string) (string, bool) {
	imp.mu.RLock()
	defer imp.mu.RUnlock()
	id, ok := imp.byTitle[strings.ToLower(strings.TrimSpace(target))]
	return id, ok
}

// entityName normalizes a wiki-link target for the mention timeline, so
// [[Redis Cache]] and [[redis cache]] share one entity.
func entityName(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}

// collectMarkdownFiles walks root and returns every Markdown file under it.
// Hidden files and directories (.obsidian, .git, editor trash) are skipped;
// the root itself may be hidden.
func collectMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isMarkdown(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// isMarkdown reports whether name has a Markdown extension.
func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
