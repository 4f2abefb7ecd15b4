package types

import "time"

// MemoryVersion is one entry in a memory's version history. Depth counts
// backward from the chain head: 0 is the current version, increasing toward
// the oldest.
type MemoryVersion struct {
	Memory *Memory `json:"memory"`
	Depth  int     `json:"version_depth"`
}

// FieldChange records a scalar field differing between two versions.
type FieldChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TagDiff records tag-set changes between two versions. Tags are compared as
// sets: order never matters, and unchanged tags appear in neither slice.
type TagDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// VersionDiff is the structural difference between two versions of a memory.
// Fields with identical values stay nil, so an empty diff means the compared
// fields were equal.
type VersionDiff struct {
	Title   *FieldChange `json:"title,omitempty"`
	Content *FieldChange `json:"content,omitempty"`
	Type    *FieldChange `json:"type,omitempty"`
	Tags    *TagDiff     `json:"tags,omitempty"`
}

// Empty reports whether no compared field differed.
func (d VersionDiff) Empty() bool {
	return d.Title == nil && d.Content == nil && d.Type == nil && d.Tags == nil
}

// EntityChange is one step in an entity's mention timeline: the memory that
// mentioned it and when. WasNewMention is true only for the chronologically
// first mention of the entity.
type EntityChange struct {
	Entity        string    `json:"entity"`
	MemoryID      string    `json:"memory_id"`
	MemoryTitle   string    `json:"memory_title,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	WasNewMention bool      `json:"was_new_mention"`
}
