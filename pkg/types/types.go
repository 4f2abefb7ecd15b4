// Package types defines the core data structures for the mnemograph memory
// graph: memories, typed relationships and their metadata registry, outcomes,
// and the version-chain artifacts produced when memories are superseded.
package types

import "fmt"

// MemoryType classifies the purpose/nature of a memory node.
type MemoryType string

// Memory type constants. The set is closed for suggestion heuristics but the
// storage layer accepts unknown values so deployments can extend it.
const (
	MemoryTypeTask           MemoryType = "task"            // Individual work items
	MemoryTypeProblem        MemoryType = "problem"         // Described problems or failures
	MemoryTypeSolution       MemoryType = "solution"        // Approaches that resolve problems
	MemoryTypeCodePattern    MemoryType = "code_pattern"    // Reusable code structures
	MemoryTypeDecision       MemoryType = "decision"        // Important choices or decisions made
	MemoryTypeDocumentation  MemoryType = "documentation"   // Reference documentation
	MemoryTypeObservation    MemoryType = "observation"     // Observed facts or behavior
	MemoryTypeError          MemoryType = "error"           // Concrete error occurrences
	MemoryTypeFix            MemoryType = "fix"             // Fixes applied to errors
	MemoryTypeCommand        MemoryType = "command"         // Commands and invocations
	MemoryTypeWorkflowAction MemoryType = "workflow_action" // Steps within a workflow
	MemoryTypeFileChange     MemoryType = "file_change"     // Recorded file modifications
	MemoryTypeConversation   MemoryType = "conversation"    // Conversation transcripts
	MemoryTypeGeneral        MemoryType = "general"         // Uncategorized knowledge
	MemoryTypeProject        MemoryType = "project"         // Project information
	MemoryTypeTechnology     MemoryType = "technology"      // Technologies, tools, frameworks
	MemoryTypeSession        MemoryType = "session"         // Work session summaries
	MemoryTypeErrorPattern   MemoryType = "error_pattern"   // Recurring error shapes
	MemoryTypeOutcome        MemoryType = "outcome"         // Outcome records promoted to memories
)

// ValidMemoryTypes is a slice of all recognized memory types for validation.
var ValidMemoryTypes = []MemoryType{
	MemoryTypeTask,
	MemoryTypeProblem,
	MemoryTypeSolution,
	MemoryTypeCodePattern,
	MemoryTypeDecision,
	MemoryTypeDocumentation,
	MemoryTypeObservation,
	MemoryTypeError,
	MemoryTypeFix,
	MemoryTypeCommand,
	MemoryTypeWorkflowAction,
	MemoryTypeFileChange,
	MemoryTypeConversation,
	MemoryTypeGeneral,
	MemoryTypeProject,
	MemoryTypeTechnology,
	MemoryTypeSession,
	MemoryTypeErrorPattern,
	MemoryTypeOutcome,
}

// IsValidMemoryType checks if the given memory type is recognized.
func IsValidMemoryType(memoryType MemoryType) bool {
	for _, validType := range ValidMemoryTypes {
		if validType == memoryType {
			return true
		}
	}
	return false
}

// Clamp01 clamps v to the closed interval [0, 1]. Importance, confidence,
// effectiveness, and relationship strength all live in this range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Context is a string-keyed property bag attached to memories and outcomes
// (project paths, file lists, languages, arbitrary caller metadata). Values
// are scalars, string slices, or nested Context maps; Validate rejects
// anything else so malformed bags are caught at the boundary instead of
// surfacing later as storage serialization failures.
type Context map[string]interface{}

// Validate checks that every value in the bag is a scalar, a slice of
// scalars, or a nested map of the same shape.
func (c Context) Validate() error {
	for key, value := range c {
		if key == "" {
			return fmt.Errorf("context key must not be empty")
		}
		if err := validateContextValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

func validateContextValue(key string, value interface{}) error {
	switch v := value.(type) {
	case nil, string, bool,
		int, int32, int64,
		float32, float64:
		return nil
	case []string:
		return nil
	case []interface{}:
		for _, elem := range v {
			if err := validateContextValue(key, elem); err != nil {
				return err
			}
		}
		return nil
	case Context:
		return v.Validate()
	case map[string]interface{}:
		return Context(v).Validate()
	default:
		return fmt.Errorf("context key %q has unsupported value type %T", key, value)
	}
}
