package types

// TypeSuggestion is one advisory relationship-type suggestion between two
// memories, with the heuristic's confidence and a short reason. Suggestion
// lists are ordered by descending confidence and are never empty: RELATED_TO
// is the guaranteed last-resort entry.
type TypeSuggestion struct {
	Type       RelationshipType `json:"type"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
}
