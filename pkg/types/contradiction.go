package types

// ContradictionRule names a pair of relationship types that contradict each
// other when both connect the same two memories. Rules are unordered: a pair
// matches regardless of which memory carries which type.
type ContradictionRule struct {
	First  RelationshipType `yaml:"first" json:"first"`
	Second RelationshipType `yaml:"second" json:"second"`
}

// Matches reports whether the two relationship types trip this rule,
// in either order.
func (r ContradictionRule) Matches(a, b RelationshipType) bool {
	return (r.First == a && r.Second == b) || (r.First == b && r.Second == a)
}
