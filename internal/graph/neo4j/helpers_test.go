// Package neo4j provides a Neo4j implementation of graph.Store.
// This file contains test helpers only available during testing.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CleanForTest removes every node and edge from the database. It is intended
// for use in tests only. The method is defined in the neo4j package (not the
// _test package) so it has access to the unexported run helper. It is still
// exported so that the neo4j_test package can call it.
func (s *Store) CleanForTest(ctx context.Context) error {
	if _, err := s.run(ctx, neo4j.AccessModeWrite, "MATCH (n) DETACH DELETE n", nil, nil); err != nil {
		return fmt.Errorf("neo4j: failed to clean database: %w", err)
	}
	return nil
}
