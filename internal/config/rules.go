package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haldane/mnemograph/pkg/types"
)

// rulesFile is the on-disk shape of a contradiction-rules file:
//
//	contradictions:
//	  - first: EFFECTIVE_FOR
//	    second: DEPRECATED_BY
//	  - first: ENABLES
//	    second: BLOCKS
type rulesFile struct {
	Contradictions []types.ContradictionRule `yaml:"contradictions"`
}

// LoadContradictionRules reads additional contradiction pairs from a YAML
// file. Every named type must exist in the relationship registry; unknown
// types fail the whole load so a typo can't silently disable a rule. The
// returned rules supplement the built-in table, they do not replace it.
func LoadContradictionRules(path string) ([]types.ContradictionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parsing rules file %s: %w", path, err)
	}

	registry := types.NewRelationshipRegistry()
	for i, rule := range file.Contradictions {
		if rule.First == "" || rule.Second == "" {
			return nil, fmt.Errorf("config: rules file %s: rule %d is missing a side", path, i)
		}
		if !registry.Contains(rule.First) {
			return nil, fmt.Errorf("config: rules file %s: rule %d: %w: %s", path, i, types.ErrUnknownRelationshipType, rule.First)
		}
		if !registry.Contains(rule.Second) {
			return nil, fmt.Errorf("config: rules file %s: rule %d: %w: %s", path, i, types.ErrUnknownRelationshipType, rule.Second)
		}
	}
	return file.Contradictions, nil
}
