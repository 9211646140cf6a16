package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TransitionTable optionally restricts status transitions. The store has
// historically accepted any status from any prior status; loading a table is
// the explicit opt-in to hardening. A nil table keeps the permissive behavior.
type TransitionTable struct {
	allowed map[Status][]Status
}

type transitionFile struct {
	Transitions map[Status][]Status `yaml:"transitions"`
}

// LoadTransitionTable reads a YAML file of the form:
//
//	transitions:
//	  pending: [in_progress, blocked]
//	  in_progress: [completed, blocked]
//	  blocked: [in_progress]
func LoadTransitionTable(path string) (*TransitionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transition table: %w", err)
	}
	var file transitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse transition table: %w", err)
	}
	return &TransitionTable{allowed: file.Transitions}, nil
}

// Allows reports whether the table permits moving from one status to another.
// A nil table allows everything.
func (t *TransitionTable) Allows(from, to Status) bool {
	if t == nil {
		return true
	}
	for _, s := range t.allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
