package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const lastRunFile = "last_run.json"

// StateStore persists run records under the state dir.
type StateStore struct {
	dir string
}

func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

func (s *StateStore) Path() string {
	return filepath.Join(s.dir, lastRunFile)
}

func (s *StateStore) Save(run *Run) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}
	return nil
}

// LoadLastRun returns the previous run record, or nil when none exists.
func (s *StateStore) LoadLastRun() (*Run, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run state: %w", err)
	}
	run := new(Run)
	if err := json.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("parse run state: %w", err)
	}
	return run, nil
}
