package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	policiesFile   = "policies.json"
	proceduresFile = "procedures.json"
)

// LoadDir builds a Store from a rules directory containing
// policies.json and procedures.json.
func LoadDir(dir string) (*Store, error) {
	var policies []*PolicyRule
	if err := loadJSON(filepath.Join(dir, policiesFile), &policies); err != nil {
		return nil, err
	}
	var procedures []*ProcedureReference
	if err := loadJSON(filepath.Join(dir, proceduresFile), &procedures); err != nil {
		return nil, err
	}
	store, err := NewStore(policies, procedures)
	if err != nil {
		return nil, fmt.Errorf("rules dir %s: %w", dir, err)
	}
	return store, nil
}

func loadJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
