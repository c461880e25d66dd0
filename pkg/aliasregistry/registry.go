// Package aliasregistry loads, edits and validates the color alias file.
package aliasregistry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func Load(path string) (*AliasRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg AliasRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse alias registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrNew returns an empty registry when path does not exist yet.
func LoadOrNew(path string) (*AliasRegistry, error) {
	reg, err := Load(path)
	if os.IsNotExist(err) {
		return &AliasRegistry{Version: "1.0.0"}, nil
	}
	return reg, err
}

func Save(reg *AliasRegistry, path string) error {
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *AliasRegistry) find(token string) int {
	want := fold(token)
	for i, e := range r.Entries {
		if fold(e.Token) == want {
			return i
		}
	}
	return -1
}

// Add appends aliases to token, creating the entry if needed. Aliases
// already present (ignoring case) are skipped.
func (r *AliasRegistry) Add(token string, aliases []string, note string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	idx := r.find(token)
	if idx < 0 {
		r.Entries = append(r.Entries, AliasEntry{Token: token, Note: note})
		idx = len(r.Entries) - 1
	} else if note != "" {
		r.Entries[idx].Note = note
	}

	entry := &r.Entries[idx]
	seen := make(map[string]bool, len(entry.Aliases))
	for _, a := range entry.Aliases {
		seen[fold(a)] = true
	}
	added := 0
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || seen[fold(a)] {
			continue
		}
		seen[fold(a)] = true
		entry.Aliases = append(entry.Aliases, a)
		added++
	}
	if added == 0 && len(entry.Aliases) == 0 {
		return fmt.Errorf("token %s needs at least one alias", token)
	}

	r.LastUpdated = now.UTC().Format(time.RFC3339)
	return nil
}

// Remove drops alias from token, or the whole entry when alias is empty.
func (r *AliasRegistry) Remove(token, alias string, now time.Time) error {
	idx := r.find(token)
	if idx < 0 {
		return fmt.Errorf("token %s not found", token)
	}

	if alias == "" {
		r.Entries = append(r.Entries[:idx], r.Entries[idx+1:]...)
		r.LastUpdated = now.UTC().Format(time.RFC3339)
		return nil
	}

	entry := &r.Entries[idx]
	kept := entry.Aliases[:0]
	found := false
	for _, a := range entry.Aliases {
		if fold(a) == fold(alias) {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("alias %s not found under %s", alias, token)
	}
	entry.Aliases = kept
	if len(entry.Aliases) == 0 {
		r.Entries = append(r.Entries[:idx], r.Entries[idx+1:]...)
	}
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	return nil
}

// Validate reports the first structural problem in the registry.
func (r *AliasRegistry) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("registry missing version")
	}
	if len(r.Entries) == 0 {
		return fmt.Errorf("registry contains no entries")
	}

	tokens := make(map[string]bool, len(r.Entries))
	for i, e := range r.Entries {
		if strings.TrimSpace(e.Token) == "" {
			return fmt.Errorf("entry %d missing token", i)
		}
		if strings.Contains(e.Token, "-") {
			return fmt.Errorf("token %s contains '-', which descriptors use as a separator", e.Token)
		}
		key := fold(e.Token)
		if tokens[key] {
			return fmt.Errorf("duplicate token: %s", e.Token)
		}
		tokens[key] = true

		if len(e.Aliases) == 0 {
			return fmt.Errorf("token %s has no aliases", e.Token)
		}
		seen := make(map[string]bool, len(e.Aliases))
		for _, a := range e.Aliases {
			if strings.TrimSpace(a) == "" {
				return fmt.Errorf("token %s has an empty alias", e.Token)
			}
			if seen[fold(a)] {
				return fmt.Errorf("token %s lists alias %s twice", e.Token, a)
			}
			seen[fold(a)] = true
		}
	}
	return nil
}

// Map returns token => aliases for building the resolver's alias table.
func (r *AliasRegistry) Map() map[string][]string {
	out := make(map[string][]string, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Token] = append([]string(nil), e.Aliases...)
	}
	return out
}
