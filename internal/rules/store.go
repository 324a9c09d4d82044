package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// Store persists rules as a single JSON document. Writes are atomic
// (write-temp + fsync + rename) and serialised by a process-local mutex;
// cross-process concurrency is not supported.
type Store struct {
	path string

	mu     sync.Mutex
	loaded bool
	rules  []Rule
}

type document struct {
	Rules []Rule `json:"rules"`
}

// NewStore creates a store backed by the JSON document at path. The file
// is loaded lazily on first access; a missing file means no rules.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// load reads the document if it has not been read yet. Caller holds mu.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("reading rule store %s: %w", s.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing rule store %s: %w", s.path, err)
	}
	s.rules = doc.Rules
	s.loaded = true
	return nil
}

// save writes the document atomically. Caller holds mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(document{Rules: s.rules}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rule store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating rule store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("creating temp rule file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp rule file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp rule file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp rule file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing rule store %s: %w", s.path, err)
	}
	return nil
}

// List returns a snapshot of all rules.
func (s *Store) List() ([]Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

// Get looks a rule up by exact ID first, then by exact name.
func (s *Store) Get(idOrName string) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Rule{}, err
	}
	if r, ok := s.find(idOrName); ok {
		return r, nil
	}
	return Rule{}, gmailapi.NewError(gmailapi.KindNotFound, "no rule with id or name %q", idOrName)
}

// find resolves id-then-name. Caller holds mu.
func (s *Store) find(idOrName string) (Rule, bool) {
	for _, r := range s.rules {
		if r.ID == idOrName {
			return r, true
		}
	}
	for _, r := range s.rules {
		if r.Name == idOrName {
			return r, true
		}
	}
	return Rule{}, false
}

// Add validates and persists a new rule, assigning its ID and timestamps.
// A duplicate name is rejected so names stay usable as lookup aliases.
func (s *Store) Add(r Rule) (Rule, error) {
	if err := r.Validate(); err != nil {
		return Rule{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Rule{}, err
	}

	for _, existing := range s.rules {
		if existing.Name == r.Name {
			return Rule{}, gmailapi.NewError(gmailapi.KindRuleConflict, "a rule named %q already exists (id %s)", r.Name, existing.ID)
		}
	}

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ConditionConjunction == "" {
		r.ConditionConjunction = ConjunctionAnd
	}

	s.rules = append(s.rules, r)
	if err := s.save(); err != nil {
		s.rules = s.rules[:len(s.rules)-1]
		return Rule{}, err
	}
	return r, nil
}

// Replace swaps a rule's full definition, keeping its ID and creation
// time. Rules have no partial updates.
func (s *Store) Replace(idOrName string, updated Rule) (Rule, error) {
	if err := updated.Validate(); err != nil {
		return Rule{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Rule{}, err
	}

	current, ok := s.find(idOrName)
	if !ok {
		return Rule{}, gmailapi.NewError(gmailapi.KindNotFound, "no rule with id or name %q", idOrName)
	}
	for _, existing := range s.rules {
		if existing.ID != current.ID && existing.Name == updated.Name {
			return Rule{}, gmailapi.NewError(gmailapi.KindRuleConflict, "a rule named %q already exists (id %s)", updated.Name, existing.ID)
		}
	}

	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	if updated.ConditionConjunction == "" {
		updated.ConditionConjunction = ConjunctionAnd
	}

	prev := make([]Rule, len(s.rules))
	copy(prev, s.rules)
	for i := range s.rules {
		if s.rules[i].ID == current.ID {
			s.rules[i] = updated
			break
		}
	}
	if err := s.save(); err != nil {
		s.rules = prev
		return Rule{}, err
	}
	return updated, nil
}

// Delete removes a rule by ID or name and returns what was removed.
func (s *Store) Delete(idOrName string) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Rule{}, err
	}

	target, ok := s.find(idOrName)
	if !ok {
		return Rule{}, gmailapi.NewError(gmailapi.KindNotFound, "no rule with id or name %q", idOrName)
	}

	prev := make([]Rule, len(s.rules))
	copy(prev, s.rules)
	kept := s.rules[:0]
	for _, r := range s.rules {
		if r.ID != target.ID {
			kept = append(kept, r)
		}
	}
	s.rules = kept
	if err := s.save(); err != nil {
		s.rules = prev
		return Rule{}, err
	}
	return target, nil
}
