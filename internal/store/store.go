// Package store persists the per-publisher record map as a single JSON
// document.
//
// The store is read once at run start and fully rewritten once at run end.
// Keys the orchestrator does not produce in a run are carried forward as raw
// JSON, preserving manually-curated records byte-for-byte; produced keys are
// replaced wholesale, never merged field-by-field.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Store holds the key-to-record mapping backed by a JSON file.
type Store struct {
	path    string
	records map[string]json.RawMessage
}

// Load reads the store file. A missing file yields an empty store; a
// corrupt file is an error, since silently discarding curated records
// would lose data on the next save.
func Load(path string) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}
	return s, nil
}

// Keys returns the source identifiers currently present.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}

// Has reports whether a source identifier is present.
func (s *Store) Has(key string) bool {
	_, ok := s.records[key]
	return ok
}

// Get decodes the record for one source. The second return is false when
// the key is absent.
func (s *Store) Get(key string) (dashboard.SourceRecord, bool) {
	raw, ok := s.records[key]
	if !ok {
		return dashboard.SourceRecord{}, false
	}
	var rec dashboard.SourceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return dashboard.SourceRecord{}, false
	}
	return rec, true
}

// Raw returns the stored JSON for one source, for byte-preserving reads.
func (s *Store) Raw(key string) (json.RawMessage, bool) {
	raw, ok := s.records[key]
	return raw, ok
}

// Merge overwrites every key present in fresh with its new record. Keys
// absent from fresh are left untouched.
func (s *Store) Merge(fresh map[string]dashboard.SourceRecord) error {
	for key, rec := range fresh {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", key, err)
		}
		s.records[key] = raw
	}
	return nil
}

// SetDefault stores rec under key only when the key is absent.
func (s *Store) SetDefault(key string, rec dashboard.SourceRecord) error {
	if _, ok := s.records[key]; ok {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal default record %s: %w", key, err)
	}
	s.records[key] = raw
	return nil
}

// Save atomically rewrites the store file: pretty-printed JSON written to a
// temp file in the same directory, then renamed over the target.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".shootings-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
