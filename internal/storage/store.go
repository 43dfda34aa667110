package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrRecordNotFound is returned when a read, update or delete targets a
	// composite key this shard has never stored.
	ErrRecordNotFound = errors.New("storage: record not found")
	// ErrRecordExists is returned when a create targets an existing key.
	ErrRecordExists = errors.New("storage: record already exists")
)

// Store is an in-memory table/key/value store. A coarse RWMutex serializes
// mutations, which satisfies the per-key ordering requirement; reads run
// concurrently.
//
// A table that has never received a write is indistinguishable from one
// whose keys all miss: both report ErrRecordNotFound. Table existence is
// the coordinator's concern, not the shard's.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]json.RawMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]map[string]json.RawMessage)}
}

// Create stores a new record under the composite key, creating the table's
// local map on first use. Fails if the key already holds a record.
func (s *Store) Create(table, compositeKey string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.tables[table]
	if !ok {
		records = make(map[string]json.RawMessage)
		s.tables[table] = records
	}
	if _, exists := records[compositeKey]; exists {
		return fmt.Errorf("%w: %s/%s", ErrRecordExists, table, compositeKey)
	}
	records[compositeKey] = cloneValue(value)
	return nil
}

// Read returns the record stored under the composite key.
func (s *Store) Read(table, compositeKey string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.tables[table][compositeKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, compositeKey)
	}
	return cloneValue(value), nil
}

// Exists reports whether the composite key holds a record.
func (s *Store) Exists(table, compositeKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tables[table][compositeKey]
	return ok
}

// Update replaces the value of an existing record. It never creates: a
// missing key is ErrRecordNotFound.
func (s *Store) Update(table, compositeKey string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, compositeKey)
	}
	if _, exists := records[compositeKey]; !exists {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, compositeKey)
	}
	records[compositeKey] = cloneValue(value)
	return nil
}

// Delete removes the record under the composite key.
func (s *Store) Delete(table, compositeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, compositeKey)
	}
	if _, exists := records[compositeKey]; !exists {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, compositeKey)
	}
	delete(records, compositeKey)
	return nil
}

// Len returns the number of records stored for the table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

// cloneValue copies the raw JSON so callers cannot alias store internals.
func cloneValue(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}
