package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrTableExists is returned when registering a name already taken.
	ErrTableExists = errors.New("catalog: table already exists")
	// ErrTableNotFound is returned when looking up an unknown table.
	ErrTableNotFound = errors.New("catalog: table not found")
	// ErrInvalidTable is returned for a definition missing required fields.
	ErrInvalidTable = errors.New("catalog: invalid table definition")
)

// Table describes a registered table. SortKey is empty for tables keyed by
// partition key alone.
type Table struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// Catalog is the in-memory table registry.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]Table
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]Table)}
}

// Register records a table definition. The definition is immutable after
// registration; a second registration under the same name fails.
func (c *Catalog) Register(t Table) error {
	if t.Name == "" || t.PartitionKey == "" {
		return fmt.Errorf("%w: name and partition key are required", ErrInvalidTable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, t.Name)
	}
	c.tables[t.Name] = t
	return nil
}

// Get returns the definition for the named table.
func (c *Catalog) Get(name string) (Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Names returns the registered table names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
