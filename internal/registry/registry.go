package registry

import (
	"errors"
	"fmt"
	"sync"

	"shardkv/internal/ring"
)

var (
	// ErrShardRegistered is returned when registering a name already known.
	ErrShardRegistered = errors.New("registry: shard already registered")
	// ErrShardUnknown is returned when deregistering an unknown shard.
	ErrShardUnknown = errors.New("registry: shard not registered")
	// ErrInvalidShard is returned for a registration missing name or URL.
	ErrInvalidShard = errors.New("registry: invalid shard registration")
)

// Shard is a registered storage node.
type Shard struct {
	Name string
	URL  string
}

// Registry maps shard identities to addresses and keeps the ring in step
// with registration state. The registry mutex covers the address map and
// the ring update together, so a resolver never observes a shard with an
// address but no ring presence or vice versa.
type Registry struct {
	mu     sync.RWMutex
	ring   *ring.Ring
	shards map[string]string // name -> base URL
}

// New creates an empty registry with the given virtual nodes per shard.
func New(replicas int) *Registry {
	return &Registry{
		ring:   ring.New(replicas),
		shards: make(map[string]string),
	}
}

// Register records the shard's address and places it on the ring. This is
// the only path by which the ring gains a node.
func (r *Registry) Register(name, url string) error {
	if name == "" || url == "" {
		return fmt.Errorf("%w: name and url are required", ErrInvalidShard)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shards[name]; ok {
		return fmt.Errorf("%w: %s", ErrShardRegistered, name)
	}
	if err := r.ring.AddNode(name); err != nil {
		return err
	}
	r.shards[name] = url
	return nil
}

// Deregister removes the shard from the ring and forgets its address.
// Operator hook only; no health checker drives it.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shards[name]; !ok {
		return fmt.Errorf("%w: %s", ErrShardUnknown, name)
	}
	if err := r.ring.RemoveNode(name); err != nil {
		return err
	}
	delete(r.shards, name)
	return nil
}

// Resolve maps a routing key to the shard that owns it.
func (r *Registry) Resolve(routingKey string) (Shard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, err := r.ring.Get(routingKey)
	if err != nil {
		return Shard{}, err
	}
	url, ok := r.shards[name]
	if !ok {
		// Registration and ring membership move under one lock, so the
		// ring cannot name a shard the address map lacks.
		return Shard{}, fmt.Errorf("%w: %s", ErrShardUnknown, name)
	}
	return Shard{Name: name, URL: url}, nil
}

// List returns a snapshot of registered shards as name -> URL.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.shards))
	for name, url := range r.shards {
		out[name] = url
	}
	return out
}

// Count returns the number of registered shards.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shards)
}
