package ring

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrDuplicateNode is returned when adding a shard already on the ring.
	ErrDuplicateNode = errors.New("ring: shard already on ring")
	// ErrUnknownNode is returned when removing a shard not on the ring.
	ErrUnknownNode = errors.New("ring: shard not on ring")
	// ErrEmpty is returned by Get when no shards are registered.
	ErrEmpty = errors.New("ring: no shards available")
)

// DefaultReplicas is the number of virtual nodes placed per shard when the
// caller does not choose one.
const DefaultReplicas = 128

// vnode is a single point on the ring owned by a shard.
type vnode struct {
	pos  uint64
	node string
}

// Ring implements consistent hashing with virtual nodes. Lookup is a pure
// function of (membership, key): the same key maps to the same shard until
// membership changes.
type Ring struct {
	mu       sync.RWMutex
	replicas int
	vnodes   []vnode // sorted by pos
	nodes    map[string]struct{}
}

// New creates an empty ring placing replicas virtual nodes per shard.
func New(replicas int) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	return &Ring{
		replicas: replicas,
		nodes:    make(map[string]struct{}),
	}
}

// AddNode inserts all virtual nodes for the named shard. Virtual node i is
// placed at xxhash64("name:i"); a position already occupied is re-hashed
// with a salt until free, so positions stay unique on the ring.
func (r *Ring) AddNode(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}

	taken := make(map[uint64]struct{}, len(r.vnodes)+r.replicas)
	for _, v := range r.vnodes {
		taken[v.pos] = struct{}{}
	}

	added := make([]vnode, 0, r.replicas)
	for i := 0; i < r.replicas; i++ {
		pos := xxhash.Sum64String(fmt.Sprintf("%s:%d", name, i))
		for salt := 0; ; salt++ {
			if _, dup := taken[pos]; !dup {
				break
			}
			pos = xxhash.Sum64String(fmt.Sprintf("%s:%d#%d", name, i, salt))
		}
		taken[pos] = struct{}{}
		added = append(added, vnode{pos: pos, node: name})
	}

	r.vnodes = append(r.vnodes, added...)
	sort.Slice(r.vnodes, func(i, j int) bool {
		return r.vnodes[i].pos < r.vnodes[j].pos
	})
	r.nodes[name] = struct{}{}
	return nil
}

// RemoveNode deletes every virtual node owned by the named shard. Keys it
// owned fall through to the clockwise-next virtual node; keys owned by
// other shards are untouched.
func (r *Ring) RemoveNode(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}

	kept := r.vnodes[:0]
	for _, v := range r.vnodes {
		if v.node != name {
			kept = append(kept, v)
		}
	}
	r.vnodes = kept
	delete(r.nodes, name)
	return nil
}

// Get returns the shard responsible for key: the owner of the smallest
// ring position >= xxhash64(key), wrapping to the first position when the
// key hashes past the last virtual node.
func (r *Ring) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 {
		return "", ErrEmpty
	}

	h := xxhash.Sum64String(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].pos >= h
	})
	if idx == len(r.vnodes) {
		idx = 0 // clockwise wrap
	}
	return r.vnodes[idx].node, nil
}

// Contains reports whether the named shard is on the ring.
func (r *Ring) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[name]
	return ok
}

// Nodes returns the shard identities on the ring in sorted order.
func (r *Ring) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VirtualNodes returns the total number of virtual nodes on the ring.
func (r *Ring) VirtualNodes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vnodes)
}
