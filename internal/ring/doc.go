// Package ring implements a consistent hashing ring with virtual nodes.
// It maps arbitrary string keys to shard identities while minimizing key
// movement when membership changes. Positions are 64-bit xxhash values;
// the same hash function places virtual nodes and looks up keys.
package ring
