// Package shard implements a storage node: the HTTP surface over the
// local store plus the one-shot startup registration with the coordinator.
// A shard trusts the composite key the coordinator attaches to forwarded
// writes and recomputes it only for path-addressed operations.
package shard
