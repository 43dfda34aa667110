// Package storage is the per-shard local store: a map of table name to a
// map of composite key to JSON value. State is process-lifetime only; the
// store never touches disk.
package storage
