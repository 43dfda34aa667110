// Package config loads service configuration for the coordinator and
// shard binaries: defaults, an optional YAML file, and SHARDKV_-prefixed
// environment overrides, in increasing precedence.
package config
