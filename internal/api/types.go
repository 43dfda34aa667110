// Package api holds the JSON wire types shared by the coordinator and the
// shard nodes, plus the machine-readable error codes both surfaces emit.
package api

import "encoding/json"

// TableRequest registers a table schema with the coordinator.
type TableRequest struct {
	Name             string `json:"name" binding:"required"`
	PartitionKeyName string `json:"partition_key_name" binding:"required"`
	SortKeyName      string `json:"sort_key_name,omitempty"`
}

// ShardRegistration announces a shard to the coordinator.
type ShardRegistration struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

// RecordRequest is the body of create and update operations. The
// coordinator fills CompositeKey before forwarding so the shard never has
// to recompute it; clients leave it empty.
type RecordRequest struct {
	Table        string          `json:"table" binding:"required"`
	Key          string          `json:"key" binding:"required"`
	SortKey      string          `json:"sort_key,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	CompositeKey string          `json:"composite_key,omitempty"`
}

// RoutedResponse wraps a shard's raw reply with the shard that served it,
// so callers can always tell where a request landed.
type RoutedResponse struct {
	TargetShard string          `json:"target_shard"`
	Response    json.RawMessage `json:"response"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes, one per failure kind.
const (
	CodeTableNotFound     = "table_not_found"
	CodeTableExists       = "table_already_exists"
	CodeShardRegistered   = "shard_already_registered"
	CodeNoShardsAvailable = "no_shards_available"
	CodeRecordNotFound    = "record_not_found"
	CodeRecordExists      = "record_already_exists"
	CodeShardUnreachable  = "shard_unreachable"
	CodeBadRequest        = "bad_request"
	CodeInternal          = "internal_error"
)
