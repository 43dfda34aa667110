package coordinator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"shardkv/internal/api"
	"shardkv/internal/catalog"
	"shardkv/internal/keys"
	"shardkv/internal/registry"
)

// Record is a logical CRUD request before routing.
type Record struct {
	Table   string
	Key     string
	SortKey string
	Value   json.RawMessage
}

// Routed is the outcome of a forwarded operation: which shard served it,
// the status it answered with and its raw body.
type Routed struct {
	TargetShard string
	Status      int
	Response    json.RawMessage
}

// Coordinator composes routing keys, resolves shards and forwards
// operations. Construct it with explicit collaborators; it holds no global
// state.
type Coordinator struct {
	catalog  *catalog.Catalog
	registry *registry.Registry
	client   *ShardClient
	logger   *slog.Logger
}

// New wires a coordinator from its collaborators.
func New(cat *catalog.Catalog, reg *registry.Registry, client *ShardClient, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		catalog:  cat,
		registry: reg,
		client:   client,
		logger:   logger,
	}
}

// route validates the table and resolves the shard owning the composite
// key. The composite key is returned so forwarders can attach it.
func (co *Coordinator) route(table, key, sortKey string) (registry.Shard, string, error) {
	if _, err := co.catalog.Get(table); err != nil {
		return registry.Shard{}, "", err
	}
	compositeKey := keys.Composite(key, sortKey)
	shard, err := co.registry.Resolve(compositeKey)
	if err != nil {
		return registry.Shard{}, "", err
	}
	co.logger.Debug("resolved shard",
		slog.String("table", table),
		slog.String("composite_key", compositeKey),
		slog.String("shard", shard.Name),
	)
	return shard, compositeKey, nil
}

// Create routes and forwards a create.
func (co *Coordinator) Create(ctx context.Context, rec Record) (Routed, error) {
	shard, compositeKey, err := co.route(rec.Table, rec.Key, rec.SortKey)
	if err != nil {
		return Routed{}, err
	}
	payload := api.RecordRequest{
		Table:        rec.Table,
		Key:          rec.Key,
		SortKey:      rec.SortKey,
		Value:        rec.Value,
		CompositeKey: compositeKey,
	}
	status, body, err := co.client.do(ctx, shard, http.MethodPost, "/create", nil, payload)
	if err != nil {
		return Routed{}, err
	}
	return Routed{TargetShard: shard.Name, Status: status, Response: body}, nil
}

// Read routes and forwards a read.
func (co *Coordinator) Read(ctx context.Context, table, key, sortKey string) (Routed, error) {
	return co.forwardKeyed(ctx, http.MethodGet, "/read", table, key, sortKey)
}

// Exists routes and forwards an existence check.
func (co *Coordinator) Exists(ctx context.Context, table, key, sortKey string) (Routed, error) {
	return co.forwardKeyed(ctx, http.MethodGet, "/exists", table, key, sortKey)
}

// Update routes and forwards an update.
func (co *Coordinator) Update(ctx context.Context, rec Record) (Routed, error) {
	shard, compositeKey, err := co.route(rec.Table, rec.Key, rec.SortKey)
	if err != nil {
		return Routed{}, err
	}
	payload := api.RecordRequest{
		Table:        rec.Table,
		Key:          rec.Key,
		SortKey:      rec.SortKey,
		Value:        rec.Value,
		CompositeKey: compositeKey,
	}
	status, body, err := co.client.do(ctx, shard, http.MethodPut, "/update", nil, payload)
	if err != nil {
		return Routed{}, err
	}
	return Routed{TargetShard: shard.Name, Status: status, Response: body}, nil
}

// Delete routes and forwards a delete.
func (co *Coordinator) Delete(ctx context.Context, table, key, sortKey string) (Routed, error) {
	return co.forwardKeyed(ctx, http.MethodDelete, "/delete", table, key, sortKey)
}

// forwardKeyed handles the path-addressed operations (read, exists,
// delete), which carry table and key in the path and the sort key as a
// query parameter.
func (co *Coordinator) forwardKeyed(ctx context.Context, method, prefix, table, key, sortKey string) (Routed, error) {
	shard, _, err := co.route(table, key, sortKey)
	if err != nil {
		return Routed{}, err
	}

	path := prefix + "/" + url.PathEscape(table) + "/" + url.PathEscape(key)
	var query url.Values
	if sortKey != "" {
		query = url.Values{"sort_key": {sortKey}}
	}

	status, body, err := co.client.do(ctx, shard, method, path, query, nil)
	if err != nil {
		return Routed{}, err
	}
	return Routed{TargetShard: shard.Name, Status: status, Response: body}, nil
}
