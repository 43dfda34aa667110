// Package it provides an in-process integration harness: a coordinator
// and a set of shard nodes wired through real HTTP servers, exercising
// the same registration path the binaries use.
package it

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"shardkv/internal/catalog"
	"shardkv/internal/coordinator"
	"shardkv/internal/metrics"
	"shardkv/internal/registry"
	"shardkv/internal/shard"
	"shardkv/internal/storage"
)

// Cluster is a running coordinator plus its shard nodes.
type Cluster struct {
	Coordinator *httptest.Server
	Shards      map[string]*httptest.Server

	logger *slog.Logger
	client *http.Client
}

// NewCluster starts a coordinator and one shard node per name, each shard
// registering itself over HTTP exactly as the shard binary does.
func NewCluster(t *testing.T, shardNames ...string) *Cluster {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat := catalog.New()
	reg := registry.New(100)
	co := coordinator.New(cat, reg, coordinator.NewShardClient(2*time.Second), logger)
	srv := coordinator.NewServer(co, cat, reg, metrics.New(), logger)

	coordServer := httptest.NewServer(srv.Router())
	t.Cleanup(coordServer.Close)

	c := &Cluster{
		Coordinator: coordServer,
		Shards:      make(map[string]*httptest.Server),
		logger:      logger,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
	for _, name := range shardNames {
		c.StartShard(t, name)
	}
	return c
}

// StartShard boots a shard node and registers it with the coordinator.
func (c *Cluster) StartShard(t *testing.T, name string) {
	t.Helper()

	srv := shard.NewServer(name, storage.NewStore(), c.logger)
	shardServer := httptest.NewServer(srv.Router())
	t.Cleanup(shardServer.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, shard.Register(ctx, c.client, c.Coordinator.URL, name, shardServer.URL, c.logger))

	c.Shards[name] = shardServer
}

// Do performs one request against the coordinator and decodes the JSON
// reply into a generic map.
func (c *Cluster) Do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.Coordinator.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := make(map[string]any)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// RegisterTable registers a table schema through the coordinator API.
func (c *Cluster) RegisterTable(t *testing.T, name, partitionKey, sortKey string) {
	t.Helper()
	body := map[string]any{"name": name, "partition_key_name": partitionKey}
	if sortKey != "" {
		body["sort_key_name"] = sortKey
	}
	status, _ := c.Do(t, http.MethodPost, "/register_table", body)
	require.Equal(t, http.StatusOK, status)
}

// TargetShard extracts the target_shard field from a routed response.
func TargetShard(t *testing.T, envelope map[string]any) string {
	t.Helper()
	shardName, ok := envelope["target_shard"].(string)
	require.True(t, ok, "missing target_shard in %v", envelope)
	return shardName
}
