package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardkv/internal/api"
	"shardkv/internal/catalog"
	"shardkv/internal/registry"
	"shardkv/internal/ring"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capturedRequest records what a stub shard received.
type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

func newStubShard(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		captured.Body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newCoordinator(t *testing.T, shards map[string]string) *Coordinator {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Register(catalog.Table{Name: "orders", PartitionKey: "user_id", SortKey: "order_id"}))
	require.NoError(t, cat.Register(catalog.Table{Name: "users", PartitionKey: "id"}))

	reg := registry.New(100)
	for name, url := range shards {
		require.NoError(t, reg.Register(name, url))
	}
	return New(cat, reg, NewShardClient(0), testLogger())
}

func TestCoordinator_Create_ForwardsCompositeKey(t *testing.T) {
	stub, captured := newStubShard(t, http.StatusOK, `{"message":"Created","table":"orders","key":"u1:o5"}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	routed, err := co.Create(context.Background(), Record{
		Table:   "orders",
		Key:     "u1",
		SortKey: "o5",
		Value:   json.RawMessage(`{"amt":10}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "shard1", routed.TargetShard)
	assert.Equal(t, http.StatusOK, routed.Status)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/create", captured.Path)

	var forwarded api.RecordRequest
	require.NoError(t, json.Unmarshal(captured.Body, &forwarded))
	assert.Equal(t, "u1:o5", forwarded.CompositeKey)
	assert.JSONEq(t, `{"amt":10}`, string(forwarded.Value))
}

func TestCoordinator_Read_BuildsKeyedPath(t *testing.T) {
	stub, captured := newStubShard(t, http.StatusOK, `{"key":"u1:o5","value":{"amt":10}}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	routed, err := co.Read(context.Background(), "orders", "u1", "o5")
	require.NoError(t, err)

	assert.Equal(t, "shard1", routed.TargetShard)
	assert.Equal(t, "/read/orders/u1", captured.Path)
	assert.Equal(t, "sort_key=o5", captured.Query)
}

func TestCoordinator_Read_NoSortKeyOmitsQuery(t *testing.T) {
	stub, captured := newStubShard(t, http.StatusOK, `{"key":"u1","value":{}}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	_, err := co.Read(context.Background(), "users", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "/read/users/u1", captured.Path)
	assert.Empty(t, captured.Query)
}

func TestCoordinator_TableNotFound(t *testing.T) {
	stub, _ := newStubShard(t, http.StatusOK, `{}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	_, err := co.Read(context.Background(), "ghost", "u1", "")
	assert.ErrorIs(t, err, catalog.ErrTableNotFound)
}

func TestCoordinator_EmptyRing(t *testing.T) {
	co := newCoordinator(t, nil)

	_, err := co.Create(context.Background(), Record{Table: "users", Key: "u1", Value: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ring.ErrEmpty)
}

func TestCoordinator_ShardRejection_PropagatesVerbatim(t *testing.T) {
	stub, _ := newStubShard(t, http.StatusNotFound, `{"error":"storage: record not found","code":"record_not_found"}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	routed, err := co.Read(context.Background(), "users", "missing", "")
	require.NoError(t, err, "an application-level rejection is not a transport error")

	assert.Equal(t, http.StatusNotFound, routed.Status)
	assert.Contains(t, string(routed.Response), "record_not_found")
}

func TestCoordinator_ShardUnreachable(t *testing.T) {
	co := newCoordinator(t, map[string]string{"shard1": "http://127.0.0.1:1"})

	_, err := co.Read(context.Background(), "users", "u1", "")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "shard1", upstream.Shard)
}

func TestCoordinator_WriteAndReadRouteToSameShard(t *testing.T) {
	stubA, _ := newStubShard(t, http.StatusOK, `{}`)
	stubB, _ := newStubShard(t, http.StatusOK, `{}`)
	co := newCoordinator(t, map[string]string{"shardA": stubA.URL, "shardB": stubB.URL})

	created, err := co.Create(context.Background(), Record{
		Table: "orders", Key: "u1", SortKey: "o5", Value: json.RawMessage(`{"amt":10}`),
	})
	require.NoError(t, err)

	read, err := co.Read(context.Background(), "orders", "u1", "o5")
	require.NoError(t, err)
	assert.Equal(t, created.TargetShard, read.TargetShard)

	deleted, err := co.Delete(context.Background(), "orders", "u1", "o5")
	require.NoError(t, err)
	assert.Equal(t, created.TargetShard, deleted.TargetShard)
}

func TestCoordinator_Update_UsesSameRoutingAsCreate(t *testing.T) {
	stub, captured := newStubShard(t, http.StatusOK, `{"message":"Updated"}`)
	co := newCoordinator(t, map[string]string{"shard1": stub.URL})

	_, err := co.Update(context.Background(), Record{
		Table: "orders", Key: "u1", SortKey: "o5", Value: json.RawMessage(`{"amt":20}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, captured.Method)
	assert.Equal(t, "/update", captured.Path)

	var forwarded api.RecordRequest
	require.NoError(t, json.Unmarshal(captured.Body, &forwarded))
	assert.Equal(t, "u1:o5", forwarded.CompositeKey)
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, "null", string(normalizeBody(nil)))
	assert.Equal(t, `{"a":1}`, string(normalizeBody([]byte(`{"a":1}`))))
	assert.Equal(t, `"plain text"`, string(normalizeBody([]byte("plain text"))))
}

func TestUpstreamError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &UpstreamError{Shard: "s", URL: "http://s", Err: inner}
	assert.ErrorIs(t, err, inner)
}
