package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shardkv/internal/registry"
)

// DefaultShardTimeout bounds every coordinator-to-shard call when the
// configuration does not choose one.
const DefaultShardTimeout = 5 * time.Second

// UpstreamError reports that the resolved shard could not be reached at
// the transport level. Application-level rejections from a reachable shard
// are not upstream errors; their status and body propagate verbatim.
type UpstreamError struct {
	Shard string
	URL   string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("shard %s unreachable at %s: %v", e.Shard, e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ShardClient performs JSON-over-HTTP calls to shard nodes with a finite
// timeout and no retries.
type ShardClient struct {
	http *http.Client
}

// NewShardClient creates a client with the given per-call timeout.
func NewShardClient(timeout time.Duration) *ShardClient {
	if timeout <= 0 {
		timeout = DefaultShardTimeout
	}
	return &ShardClient{http: &http.Client{Timeout: timeout}}
}

// do fires exactly one request against the shard and returns its status
// and raw body. A transport failure comes back as *UpstreamError.
func (c *ShardClient) do(ctx context.Context, shard registry.Shard, method, path string, query url.Values, body any) (int, json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode shard request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := shard.URL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build shard request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &UpstreamError{Shard: shard.Name, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &UpstreamError{Shard: shard.Name, URL: target, Err: err}
	}
	return resp.StatusCode, normalizeBody(raw), nil
}

// normalizeBody makes the shard's reply embeddable in a JSON envelope even
// when the shard answered with an empty or non-JSON body.
func normalizeBody(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(quoted)
}
