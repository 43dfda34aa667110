package shard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"shardkv/internal/api"
)

// Register announces this shard to the coordinator. It is a one-shot
// bootstrap call: no retry loop, a bounded timeout on the client, and a
// "shard already registered" rejection counts as success so a restarted
// shard comes back up cleanly.
func Register(ctx context.Context, client *http.Client, coordinatorURL, name, advertiseURL string, logger *slog.Logger) error {
	body, err := json.Marshal(api.ShardRegistration{Name: name, URL: advertiseURL})
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, coordinatorURL+"/register_shard", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("register with coordinator %s: %w", coordinatorURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		logger.Info("registered with coordinator",
			slog.String("coordinator", coordinatorURL),
			slog.String("shard", name),
			slog.String("url", advertiseURL),
		)
		return nil
	}

	raw, _ := io.ReadAll(resp.Body)
	var rejection api.ErrorResponse
	if json.Unmarshal(raw, &rejection) == nil && rejection.Code == api.CodeShardRegistered {
		logger.Info("shard already registered with coordinator",
			slog.String("coordinator", coordinatorURL),
			slog.String("shard", name),
		)
		return nil
	}
	return fmt.Errorf("coordinator rejected registration: status %d: %s", resp.StatusCode, raw)
}
