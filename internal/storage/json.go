package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON unmarshals the JSON value under key into dst.
// It reports whether the key existed.
func GetJSON(ctx context.Context, kv KV, key string, dst any) (bool, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
