package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/vitalog/vitalog/internal/health/records"
)

const recordsKey = "vitalog-records"

// RedisBridge keeps the record list as a JSON blob under a single key.
type RedisBridge struct {
	redisClient *redis.Client
}

func NewRedisBridge(redisClient *redis.Client) *RedisBridge {
	return &RedisBridge{
		redisClient: redisClient,
	}
}

func (rb *RedisBridge) Load(ctx context.Context) ([]records.Record, error) {
	cmd := rb.redisClient.Get(ctx, recordsKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			// nothing stored yet
			return nil, nil
		}
		return nil, fmt.Errorf("get records blob: %w", err)
	}

	var recs []records.Record
	if err := json.Unmarshal([]byte(cmd.Val()), &recs); err != nil {
		return nil, fmt.Errorf("unmarshal records blob: %w", err)
	}

	return recs, nil
}

func (rb *RedisBridge) Save(ctx context.Context, recs []records.Record) error {
	if recs == nil {
		recs = []records.Record{}
	}

	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := rb.redisClient.Set(ctx, recordsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("set records blob: %w", err)
	}

	return nil
}
