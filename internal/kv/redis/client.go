// Package redis adapts a Redis connection to the kv.Store contract.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// casAttempts bounds the optimistic WATCH retries when another writer
// touches the key mid-transaction.
const casAttempts = 3

// Client wraps the Redis client as a kv.Store.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis-backed store from a connection URL.
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get returns the value under key, or nil when absent.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Put stores the value under key.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// Delete removes the key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Keys scans for all keys with the given prefix.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return keys, nil
}

// CheckAndPut writes value only if check approves the currently stored
// bytes. Atomicity comes from WATCH: if another writer modifies the key
// between the read and the queued SET, the transaction fails and is
// retried with fresh bytes.
func (c *Client) CheckAndPut(ctx context.Context, key string, value []byte, check func(current []byte) error) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			current = nil
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := check(current); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < casAttempts; i++ {
		err = c.rdb.Watch(ctx, txf, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return fmt.Errorf("check-and-put %s: %w", key, err)
}
