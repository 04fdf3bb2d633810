package utils

import (
	"context"
	"testing"
	"time"
)

func TestCache_NilIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var out map[string]int
	if c.GetJSON(ctx, "k", &out) {
		t.Fatalf("nil cache must always miss")
	}
	// Writes and invalidations on a nil cache must not panic.
	c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute)
	if err := c.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("nil invalidate: %v", err)
	}
}

func TestNewCache_NilClient(t *testing.T) {
	if NewCache(nil) != nil {
		t.Fatalf("NewCache(nil) should return a nil no-op cache")
	}
}
