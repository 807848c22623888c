package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veesix-networks/dhcpagent/pkg/cache"
)

func TestSetGetTake(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	if err := c.Set(ctx, "xid:1", []byte("a"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, "xid:1")
	if err != nil || string(v) != "a" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}

	if _, err := c.Take(ctx, "xid:1"); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if _, err := c.Take(ctx, "xid:1"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("second Take: got %v, want ErrNotFound", err)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expired key: got %v, want ErrNotFound", err)
	}
}
