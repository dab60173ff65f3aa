package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGetDel(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Fatalf("unexpected hit on empty store")
	}

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, hit, err := s.Get(ctx, "k")
	if err != nil || !hit || v != "v" {
		t.Fatalf("get = (%q,%v,%v)", v, hit, err)
	}

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Fatalf("hit after delete")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Fatalf("entry should have expired")
	}
}
