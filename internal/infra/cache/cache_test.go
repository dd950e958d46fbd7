package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_ReplaceOnlyExisting(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	if c.Replace("missing", 1) {
		t.Fatal("expected replace of a missing key to fail")
	}

	c.Set("k", 1)
	if !c.Replace("k", 2) {
		t.Fatal("expected replace of an existing key to succeed")
	}
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.SetWithTTL("short", "v", 30*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Fatal("expected per-key TTL to expire the entry")
	}
}
