package api

import (
	"fmt"
	"testing"
	"time"
)

func TestAvatarCacheCaseInsensitiveKeys(t *testing.T) {
	t.Parallel()

	cache := NewAvatarCache()
	cache.Set("Steve", "https://avatars.example/steve")

	if url, ok := cache.Get("steve"); !ok || url != "https://avatars.example/steve" {
		t.Fatalf("Get(steve) = %q, %v", url, ok)
	}
	if url, ok := cache.Get("  STEVE  "); !ok || url != "https://avatars.example/steve" {
		t.Fatalf("Get(STEVE) = %q, %v", url, ok)
	}
}

func TestAvatarCacheExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := NewAvatarCache()
	cache.now = func() time.Time { return now }
	cache.Set("alex", "https://avatars.example/alex")

	now = now.Add(avatarTTL - time.Minute)
	if _, ok := cache.Get("alex"); !ok {
		t.Fatal("entry expired before its ttl")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("alex"); ok {
		t.Fatal("entry survived past its ttl")
	}
	if cache.Len() != 0 {
		t.Fatalf("len = %d after expiry, want 0", cache.Len())
	}
}

func TestAvatarCacheEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := NewAvatarCache()
	cache.now = func() time.Time { return now }

	for i := 0; i < avatarCacheLimit; i++ {
		cache.Set(fmt.Sprintf("player%03d", i), "https://avatars.example/p")
		now = now.Add(time.Second)
	}
	if cache.Len() != avatarCacheLimit {
		t.Fatalf("len = %d, want %d", cache.Len(), avatarCacheLimit)
	}

	cache.Set("newcomer", "https://avatars.example/new")

	if cache.Len() != avatarCacheLimit {
		t.Fatalf("len = %d after eviction, want %d", cache.Len(), avatarCacheLimit)
	}
	if _, ok := cache.Get("player000"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := cache.Get("newcomer"); !ok {
		t.Fatal("new entry missing after insert")
	}
}

func TestAvatarURLMemoizes(t *testing.T) {
	t.Parallel()

	cache := NewAvatarCache()
	url := cache.AvatarURL("Steve", 64)
	if url != "https://minotar.net/avatar/steve/64.png" {
		t.Fatalf("url = %q", url)
	}
	if got := cache.AvatarURL("STEVE", 32); got != url {
		t.Fatalf("second resolve = %q, want memoized %q", got, url)
	}
	if cache.Len() != 1 {
		t.Fatalf("len = %d, want 1", cache.Len())
	}
	if got := cache.AvatarURL("  ", 64); got != "" {
		t.Fatalf("blank username resolved to %q", got)
	}
}

func TestAvatarCacheIgnoresBlankInput(t *testing.T) {
	t.Parallel()

	cache := NewAvatarCache()
	cache.Set("   ", "https://avatars.example/blank")
	cache.Set("steve", "   ")

	if cache.Len() != 0 {
		t.Fatalf("len = %d, want 0", cache.Len())
	}
}
