package api

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	avatarTTL        = 24 * time.Hour
	avatarCacheLimit = 100
)

type avatarEntry struct {
	url      string
	cachedAt time.Time
}

// AvatarCache keeps resolved Minecraft avatar URLs so repeated renders of
// the same player do not hit the avatar service again. Entries expire
// after a day, and the oldest entry is evicted once the cache is full.
type AvatarCache struct {
	mu      sync.Mutex
	entries map[string]avatarEntry
	now     func() time.Time
}

func NewAvatarCache() *AvatarCache {
	return &AvatarCache{
		entries: make(map[string]avatarEntry),
		now:     time.Now,
	}
}

// Get returns the cached URL for a username, case-insensitively.
func (c *AvatarCache) Get(username string) (string, bool) {
	key := avatarKey(username)
	if key == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.cachedAt) > avatarTTL {
		delete(c.entries, key)
		return "", false
	}
	return entry.url, true
}

func (c *AvatarCache) Set(username, url string) {
	key := avatarKey(username)
	if key == "" || strings.TrimSpace(url) == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= avatarCacheLimit {
		c.evictOldestLocked()
	}
	c.entries[key] = avatarEntry{url: url, cachedAt: c.now()}
}

// AvatarURL resolves the face-render URL for a Minecraft username,
// memoizing the result.
func (c *AvatarCache) AvatarURL(username string, size int) string {
	if size <= 0 {
		size = 64
	}
	if url, ok := c.Get(username); ok {
		return url
	}
	key := avatarKey(username)
	if key == "" {
		return ""
	}
	url := fmt.Sprintf("https://minotar.net/avatar/%s/%d.png", key, size)
	c.Set(username, url)
	return url
}

func (c *AvatarCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AvatarCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.cachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func avatarKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
