package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// PostedArticle is one entry of the dedup log.
type PostedArticle struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
	PostedAt time.Time `json:"posted_at"`
	Target   string    `json:"target"`
}

// FileCache keeps the dedup log in a JSON file. Legacy logs with one hash
// per line are accepted on Load and rewritten as JSON on the next Save.
type FileCache struct {
	filePath string
	ttlHours int // 0 keeps entries forever
	items    map[string]PostedArticle
	mu       sync.RWMutex
	now      func() time.Time
}

// NewFileCache creates a new file cache instance
func NewFileCache(filePath string, ttlHours int) *FileCache {
	return &FileCache{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]PostedArticle),
		now:      time.Now,
	}
}

// Load loads existing cache from file
func (fc *FileCache) Load() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	data, err := os.ReadFile(fc.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var items []PostedArticle
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to unmarshal cache: %w", err)
		}
	} else {
		items = parseLegacy(data)
	}

	for _, item := range items {
		if !fc.expired(item) {
			fc.items[item.Hash] = item
		}
	}
	return nil
}

func parseLegacy(data []byte) []PostedArticle {
	var items []PostedArticle
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if h := strings.TrimSpace(sc.Text()); h != "" {
			items = append(items, PostedArticle{Hash: h})
		}
	}
	return items
}

// Save saves current cache to file, oldest entry first.
func (fc *FileCache) Save() error {
	fc.mu.RLock()
	items := make([]PostedArticle, 0, len(fc.items))
	for _, item := range fc.items {
		items = append(items, item)
	}
	fc.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].PostedAt.Equal(items[j].PostedAt) {
			return items[i].PostedAt.Before(items[j].PostedAt)
		}
		return items[i].Hash < items[j].Hash
	})

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp := fc.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, fc.filePath); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// IsPosted reports whether hash is in the log and not expired.
func (fc *FileCache) IsPosted(_ context.Context, hash string) (bool, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	item, exists := fc.items[hash]
	return exists && !fc.expired(item), nil
}

// MarkPosted records an article and persists the log.
func (fc *FileCache) MarkPosted(_ context.Context, item PostedArticle) error {
	fc.mu.Lock()
	if item.PostedAt.IsZero() {
		item.PostedAt = fc.now()
	}
	fc.items[item.Hash] = item
	fc.mu.Unlock()

	return fc.Save()
}

// Cleanup removes expired items from memory
func (fc *FileCache) Cleanup() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	removed := 0
	for hash, item := range fc.items {
		if fc.expired(item) {
			delete(fc.items, hash)
			removed++
		}
	}
	return removed
}

// GetStats returns cache statistics
func (fc *FileCache) GetStats() map[string]int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return map[string]int{
		"total_items": len(fc.items),
	}
}

// expired treats legacy entries without a timestamp as permanent.
func (fc *FileCache) expired(item PostedArticle) bool {
	if fc.ttlHours <= 0 || item.PostedAt.IsZero() {
		return false
	}
	return item.PostedAt.Before(fc.now().Add(-time.Duration(fc.ttlHours) * time.Hour))
}
