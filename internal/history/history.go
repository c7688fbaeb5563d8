package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/raine/facegrade/internal/analysis"
)

// maxItems bounds the cache. Appending beyond the cap evicts the oldest
// item, never the one just added.
const maxItems = 50

// Item pairs a captured image reference with its analysis result. Items are
// immutable once created and only removed by clearing the whole cache.
type Item struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	ImageURI  string          `json:"imageUri"`
	Result    analysis.Result `json:"result"`
}

// Stats are derived read-only figures for presentation.
type Stats struct {
	Count        int
	AverageScore float64
	LastWeek     int
}

// Cache is a bounded, newest-first list of past results kept on device,
// independent of server connectivity. The in-memory list and the file are
// kept consistent after every mutation; a crash in between loses at most
// the most recent append. Append is not safe against concurrent mutation of
// the same file from two processes.
type Cache struct {
	path string

	mu     sync.Mutex
	items  []Item
	lastID int64
	now    func() time.Time
}

// NewCache creates a cache persisted at path. Call Load to read any
// existing items.
func NewCache(path string) *Cache {
	return &Cache{path: path, now: time.Now}
}

// Load reads the persisted list into memory. A missing file leaves the list
// empty, which is not an error.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}
	c.items = items
	for _, item := range items {
		if id, err := strconv.ParseInt(item.ID, 10, 64); err == nil && id > c.lastID {
			c.lastID = id
		}
	}
	return nil
}

// Append prepends a new item, truncates to the newest 50, and flushes to
// disk. The in-memory list is updated even if the flush fails.
func (c *Cache) Append(imageURI string, result *analysis.Result) (*Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowMs := c.now().UnixMilli()
	// IDs are creation-time derived and must be unique and non-decreasing,
	// even for appends landing on the same millisecond
	id := nowMs
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id

	item := Item{
		ID:        strconv.FormatInt(id, 10),
		Timestamp: nowMs,
		ImageURI:  imageURI,
		Result:    *result,
	}

	c.items = append([]Item{item}, c.items...)
	if len(c.items) > maxItems {
		c.items = c.items[:maxItems]
	}

	if err := c.flush(); err != nil {
		return &item, err
	}
	return &item, nil
}

// Clear deletes the persisted list and empties memory. Irreversible.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Items returns a copy of the newest-first list.
func (c *Cache) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

// Stats computes the derived figures over all cached items at call time.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Count: len(c.items)}
	if len(c.items) == 0 {
		return stats
	}

	weekAgo := c.now().UnixMilli() - 7*24*time.Hour.Milliseconds()
	var total float64
	for _, item := range c.items {
		total += item.Result.OverallScore
		if item.Timestamp >= weekAgo {
			stats.LastWeek++
		}
	}
	stats.AverageScore = total / float64(len(c.items))
	return stats
}

func (c *Cache) flush() error {
	data, err := json.Marshal(c.items)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
