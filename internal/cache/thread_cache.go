package cache

import (
	"fmt"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for different cache types
const (
	ThreadWindowTTL = 5 * time.Minute
	SummaryTTL      = 30 * time.Minute
)

// ThreadCache holds the recent message window and the RAG summary per thread.
// All methods are nil-safe so the service layer works without Redis.
type ThreadCache struct {
	redis *RedisCache
}

func NewThreadCache(redis *RedisCache) *ThreadCache {
	return &ThreadCache{redis: redis}
}

func threadKey(threadID uint) string {
	return fmt.Sprintf("thread:%d", threadID)
}

func summaryKey(itemID uint) string {
	return fmt.Sprintf("summary:%d", itemID)
}

// GetMessages retrieves the cached recent-message window for a thread.
func (tc *ThreadCache) GetMessages(threadID uint) ([]models.Message, bool) {
	if tc == nil || tc.redis == nil {
		return nil, false
	}
	data, err := tc.redis.Get(threadKey(threadID))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

// SetMessages caches the recent-message window for a thread.
func (tc *ThreadCache) SetMessages(threadID uint, messages []models.Message) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}
	return tc.redis.Set(threadKey(threadID), data, ThreadWindowTTL)
}

// InvalidateMessages drops the cached window, e.g. after a post or delete.
func (tc *ThreadCache) InvalidateMessages(threadID uint) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	return tc.redis.Delete(threadKey(threadID))
}

// GetSummary retrieves a cached thread summary.
func (tc *ThreadCache) GetSummary(itemID uint) (string, bool) {
	if tc == nil || tc.redis == nil {
		return "", false
	}
	data, err := tc.redis.Get(summaryKey(itemID))
	if err != nil || data == nil {
		return "", false
	}

	var summary string
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		return "", false
	}
	return summary, true
}

// SetSummary caches a thread summary.
func (tc *ThreadCache) SetSummary(itemID uint, summary string) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summary)
	if err != nil {
		return err
	}
	return tc.redis.Set(summaryKey(itemID), data, SummaryTTL)
}

// InvalidateSummary drops a cached summary after the thread changes.
func (tc *ThreadCache) InvalidateSummary(itemID uint) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	return tc.redis.Delete(summaryKey(itemID))
}
