package responder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

const replyCachePrefix = "triage:reply:"

// ReplyCache memoizes confident AI replies for a bounded time. Expire drops
// an entry the confidence gate no longer accepts.
type ReplyCache interface {
	Get(ctx context.Context, key string) (triage.AIReply, bool, error)
	Put(ctx context.Context, key string, reply triage.AIReply) error
	Expire(ctx context.Context, key string) error
}

// CacheKey hashes the normalized message with the snapshot signature, so any
// change to the project figures produces a new key.
func CacheKey(message string, snapshot triage.ProjectSnapshot) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + snapshot.Signature()))
	return hex.EncodeToString(sum[:])
}

type cachedReply struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// RedisReplyCache stores replies as JSON strings with a TTL.
type RedisReplyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReplyCache(client *redis.Client, ttl time.Duration) *RedisReplyCache {
	if client == nil {
		panic("responder: redis client cannot be nil")
	}
	return &RedisReplyCache{client: client, ttl: ttl}
}

func (c *RedisReplyCache) Get(ctx context.Context, key string) (triage.AIReply, bool, error) {
	data, err := c.client.Get(ctx, replyCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return triage.AIReply{}, false, nil
		}
		return triage.AIReply{}, false, fmt.Errorf("responder: read reply cache: %w", err)
	}
	var entry cachedReply
	if err := json.Unmarshal(data, &entry); err != nil {
		return triage.AIReply{}, false, fmt.Errorf("responder: decode cached reply: %w", err)
	}
	return triage.AIReply{Text: entry.Text, Confidence: entry.Confidence}, true, nil
}

func (c *RedisReplyCache) Put(ctx context.Context, key string, reply triage.AIReply) error {
	data, err := json.Marshal(cachedReply{Text: reply.Text, Confidence: reply.Confidence})
	if err != nil {
		return fmt.Errorf("responder: encode cached reply: %w", err)
	}
	if err := c.client.Set(ctx, replyCachePrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("responder: write reply cache: %w", err)
	}
	return nil
}

func (c *RedisReplyCache) Expire(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, replyCachePrefix+key).Err(); err != nil {
		return fmt.Errorf("responder: expire cached reply: %w", err)
	}
	return nil
}

type memoryEntry struct {
	reply     triage.AIReply
	expiresAt time.Time
}

const defaultMemoryCacheEntries = 1000

// MemoryReplyCache is the in-process cache for local runs on in-memory
// stores. Expired entries are swept on every Put and the map never holds more
// than maxEntries; the entry closest to expiry is evicted first.
type MemoryReplyCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryEntry
	now        func() time.Time
}

// NewMemoryReplyCache keeps entries for ttl; zero means until evicted.
func NewMemoryReplyCache(ttl time.Duration) *MemoryReplyCache {
	return &MemoryReplyCache{
		ttl:        ttl,
		maxEntries: defaultMemoryCacheEntries,
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
	}
}

func (c *MemoryReplyCache) Get(ctx context.Context, key string) (triage.AIReply, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return triage.AIReply{}, false, nil
	}
	if c.ttl > 0 && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return triage.AIReply{}, false, nil
	}
	return entry.reply, true, nil
}

func (c *MemoryReplyCache) Put(ctx context.Context, key string, reply triage.AIReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweep(now)
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.entries[key] = memoryEntry{reply: reply, expiresAt: now.Add(c.ttl)}
	return nil
}

func (c *MemoryReplyCache) sweep(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryReplyCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(oldest) {
			oldestKey, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryReplyCache) Expire(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// NoopReplyCache disables caching.
type NoopReplyCache struct{}

func (NoopReplyCache) Get(context.Context, string) (triage.AIReply, bool, error) {
	return triage.AIReply{}, false, nil
}
func (NoopReplyCache) Put(context.Context, string, triage.AIReply) error { return nil }
func (NoopReplyCache) Expire(context.Context, string) error              { return nil }
