package seen

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Tracker 記錄每個客戶端看過的食譜
type Tracker interface {
	MarkSeen(ctx context.Context, clientID, recipeID string) error
	Seen(ctx context.Context, clientID string) (map[string]struct{}, error)
}

// MemoryTracker 記憶體實作
type MemoryTracker struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewMemoryTracker 創建記憶體實作
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{sets: make(map[string]map[string]struct{})}
}

// MarkSeen 標記已看過
func (t *MemoryTracker) MarkSeen(_ context.Context, clientID, recipeID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.sets[clientID]
	if !ok {
		set = make(map[string]struct{})
		t.sets[clientID] = set
	}
	set[recipeID] = struct{}{}
	return nil
}

// Seen 回傳已看過的 id 集合（複本）
func (t *MemoryTracker) Seen(_ context.Context, clientID string) (map[string]struct{}, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]struct{}, len(t.sets[clientID]))
	for id := range t.sets[clientID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// RedisTracker 以 Redis set 保存，跨重啟保留
type RedisTracker struct {
	client *redis.Client
	prefix string
}

// NewRedisTracker 創建 Redis 實作
func NewRedisTracker(client *redis.Client, prefix string) *RedisTracker {
	return &RedisTracker{client: client, prefix: prefix}
}

// MarkSeen 標記已看過
func (t *RedisTracker) MarkSeen(ctx context.Context, clientID, recipeID string) error {
	if err := t.client.SAdd(ctx, t.key(clientID), recipeID).Err(); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// Seen 回傳已看過的 id 集合
func (t *RedisTracker) Seen(ctx context.Context, clientID string) (map[string]struct{}, error) {
	ids, err := t.client.SMembers(ctx, t.key(clientID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load seen: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (t *RedisTracker) key(clientID string) string {
	return fmt.Sprintf("%s:seen:%s", t.prefix, clientID)
}
