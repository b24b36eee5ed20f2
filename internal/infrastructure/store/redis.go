package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-catalog/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore 以 JSON 文件存放於 Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore 創建 Redis 儲存；client 由呼叫端關閉
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":recipes"
}

func (s *RedisStore) recipeKey(id string) string {
	return fmt.Sprintf("%s:recipe:%s", s.prefix, id)
}

// List 讀取索引中的所有文件
func (s *RedisStore) List(ctx context.Context, origin string) ([]*common.Recipe, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	if len(ids) == 0 {
		return []*common.Recipe{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recipeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	out := make([]*common.Recipe, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// 索引中殘留已刪除的 id
			continue
		}
		var r common.Recipe
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode recipe: %w", err)
		}
		if origin != "" && r.Origin != origin {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

// Get 取得單筆食譜
func (s *RedisStore) Get(ctx context.Context, id string) (*common.Recipe, error) {
	return s.get(ctx, s.client, id)
}

func (s *RedisStore) get(ctx context.Context, c redis.Cmdable, id string) (*common.Recipe, error) {
	raw, err := c.Get(ctx, s.recipeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	var r common.Recipe
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	return &r, nil
}

// Create 指派 id 與 createdAt 後寫入
func (s *RedisStore) Create(ctx context.Context, r *common.Recipe) (*common.Recipe, error) {
	stored := r.Clone()
	stored.ID = common.GenerateUUID()
	stored.CreatedAt = s.now()
	stored.UpdatedAt = nil

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recipeKey(stored.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), stored.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return stored, nil
}

// Update 以 WATCH 保護讀取-修改-寫入
func (s *RedisStore) Update(ctx context.Context, id string, patch common.RecipePatch) (*common.Recipe, error) {
	key := s.recipeKey(id)
	var updated *common.Recipe

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(current)
		now := s.now()
		current.UpdatedAt = &now

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode recipe: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = current
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, common.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return updated, nil
}

// Delete 刪除文件與索引
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recipeKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if del.Val() == 0 {
		return common.ErrRecipeNotFound
	}
	return nil
}

// Close 連線由建立者關閉
func (s *RedisStore) Close() error {
	return nil
}

// Seed 以固定 id 寫入（示範資料）
func (s *RedisStore) Seed(ctx context.Context, recipes ...*common.Recipe) error {
	for _, r := range recipes {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode recipe: %w", err)
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, s.recipeKey(r.ID), data, 0)
			pipe.SAdd(ctx, s.indexKey(), r.ID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.ID, err)
		}
	}
	return nil
}
