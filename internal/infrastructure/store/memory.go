package store

import (
	"context"
	"sync"
	"time"

	"recipe-catalog/internal/pkg/common"
)

// MemoryStore 記憶體食譜儲存（未設定資料庫時使用）
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[string]*common.Recipe
	now     func() time.Time
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipes: make(map[string]*common.Recipe),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock 替換時間來源
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// List 回傳所有食譜的複本
func (s *MemoryStore) List(_ context.Context, origin string) ([]*common.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*common.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if origin != "" && r.Origin != origin {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// Get 取得單筆食譜
func (s *MemoryStore) Get(_ context.Context, id string) (*common.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, common.ErrRecipeNotFound
	}
	return r.Clone(), nil
}

// Create 指派 id 與 createdAt 後寫入
func (s *MemoryStore) Create(_ context.Context, r *common.Recipe) (*common.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := r.Clone()
	stored.ID = common.GenerateUUID()
	stored.CreatedAt = s.now()
	stored.UpdatedAt = nil
	s.recipes[stored.ID] = stored
	return stored.Clone(), nil
}

// Update 套用部分更新
func (s *MemoryStore) Update(_ context.Context, id string, patch common.RecipePatch) (*common.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.recipes[id]
	if !ok {
		return nil, common.ErrRecipeNotFound
	}
	updated := current.Clone()
	patch.Apply(updated)
	now := s.now()
	updated.UpdatedAt = &now
	s.recipes[id] = updated
	return updated.Clone(), nil
}

// Delete 刪除食譜
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return common.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}

// Seed 以固定 id 與建立時間寫入（示範資料）
func (s *MemoryStore) Seed(recipes ...*common.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recipes {
		s.recipes[r.ID] = r.Clone()
	}
}
