package catalog

import (
	"context"

	"recipe-catalog/internal/pkg/common"
)

// Store 食譜持久化
//
// 實作負責指派 id 與 createdAt（建立時）以及 updatedAt（更新時），
// 找不到資料時回傳 common.ErrRecipeNotFound。
type Store interface {
	// List 回傳全部食譜；origin 非空時可只回傳該來源
	List(ctx context.Context, origin string) ([]*common.Recipe, error)
	Get(ctx context.Context, id string) (*common.Recipe, error)
	// Create 忽略 r 上已有的 id 與 createdAt
	Create(ctx context.Context, r *common.Recipe) (*common.Recipe, error)
	// Update 套用 patch，不得修改 id 與 createdAt
	Update(ctx context.Context, id string, patch common.RecipePatch) (*common.Recipe, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// PhotoStore 照片物件儲存
type PhotoStore interface {
	// Put 上傳後回傳公開網址
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
