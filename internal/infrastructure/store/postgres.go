package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-catalog/internal/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recipeRow 資料表 recipes
type recipeRow struct {
	ID           string              `gorm:"primaryKey;type:varchar(64)"`
	Name         string              `gorm:"not null"`
	SourceType   string              `gorm:"type:varchar(16);not null"`
	SourceURL    *string             `gorm:"column:source_url"`
	SourceImage  *string             `gorm:"column:source_image"`
	Ingredients  []common.Ingredient `gorm:"serializer:json;type:jsonb"`
	Origin       string              `gorm:"type:varchar(32);index"`
	Exclusions   []string            `gorm:"serializer:json;type:jsonb"`
	CookTime     *int                `gorm:"column:cook_time"`
	Instructions string              `gorm:"type:text"`
	Notes        string              `gorm:"type:text"`
	CreatedAt    time.Time           `gorm:"autoCreateTime:false;index"`
	UpdatedAt    *time.Time          `gorm:"autoUpdateTime:false"`
}

func (recipeRow) TableName() string {
	return "recipes"
}

func rowFrom(r *common.Recipe) *recipeRow {
	return &recipeRow{
		ID:           r.ID,
		Name:         r.Name,
		SourceType:   string(r.SourceType),
		SourceURL:    r.SourceURL,
		SourceImage:  r.SourceImage,
		Ingredients:  r.Ingredients,
		Origin:       r.Origin,
		Exclusions:   r.Exclusions,
		CookTime:     r.CookTime,
		Instructions: r.Instructions,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (row *recipeRow) recipe() *common.Recipe {
	r := &common.Recipe{
		ID:           row.ID,
		Name:         row.Name,
		SourceType:   common.SourceType(row.SourceType),
		SourceURL:    row.SourceURL,
		SourceImage:  row.SourceImage,
		Ingredients:  row.Ingredients,
		Origin:       row.Origin,
		Exclusions:   row.Exclusions,
		CookTime:     row.CookTime,
		Instructions: row.Instructions,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if r.Ingredients == nil {
		r.Ingredients = []common.Ingredient{}
	}
	if r.Exclusions == nil {
		r.Exclusions = []string{}
	}
	return r
}

// PostgresStore 以 gorm 存取 PostgreSQL
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore 創建 PostgreSQL 儲存，autoMigrate 時建立資料表
func NewPostgresStore(db *gorm.DB, autoMigrate bool) (*PostgresStore, error) {
	if autoMigrate {
		if err := db.AutoMigrate(&recipeRow{}); err != nil {
			return nil, fmt.Errorf("migrate recipes: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

// List 依來源過濾（資料庫端），其他條件由服務層處理
func (s *PostgresStore) List(ctx context.Context, origin string) ([]*common.Recipe, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if origin != "" {
		q = q.Where("origin = ?", origin)
	}

	var rows []recipeRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*common.Recipe, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].recipe())
	}
	return out, nil
}

// Get 取得單筆食譜
func (s *PostgresStore) Get(ctx context.Context, id string) (*common.Recipe, error) {
	var row recipeRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, err
	}
	return row.recipe(), nil
}

// Create 指派 id 與 createdAt 後寫入
func (s *PostgresStore) Create(ctx context.Context, r *common.Recipe) (*common.Recipe, error) {
	stored := r.Clone()
	stored.ID = common.GenerateUUID()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = nil

	if err := s.db.WithContext(ctx).Create(rowFrom(stored)).Error; err != nil {
		return nil, err
	}
	return stored, nil
}

// Update 在交易中鎖定資料列後套用更新
func (s *PostgresStore) Update(ctx context.Context, id string, patch common.RecipePatch) (*common.Recipe, error) {
	var updated *common.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row recipeRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrRecipeNotFound
			}
			return err
		}

		current := row.recipe()
		patch.Apply(current)
		now := time.Now().UTC()
		current.UpdatedAt = &now

		if err := tx.Save(rowFrom(current)).Error; err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 刪除食譜
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&recipeRow{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrRecipeNotFound
	}
	return nil
}

// Close 關閉連線池
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seed 以固定 id 寫入，已存在時略過
func (s *PostgresStore) Seed(ctx context.Context, recipes ...*common.Recipe) error {
	for _, r := range recipes {
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(rowFrom(r)).Error
		if err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.ID, err)
		}
	}
	return nil
}
