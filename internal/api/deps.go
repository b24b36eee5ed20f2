package api

import (
	"context"
	"errors"
	"fmt"

	"recipe-catalog/internal/api/handlers/health"
	"recipe-catalog/internal/api/middleware"
	"recipe-catalog/internal/core/ai/cache"
	"recipe-catalog/internal/core/ai/service"
	"recipe-catalog/internal/core/catalog"
	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/core/instagram"
	"recipe-catalog/internal/core/recipe"
	"recipe-catalog/internal/core/seen"
	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/infrastructure/database"
	"recipe-catalog/internal/infrastructure/storage"
	"recipe-catalog/internal/infrastructure/store"
	"recipe-catalog/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Catalog   *catalog.Service
	Extractor *recipe.Extractor
	Importer  *recipe.Importer
	Images    *image.Service
	AI        *service.Service
	Dedup     *middleware.Deduplicator
	Checks    map[string]health.Check

	closers []func() error
}

// BuildDependencies 依設定組裝儲存層、AI 服務與目錄服務
func BuildDependencies(ctx context.Context, cfg *config.Config) (deps *Dependencies, err error) {
	deps = &Dependencies{Checks: map[string]health.Check{}}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	// Redis 在儲存、快取使用時才連線
	var rdb *redis.Client
	if cfg.Store.Backend == "redis" || (cfg.Cache.Enabled && cfg.Cache.Backend == "redis") {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return deps, fmt.Errorf("failed to connect redis: %w", err)
		}
		deps.Checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
		common.LogInfo("Redis 已連線", zap.String("addr", cfg.Redis.Addr))
	}

	var photos catalog.PhotoStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3Store(ctx, &cfg.Storage)
		if err != nil {
			return deps, err
		}
		photos = s3Store
	}

	recipes, err := buildStore(ctx, cfg, rdb, deps)
	if err != nil {
		return deps, err
	}

	var tracker seen.Tracker = seen.NewMemoryTracker()
	if rdb != nil {
		tracker = seen.NewRedisTracker(rdb, cfg.Redis.KeyPrefix)
	}

	deps.Catalog = catalog.NewService(recipes, tracker, photos, cfg.Storage.Prefix, cfg.Catalog.DeleteGrace)
	deps.closers = append(deps.closers, deps.Catalog.Close)

	// 模型回應快取
	var responses cache.Cache
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			responses = cache.NewRedisCache(rdb, cfg.Redis.KeyPrefix, cfg.Cache.TTL)
		default:
			responses = cache.NewManager(&cfg.Cache)
		}
	}
	deps.AI, err = service.NewFromConfig(ctx, cfg, responses)
	if err != nil {
		if responses != nil {
			_ = responses.Close()
		}
		return deps, fmt.Errorf("failed to initialize AI service: %w", err)
	}
	deps.closers = append(deps.closers, deps.AI.Close)

	deps.Images = image.NewService(cfg.Image.MaxSizeBytes)
	posts := instagram.NewClient(&cfg.Instagram)
	deps.Extractor = recipe.NewExtractor(deps.AI.Text(), deps.AI.Vision(), deps.AI.OCR(), posts, deps.Images)
	deps.Importer = recipe.NewImporter(deps.Extractor, deps.Catalog)

	deps.Dedup = middleware.NewDeduplicator(cfg.DedupWindow)
	deps.closers = append(deps.closers, func() error {
		deps.Dedup.Close()
		return nil
	})

	common.LogInfo("服務初始化完成",
		zap.String("store", cfg.Store.Backend),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("photos_enabled", deps.Catalog.PhotosEnabled()),
	)
	return deps, nil
}

func buildStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, deps *Dependencies) (catalog.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		s := store.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		if cfg.Catalog.SeedDemo {
			if err := s.Seed(ctx, store.DemoRecipes()...); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "postgres":
		db, err := database.ConnectPostgres(&cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := store.NewPostgresStore(db, cfg.Postgres.AutoMigrate)
		if err != nil {
			return nil, err
		}
		deps.Checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
		if cfg.Catalog.SeedDemo {
			if err := s.Seed(ctx, store.DemoRecipes()...); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil

	default:
		s := store.NewMemoryStore()
		if cfg.Catalog.SeedDemo {
			s.Seed(store.DemoRecipes()...)
		}
		return s, nil
	}
}

// Close 依建立的反向順序關閉資源
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
