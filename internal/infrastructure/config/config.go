package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Store       StoreConfig      `mapstructure:"store"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Postgres    PostgresConfig   `mapstructure:"postgres"`
	AI          AIConfig         `mapstructure:"ai"`
	Anthropic   AnthropicConfig  `mapstructure:"anthropic"`
	Gemini      GeminiConfig     `mapstructure:"gemini"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Instagram   InstagramConfig  `mapstructure:"instagram"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig 食譜儲存設定
type StoreConfig struct {
	// Backend: memory | redis | postgres
	Backend string `mapstructure:"backend"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PostgresConfig PostgreSQL 連線設定
type PostgresConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AIConfig 模型路由設定
type AIConfig struct {
	// 可選 anthropic | gemini | openrouter
	TextProvider   string `mapstructure:"text_provider"`
	VisionProvider string `mapstructure:"vision_provider"`
	OCRProvider    string `mapstructure:"ocr_provider"`
}

// AnthropicConfig Anthropic 配置
type AnthropicConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// InstagramConfig Instagram 貼文解析設定
type InstagramConfig struct {
	OEmbedURL string        `mapstructure:"oembed_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend: memory | redis
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// StorageConfig 照片物件儲存設定
type StorageConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Prefix        string `mapstructure:"prefix"`
}

// CatalogConfig 食譜目錄行為設定
type CatalogConfig struct {
	DeleteGrace time.Duration `mapstructure:"delete_grace"`
	SeedDemo    bool          `mapstructure:"seed_demo"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"anthropic.api_key":    "ANTHROPIC_API_KEY",
		"anthropic.model":      "ANTHROPIC_MODEL",
		"gemini.api_key":       "GOOGLE_AI_API_KEY",
		"gemini.model":         "GEMINI_MODEL",
		"openrouter.api_key":   "OPENROUTER_API_KEY",
		"openrouter.model":     "OPENROUTER_MODEL",
		"store.backend":        "STORE_BACKEND",
		"redis.addr":           "REDIS_ADDR",
		"redis.password":       "REDIS_PASSWORD",
		"postgres.dsn":         "DATABASE_DSN",
		"storage.enabled":      "S3_ENABLED",
		"storage.bucket":       "S3_BUCKET",
		"storage.region":       "S3_REGION",
		"storage.endpoint":     "S3_ENDPOINT",
		"storage.access_key":   "S3_ACCESS_KEY",
		"storage.secret_key":   "S3_SECRET_KEY",
		"cache.enabled":        "CACHE_ENABLED",
		"rate_limit.enabled":   "RATE_LIMIT_ENABLED",
		"catalog.delete_grace": "DELETE_GRACE",
		"dedup_window":         "DEDUP_WINDOW",
		"log_level":            "LOG_LEVEL",
		"server.port":          "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 讀取設定檔（選用）
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&config)

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-catalog")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.max_body_bytes", 15<<20)
	v.SetDefault("server.shutdown_timeout", "10s")

	// 儲存設定
	v.SetDefault("store.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recepty")
	v.SetDefault("postgres.auto_migrate", true)

	// 模型設定
	v.SetDefault("ai.text_provider", "anthropic")
	v.SetDefault("ai.vision_provider", "gemini")
	v.SetDefault("ai.ocr_provider", "anthropic")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.timeout", "60s")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 2000)
	v.SetDefault("openrouter.timeout", "60s")

	// Instagram 設定
	v.SetDefault("instagram.oembed_url", "https://api.instagram.com/oembed")
	v.SetDefault("instagram.user_agent", "Mozilla/5.0 (compatible; recipe-catalog/1.0)")
	v.SetDefault("instagram.timeout", "15s")
	v.SetDefault("instagram.max_bytes", 10<<20)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	// 物件儲存
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.region", "eu-central-1")
	v.SetDefault("storage.prefix", "recipes")

	// 目錄設定
	v.SetDefault("catalog.delete_grace", "5s")
	v.SetDefault("catalog.seed_demo", false)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// normalize 統一大小寫與空白
func normalize(config *Config) {
	config.Store.Backend = strings.ToLower(strings.TrimSpace(config.Store.Backend))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))
	config.AI.TextProvider = strings.ToLower(strings.TrimSpace(config.AI.TextProvider))
	config.AI.VisionProvider = strings.ToLower(strings.TrimSpace(config.AI.VisionProvider))
	config.AI.OCRProvider = strings.ToLower(strings.TrimSpace(config.AI.OCRProvider))
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證儲存設定
	switch config.Store.Backend {
	case "memory", "redis":
	case "postgres":
		if config.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn is required for postgres store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}

	// 驗證模型路由
	for role, name := range map[string]string{
		"text":   config.AI.TextProvider,
		"vision": config.AI.VisionProvider,
		"ocr":    config.AI.OCRProvider,
	} {
		if !isKnownProvider(name) {
			return fmt.Errorf("unknown %s provider %q", role, name)
		}
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	if config.Storage.Enabled && config.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required when storage is enabled")
	}

	if config.Catalog.DeleteGrace <= 0 {
		return fmt.Errorf("invalid delete grace window")
	}

	return nil
}

func isKnownProvider(name string) bool {
	switch name {
	case "anthropic", "gemini", "openrouter":
		return true
	}
	return false
}

// Default 回傳只含預設值的設定（測試與 CLI 使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config defaults are not decodable: %v", err))
	}
	normalize(&config)
	return &config
}
