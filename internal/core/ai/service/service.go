package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-catalog/internal/core/ai/anthropic"
	"recipe-catalog/internal/core/ai/cache"
	"recipe-catalog/internal/core/ai/gemini"
	"recipe-catalog/internal/core/ai/openrouter"
	"recipe-catalog/internal/core/ai/provider"
	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"go.uber.org/zap"
)

// Routes 各用途使用的提供者
type Routes struct {
	Text   provider.Analyzer
	Vision provider.Analyzer
	OCR    provider.Analyzer
}

// Service AI 服務：依用途路由並快取原始回應
type Service struct {
	routes Routes
	cache  cache.Cache
}

// NewService 創建 AI 服務；c 可為 nil
func NewService(routes Routes, c cache.Cache) *Service {
	return &Service{
		routes: routes,
		cache:  c,
	}
}

// NewFromConfig 依設定建立提供者並組裝服務
func NewFromConfig(ctx context.Context, cfg *config.Config, c cache.Cache) (*Service, error) {
	gem, err := gemini.NewClient(ctx, &cfg.Gemini)
	if err != nil {
		return nil, err
	}
	providers := map[string]provider.Analyzer{
		"anthropic":  anthropic.NewClient(&cfg.Anthropic),
		"gemini":     gem,
		"openrouter": openrouter.NewClient(&cfg.OpenRouter),
	}

	pick := func(name string) (provider.Analyzer, error) {
		p, ok := providers[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		return p, nil
	}

	var routes Routes
	if routes.Text, err = pick(cfg.AI.TextProvider); err != nil {
		return nil, err
	}
	if routes.Vision, err = pick(cfg.AI.VisionProvider); err != nil {
		return nil, err
	}
	if routes.OCR, err = pick(cfg.AI.OCRProvider); err != nil {
		return nil, err
	}

	common.LogInfo("AI 服務已初始化",
		zap.String("text", routes.Text.Name()),
		zap.String("vision", routes.Vision.Name()),
		zap.String("ocr", routes.OCR.Name()),
	)
	return NewService(routes, c), nil
}

// Text 文字分析（貼文說明）
func (s *Service) Text() provider.TextAnalyzer {
	return &roleAnalyzer{svc: s, role: provider.RoleText, p: s.routes.Text}
}

// Vision 成品照片分析（貼文縮圖）
func (s *Service) Vision() provider.ImageAnalyzer {
	return &roleAnalyzer{svc: s, role: provider.RoleVision, p: s.routes.Vision}
}

// OCR 手寫食譜辨識
func (s *Service) OCR() provider.ImageAnalyzer {
	return &roleAnalyzer{svc: s, role: provider.RoleOCR, p: s.routes.OCR}
}

type roleAnalyzer struct {
	svc  *Service
	role provider.Role
	p    provider.Analyzer
}

func (r *roleAnalyzer) AnalyzeText(ctx context.Context, prompt string) (string, error) {
	key := common.HashKey(string(r.role), r.p.Name(), prompt)
	return r.svc.cached(ctx, key, r.role, r.p.Name(), func() (string, error) {
		return r.p.AnalyzeText(ctx, prompt)
	})
}

func (r *roleAnalyzer) AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	key := common.HashKey(string(r.role), r.p.Name(), prompt, mimeType, common.HashBytes(data))
	return r.svc.cached(ctx, key, r.role, r.p.Name(), func() (string, error) {
		return r.p.AnalyzeImage(ctx, prompt, data, mimeType)
	})
}

// cached 快取命中時不呼叫模型；快取錯誤只記錄不中斷
func (s *Service) cached(ctx context.Context, key string, role provider.Role, name string, call func() (string, error)) (string, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, key)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("快取讀取失敗", zap.Error(err))
		}
	}

	start := time.Now()
	content, err := call()
	common.LogAICall(name, string(role), time.Since(start), err)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content); err != nil {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}
	return content, nil
}

// Close 關閉快取
func (s *Service) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
