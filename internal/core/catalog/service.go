package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"recipe-catalog/internal/core/seen"
	"recipe-catalog/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PendingDelete 延遲刪除的回應
type PendingDelete struct {
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
	GraceMs int64  `json:"graceMs"`
}

// Service 食譜目錄服務：驗證、過濾、排序與延遲刪除
type Service struct {
	store       Store
	tracker     seen.Tracker
	photos      PhotoStore
	photoPrefix string
	deleter     *Scheduler
	validate    *validator.Validate
}

// NewService 創建目錄服務；tracker 與 photos 可為 nil
func NewService(store Store, tracker seen.Tracker, photos PhotoStore, photoPrefix string, grace time.Duration) *Service {
	s := &Service{
		store:       store,
		tracker:     tracker,
		photos:      photos,
		photoPrefix: photoPrefix,
		validate:    validator.New(),
	}
	s.deleter = NewScheduler(grace, func(ctx context.Context, id string) error {
		return s.store.Delete(ctx, id)
	})
	return s
}

// List 取得過濾後的食譜，新到舊排序；等待刪除的食譜不會出現
func (s *Service) List(ctx context.Context, filters common.ListFilters, clientID string) ([]*common.Recipe, error) {
	all, err := s.store.List(ctx, strings.ToLower(strings.TrimSpace(filters.Origin)))
	if err != nil {
		return nil, common.WrapStoreError("list", err)
	}

	pending := s.deleter.PendingIDs()
	visible := make([]*common.Recipe, 0, len(all))
	for _, r := range all {
		if _, ok := pending[r.ID]; !ok {
			visible = append(visible, r)
		}
	}

	out := Filter(visible, filters)
	SortNewest(out)

	if clientID != "" && s.tracker != nil {
		seenIDs, err := s.tracker.Seen(ctx, clientID)
		if err != nil {
			common.LogWarn("讀取已看過清單失敗", zap.String("client", clientID), zap.Error(err))
		} else {
			for _, r := range out {
				_, ok := seenIDs[r.ID]
				isNew := !ok
				r.IsNew = &isNew
			}
		}
	}
	return out, nil
}

// Get 取得單筆食譜，並為客戶端標記已看過
func (s *Service) Get(ctx context.Context, id, clientID string) (*common.Recipe, error) {
	if s.deleter.IsPending(id) {
		return nil, common.ErrRecipeNotFound
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, common.WrapStoreError("get", err)
	}
	if clientID != "" {
		s.markSeen(ctx, clientID, id)
	}
	return r, nil
}

// MarkSeen 標記客戶端已看過
func (s *Service) MarkSeen(ctx context.Context, id, clientID string) error {
	if clientID == "" {
		return common.NewValidationError("X-Client-ID header is required")
	}
	if _, err := s.Get(ctx, id, ""); err != nil {
		return err
	}
	s.markSeen(ctx, clientID, id)
	return nil
}

func (s *Service) markSeen(ctx context.Context, clientID, id string) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.MarkSeen(ctx, clientID, id); err != nil {
		common.LogWarn("標記已看過失敗", zap.String("client", clientID), zap.String("id", id), zap.Error(err))
	}
}

// Create 驗證後建立食譜；id 與 createdAt 由儲存層指派
func (s *Service) Create(ctx context.Context, draft common.RecipeDraft) (*common.Recipe, error) {
	draft.Normalize()
	if err := s.check(draft); err != nil {
		return nil, err
	}

	r, err := s.store.Create(ctx, common.NewRecipe(draft))
	if err != nil {
		return nil, common.WrapStoreError("create", err)
	}
	common.LogInfo("食譜已建立", zap.String("id", r.ID), zap.String("source", string(r.SourceType)))
	return r, nil
}

// Update 套用部分更新；不會修改 id 與 createdAt
func (s *Service) Update(ctx context.Context, id string, patch common.RecipePatch) (*common.Recipe, error) {
	patch.Normalize()
	if patch.Name != nil && *patch.Name == "" {
		return nil, common.NewValidationError("Name is required")
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}
	if s.deleter.IsPending(id) {
		return nil, common.ErrRecipeNotFound
	}

	r, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, common.WrapStoreError("update", err)
	}
	return r, nil
}

// Delete 立即刪除；同時取消等待中的延遲刪除
func (s *Service) Delete(ctx context.Context, id string) error {
	s.deleter.Cancel(id)
	if err := s.store.Delete(ctx, id); err != nil {
		return common.WrapStoreError("delete", err)
	}
	common.LogInfo("食譜已刪除", zap.String("id", id))
	return nil
}

// ScheduleDelete 隱藏食譜並在寬限時間後刪除
func (s *Service) ScheduleDelete(ctx context.Context, id string) (*PendingDelete, error) {
	if !s.deleter.IsPending(id) {
		if _, err := s.store.Get(ctx, id); err != nil {
			return nil, common.WrapStoreError("get", err)
		}
	}

	h, err := s.deleter.Schedule(id)
	if err != nil {
		return nil, err
	}
	return &PendingDelete{
		ID:      h.ID(),
		Pending: true,
		GraceMs: s.deleter.Grace().Milliseconds(),
	}, nil
}

// Restore 在寬限時間內取消刪除
func (s *Service) Restore(ctx context.Context, id string) (*common.Recipe, error) {
	if !s.deleter.Cancel(id) {
		return nil, common.ErrNotPending
	}
	return s.Get(ctx, id, "")
}

// AttachPhoto 上傳照片並設定為食譜的 sourceImage
func (s *Service) AttachPhoto(ctx context.Context, id string, data []byte, contentType, ext string) (*common.Recipe, error) {
	if s.photos == nil {
		return nil, common.ErrStorageDisabled
	}
	if _, err := s.Get(ctx, id, ""); err != nil {
		return nil, err
	}

	key := path.Join(s.photoPrefix, id, common.GenerateUUID()+ext)
	url, err := s.photos.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	return s.Update(ctx, id, common.RecipePatch{SourceImage: &url})
}

// PhotosEnabled 是否設定了物件儲存
func (s *Service) PhotosEnabled() bool {
	return s.photos != nil
}

// Close 執行所有等待中的刪除後關閉儲存層
func (s *Service) Close() error {
	s.deleter.Flush()
	return s.store.Close()
}

// check 以 validator 驗證並轉為 ValidationError
func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return common.NewValidationError(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		if fe.Field() == "Name" {
			return common.NewValidationError("Name is required")
		}
		return common.NewValidationError(fmt.Sprintf("%s is required", fe.Namespace()))
	case "oneof":
		return common.NewValidationError(fmt.Sprintf("%s has unsupported value %q", fe.Namespace(), fe.Value()))
	default:
		return common.NewValidationError(fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
	}
}
