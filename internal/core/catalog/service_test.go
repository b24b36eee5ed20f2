package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"recipe-catalog/internal/core/seen"
	"recipe-catalog/internal/infrastructure/store"
	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhotos struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakePhotos) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://photos.example.com/" + key, nil
}

// newTestService 每次建立間隔一分鐘，排序可預期
func newTestService(t *testing.T, grace time.Duration, photos PhotoStore) *Service {
	t.Helper()
	mem := store.NewMemoryStore()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var n int
	mem.SetClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	})
	svc := NewService(mem, seen.NewMemoryTracker(), photos, "recipes", grace)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func mustCreate(t *testing.T, svc *Service, draft common.RecipeDraft) *common.Recipe {
	t.Helper()
	r, err := svc.Create(context.Background(), draft)
	require.NoError(t, err)
	return r
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc := newTestService(t, time.Second, nil)
	ctx := context.Background()

	created := mustCreate(t, svc, common.RecipeDraft{
		Name:        "  Guláš ",
		Ingredients: []common.Ingredient{{Name: "hovězí", Key: true}, {Name: " "}},
		Origin:      "Ceske",
		Exclusions:  []string{"Lepek", "lepek"},
		CookTime:    ptrInt(120),
	})
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, "Guláš", created.Name)
	assert.Equal(t, common.SourceManual, created.SourceType)
	assert.Equal(t, []common.Ingredient{{Name: "hovězí", Key: true}}, created.Ingredients)
	assert.Equal(t, "ceske", created.Origin)
	assert.Equal(t, []string{"lepek"}, created.Exclusions)

	got, err := svc.Get(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, time.Second, nil)

	_, err := svc.Create(context.Background(), common.RecipeDraft{Name: "   "})
	require.True(t, common.IsValidationError(err))
	assert.Equal(t, "Name is required", err.Error())

	_, err = svc.Create(context.Background(), common.RecipeDraft{Name: "Taco", Origin: "martian"})
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Create(context.Background(), common.RecipeDraft{Name: "Taco", Exclusions: []string{"herbs"}})
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Create(context.Background(), common.RecipeDraft{Name: "Taco", CookTime: ptrInt(-5)})
	assert.True(t, common.IsValidationError(err))
}

func TestUpdatePreservesIdentity(t *testing.T) {
	svc := newTestService(t, time.Second, nil)
	ctx := context.Background()
	created := mustCreate(t, svc, common.RecipeDraft{Name: "Pho", Notes: "old"})

	name := "Phở bò"
	notes := "new"
	updated, err := svc.Update(ctx, created.ID, common.RecipePatch{Name: &name, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "Phở bò", updated.Name)
	assert.Equal(t, "new", updated.Notes)
	require.NotNil(t, updated.UpdatedAt)

	empty := " "
	_, err = svc.Update(ctx, created.ID, common.RecipePatch{Name: &empty})
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Update(ctx, "missing", common.RecipePatch{Notes: &notes})
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t, time.Second, nil)
	ctx := context.Background()

	beef := mustCreate(t, svc, common.RecipeDraft{
		Name:        "Svíčková",
		Origin:      "ceske",
		Ingredients: []common.Ingredient{{Name: "Beef sirloin", Key: true}, {Name: "cream"}},
		Exclusions:  []string{"orechy"},
	})
	stew := mustCreate(t, svc, common.RecipeDraft{
		Name:        "BEEF stew",
		Origin:      "americke",
		Ingredients: []common.Ingredient{{Name: "potatoes", Key: true}},
		Exclusions:  []string{"lepek", "orechy"},
	})
	salad := mustCreate(t, svc, common.RecipeDraft{
		Name:        "Caprese",
		Origin:      "italske",
		Ingredients: []common.Ingredient{{Name: "tomato", Key: true}, {Name: "mozzarella"}},
		Exclusions:  []string{"lepek", "maso", "orechy"},
	})

	ids := func(rs []*common.Recipe) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	all, err := svc.List(ctx, common.ListFilters{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{salad.ID, stew.ID, beef.ID}, ids(all))

	bySearch, err := svc.List(ctx, common.ListFilters{Search: "beef"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{stew.ID, beef.ID}, ids(bySearch))

	byOrigin, err := svc.List(ctx, common.ListFilters{Origin: "italske"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{salad.ID}, ids(byOrigin))

	// 必須同時聲明所有選取的標籤
	byExclusions, err := svc.List(ctx, common.ListFilters{Exclusions: []string{"lepek", "orechy"}}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{salad.ID, stew.ID}, ids(byExclusions))

	byKey, err := svc.List(ctx, common.ListFilters{KeyIngredients: []string{"BEEF"}}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{beef.ID}, ids(byKey))

	// mozzarella 不是主要食材
	byNonKey, err := svc.List(ctx, common.ListFilters{KeyIngredients: []string{"mozzarella"}}, "")
	require.NoError(t, err)
	assert.Empty(t, byNonKey)
}

func TestListMarksNewPerClient(t *testing.T) {
	svc := newTestService(t, time.Second, nil)
	ctx := context.Background()
	a := mustCreate(t, svc, common.RecipeDraft{Name: "A"})
	b := mustCreate(t, svc, common.RecipeDraft{Name: "B"})

	_, err := svc.Get(ctx, a.ID, "client-1")
	require.NoError(t, err)

	list, err := svc.List(ctx, common.ListFilters{}, "client-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, *list[0].IsNew)
	assert.False(t, *list[1].IsNew)

	anonymous, err := svc.List(ctx, common.ListFilters{}, "")
	require.NoError(t, err)
	assert.Nil(t, anonymous[0].IsNew)

	require.NoError(t, svc.MarkSeen(ctx, b.ID, "client-1"))
	assert.True(t, common.IsValidationError(svc.MarkSeen(ctx, b.ID, "")))
	assert.ErrorIs(t, svc.MarkSeen(ctx, "missing", "client-1"), common.ErrRecipeNotFound)
}

func TestDeleteAndNotFound(t *testing.T) {
	svc := newTestService(t, time.Second, nil)
	ctx := context.Background()
	r := mustCreate(t, svc, common.RecipeDraft{Name: "Toast"})

	require.NoError(t, svc.Delete(ctx, r.ID))
	_, err := svc.Get(ctx, r.ID, "")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, r.ID), common.ErrRecipeNotFound)
}

func TestScheduleDeleteAndRestore(t *testing.T) {
	svc := newTestService(t, time.Hour, nil)
	ctx := context.Background()
	r := mustCreate(t, svc, common.RecipeDraft{Name: "Bramboráky"})

	pending, err := svc.ScheduleDelete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, &PendingDelete{ID: r.ID, Pending: true, GraceMs: time.Hour.Milliseconds()}, pending)

	// 等待刪除期間對外隱藏
	list, err := svc.List(ctx, common.ListFilters{}, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = svc.Get(ctx, r.ID, "")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)

	restored, err := svc.Restore(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, restored.ID)

	_, err = svc.Restore(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrNotPending)

	list, err = svc.List(ctx, common.ListFilters{}, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ScheduleDelete(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}

func TestScheduledDeleteFires(t *testing.T) {
	svc := newTestService(t, 20*time.Millisecond, nil)
	ctx := context.Background()
	r := mustCreate(t, svc, common.RecipeDraft{Name: "Knedlíky"})

	_, err := svc.ScheduleDelete(ctx, r.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !svc.deleter.IsPending(r.ID)
	}, time.Second, 5*time.Millisecond)

	_, err = svc.Get(ctx, r.ID, "")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
	_, err = svc.Restore(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrNotPending)
}

func TestCloseFlushesPendingDeletes(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewService(mem, nil, nil, "", time.Hour)
	ctx := context.Background()
	r := mustCreate(t, svc, common.RecipeDraft{Name: "Kulajda"})

	_, err := svc.ScheduleDelete(ctx, r.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	_, err = mem.Get(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}

func TestAttachPhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads and sets source image", func(t *testing.T) {
		photos := &fakePhotos{}
		svc := newTestService(t, time.Second, photos)
		r := mustCreate(t, svc, common.RecipeDraft{Name: "Buchty"})

		updated, err := svc.AttachPhoto(ctx, r.ID, []byte("jpeg"), "image/jpeg", ".jpg")
		require.NoError(t, err)
		require.Len(t, photos.keys, 1)
		assert.True(t, strings.HasPrefix(photos.keys[0], "recipes/"+r.ID+"/"))
		assert.True(t, strings.HasSuffix(photos.keys[0], ".jpg"))
		require.NotNil(t, updated.SourceImage)
		assert.Equal(t, "https://photos.example.com/"+photos.keys[0], *updated.SourceImage)
	})

	t.Run("storage disabled", func(t *testing.T) {
		svc := newTestService(t, time.Second, nil)
		r := mustCreate(t, svc, common.RecipeDraft{Name: "Buchty"})
		_, err := svc.AttachPhoto(ctx, r.ID, []byte("jpeg"), "image/jpeg", ".jpg")
		assert.ErrorIs(t, err, common.ErrStorageDisabled)
		assert.False(t, svc.PhotosEnabled())
	})

	t.Run("upload failure", func(t *testing.T) {
		svc := newTestService(t, time.Second, &fakePhotos{err: errors.New("denied")})
		r := mustCreate(t, svc, common.RecipeDraft{Name: "Buchty"})
		_, err := svc.AttachPhoto(ctx, r.ID, []byte("jpeg"), "image/jpeg", ".jpg")
		assert.Error(t, err)

		got, err := svc.Get(ctx, r.ID, "")
		require.NoError(t, err)
		assert.Nil(t, got.SourceImage)
	})
}

func ptrInt(v int) *int {
	return &v
}
