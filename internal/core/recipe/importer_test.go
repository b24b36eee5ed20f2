package recipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-catalog/internal/core/instagram"
	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	drafts    []common.RecipeDraft
	attachErr error
	attached  []string
}

func (f *fakeCatalog) Create(_ context.Context, draft common.RecipeDraft) (*common.Recipe, error) {
	f.drafts = append(f.drafts, draft)
	r := common.NewRecipe(draft)
	r.ID = "r1"
	r.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return r, nil
}

func (f *fakeCatalog) AttachPhoto(_ context.Context, id string, _ []byte, contentType, ext string) (*common.Recipe, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.attached = append(f.attached, contentType+ext)
	url := "https://photos.example.com/" + id + ext
	r := common.NewRecipe(f.drafts[len(f.drafts)-1])
	r.ID = id
	r.SourceImage = &url
	return r, nil
}

func TestImportInstagramWithCaption(t *testing.T) {
	text := &fakeText{reply: captionReply}
	cat := &fakeCatalog{}
	imp := NewImporter(NewExtractor(text, &fakeImage{}, &fakeImage{}, &fakePosts{err: errors.New("must not resolve")}, &fakeFetcher{}), cat)

	r, err := imp.ImportInstagram(context.Background(), " https://www.instagram.com/p/abc/ ", "Pad thai: eggs...")
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", r.Name)
	assert.Equal(t, common.SourceInstagram, r.SourceType)
	require.NotNil(t, r.SourceURL)
	assert.Equal(t, "https://www.instagram.com/p/abc/", *r.SourceURL)
	assert.Equal(t, "thajske", r.Origin)
	assert.Equal(t, []string{"laktoza"}, r.Exclusions)
}

func TestImportInstagramFromPost(t *testing.T) {
	posts := &fakePosts{post: &instagram.Post{Caption: "caption", ThumbnailURL: "https://cdn.example.com/t.jpg"}}
	cat := &fakeCatalog{}
	imp := NewImporter(NewExtractor(&fakeText{reply: captionReply}, &fakeImage{reply: imageReply}, &fakeImage{}, posts, &fakeFetcher{}), cat)

	r, err := imp.ImportInstagram(context.Background(), "https://www.instagram.com/p/abc/", "")
	require.NoError(t, err)
	require.NotNil(t, r.SourceImage)
	assert.Equal(t, "https://cdn.example.com/t.jpg", *r.SourceImage)
}

func TestImportInstagramNeedsManualEntry(t *testing.T) {
	posts := &fakePosts{post: &instagram.Post{}}
	cat := &fakeCatalog{}
	imp := NewImporter(NewExtractor(&fakeText{}, &fakeImage{}, &fakeImage{}, posts, &fakeFetcher{}), cat)

	_, err := imp.ImportInstagram(context.Background(), "https://www.instagram.com/p/abc/", "")
	assert.ErrorIs(t, err, common.ErrManualEntryRequired)
	assert.Empty(t, cat.drafts)

	_, err = imp.ImportInstagram(context.Background(), "", "")
	assert.True(t, common.IsValidationError(err))
}

func TestImportInstagramCaptionFallsBackToDefaultName(t *testing.T) {
	tests := []struct {
		name string
		text *fakeText
	}{
		{"upstream failure", &fakeText{err: errors.New("upstream down")}},
		{"unparseable reply", &fakeText{reply: "no recipe here"}},
		{"empty name", &fakeText{reply: `{"name":"","ingredients":[{"name":"rýže","key":true}]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &fakeCatalog{}
			imp := NewImporter(NewExtractor(tt.text, &fakeImage{}, &fakeImage{}, &fakePosts{err: errors.New("must not resolve")}, &fakeFetcher{}), cat)

			r, err := imp.ImportInstagram(context.Background(), "https://www.instagram.com/p/abc/", "user pasted caption")
			require.NoError(t, err)
			require.Len(t, cat.drafts, 1)
			assert.Equal(t, InstagramFallbackName, r.Name)
			assert.Equal(t, common.SourceInstagram, r.SourceType)
			require.NotNil(t, r.SourceURL)
			assert.Equal(t, "https://www.instagram.com/p/abc/", *r.SourceURL)
			assert.Equal(t, int32(1), tt.text.calls.Load())
		})
	}
}

func TestImportPhoto(t *testing.T) {
	t.Run("fallback name and attached photo", func(t *testing.T) {
		ocr := &fakeImage{reply: `{"name":"","ingredients":["mouka"],"instructions":"Smíchat."}`}
		cat := &fakeCatalog{}
		imp := NewImporter(NewExtractor(&fakeText{}, &fakeImage{}, ocr, &fakePosts{}, &fakeFetcher{}), cat)

		r, err := imp.ImportPhoto(context.Background(), samplePhoto())
		require.NoError(t, err)
		assert.Equal(t, PhotoFallbackName, r.Name)
		assert.Equal(t, common.SourceHandwritten, r.SourceType)
		require.NotNil(t, r.SourceImage)
		assert.Equal(t, "https://photos.example.com/r1.jpg", *r.SourceImage)
		assert.Equal(t, []string{"image/jpeg.jpg"}, cat.attached)
	})

	t.Run("upload failure keeps the recipe", func(t *testing.T) {
		ocr := &fakeImage{reply: `{"name":"Buchty"}`}
		cat := &fakeCatalog{attachErr: errors.New("s3 down")}
		imp := NewImporter(NewExtractor(&fakeText{}, &fakeImage{}, ocr, &fakePosts{}, &fakeFetcher{}), cat)

		r, err := imp.ImportPhoto(context.Background(), samplePhoto())
		require.NoError(t, err)
		assert.Equal(t, "Buchty", r.Name)
		assert.Nil(t, r.SourceImage)
	})

	t.Run("storage disabled", func(t *testing.T) {
		ocr := &fakeImage{reply: "unreadable"}
		cat := &fakeCatalog{attachErr: common.ErrStorageDisabled}
		imp := NewImporter(NewExtractor(&fakeText{}, &fakeImage{}, ocr, &fakePosts{}, &fakeFetcher{}), cat)

		r, err := imp.ImportPhoto(context.Background(), samplePhoto())
		require.NoError(t, err)
		assert.Equal(t, PhotoFallbackName, r.Name)
		assert.Equal(t, "unreadable", r.Instructions)
		assert.Equal(t, ManualFixNote, r.Notes)
	})
}
