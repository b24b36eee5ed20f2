package recipe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/core/instagram"
	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeText struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeText) AnalyzeText(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

type fakeImage struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeImage) AnalyzeImage(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

type fakePosts struct {
	post *instagram.Post
	err  error
}

func (f *fakePosts) Resolve(_ context.Context, postURL string) (*instagram.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.post
	p.URL = postURL
	return &p, nil
}

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*image.Photo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &image.Photo{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg", Format: "jpeg"}, nil
}

const captionReply = `{"name":"Pad Thai","ingredients":[{"name":"Eggs","key":true}],"origin":"thajske","instructions":"Fry.","exclusions":["laktoza"],"notes":""}`

const imageReply = "```json\n" + `{"name":"Noodles","ingredients":[{"name":"eggs","key":false},{"name":"Peanuts","key":false}],"origin":null,"instructions":"","exclusions":[],"notes":"guess"}` + "\n```"

func samplePhoto() *image.Photo {
	return &image.Photo{Data: []byte("photo"), MimeType: "image/jpeg"}
}

func TestFromCaption(t *testing.T) {
	text := &fakeText{reply: captionReply}
	x := NewExtractor(text, &fakeImage{}, &fakeImage{}, &fakePosts{}, &fakeFetcher{})

	got, err := x.FromCaption(context.Background(), "Pad thai recipe...", "chef")
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", got.Name)

	_, err = x.FromCaption(context.Background(), "   ", "")
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, int32(1), text.calls.Load())
}

func TestFromCaptionUpstreamFailure(t *testing.T) {
	x := NewExtractor(&fakeText{err: errors.New("rate limited")}, &fakeImage{}, &fakeImage{}, &fakePosts{}, &fakeFetcher{})

	_, err := x.FromCaption(context.Background(), "caption", "")
	var upstream *common.UpstreamExtractionError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "caption", upstream.Source)
}

func TestFromHandwrittenDegradesOnGarbage(t *testing.T) {
	ocr := &fakeImage{reply: "Babiččiny buchty: mouka, mléko, droždí..."}
	x := NewExtractor(&fakeText{}, &fakeImage{}, ocr, &fakePosts{}, &fakeFetcher{})

	got, err := x.FromHandwritten(context.Background(), samplePhoto())
	require.NoError(t, err)
	assert.Empty(t, got.Name)
	assert.Equal(t, "Babiččiny buchty: mouka, mléko, droždí...", got.Instructions)
	assert.Equal(t, ManualFixNote, got.Notes)
	assert.Empty(t, got.Ingredients)
}

func TestFromHandwrittenErrors(t *testing.T) {
	x := NewExtractor(&fakeText{}, &fakeImage{}, &fakeImage{err: errors.New("overloaded")}, &fakePosts{}, &fakeFetcher{})

	_, err := x.FromHandwritten(context.Background(), nil)
	assert.True(t, common.IsValidationError(err))

	_, err = x.FromHandwritten(context.Background(), samplePhoto())
	assert.True(t, common.IsUpstreamError(err))
}

func TestFromInstagramMergesBothSources(t *testing.T) {
	posts := &fakePosts{post: &instagram.Post{Caption: "caption", ThumbnailURL: "https://cdn.example.com/t.jpg"}}
	x := NewExtractor(&fakeText{reply: captionReply}, &fakeImage{reply: imageReply}, &fakeImage{}, posts, &fakeFetcher{})

	got, err := x.FromInstagram(context.Background(), "https://www.instagram.com/p/abc/")
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", got.Name)
	assert.Equal(t, []common.Ingredient{
		{Name: "Eggs", Key: true},
		{Name: "Peanuts", Key: false},
	}, got.Ingredients)
	assert.Equal(t, "guess", got.Notes)
	assert.Equal(t, "https://cdn.example.com/t.jpg", got.ImageURL)
}

func TestFromInstagramOneSourceFails(t *testing.T) {
	posts := &fakePosts{post: &instagram.Post{Caption: "caption", ThumbnailURL: "https://cdn.example.com/t.jpg"}}

	t.Run("text fails", func(t *testing.T) {
		x := NewExtractor(&fakeText{err: errors.New("down")}, &fakeImage{reply: imageReply}, &fakeImage{}, posts, &fakeFetcher{})
		got, err := x.FromInstagram(context.Background(), "https://www.instagram.com/p/abc/")
		require.NoError(t, err)
		assert.Equal(t, "Noodles", got.Name)
	})

	t.Run("thumbnail download fails", func(t *testing.T) {
		vision := &fakeImage{reply: imageReply}
		x := NewExtractor(&fakeText{reply: captionReply}, vision, &fakeImage{}, posts, &fakeFetcher{err: errors.New("403")})
		got, err := x.FromInstagram(context.Background(), "https://www.instagram.com/p/abc/")
		require.NoError(t, err)
		assert.Equal(t, "Pad Thai", got.Name)
		assert.Equal(t, int32(0), vision.calls.Load())
	})

	t.Run("both fail", func(t *testing.T) {
		x := NewExtractor(&fakeText{reply: "nope"}, &fakeImage{err: errors.New("down")}, &fakeImage{}, posts, &fakeFetcher{})
		got, err := x.FromInstagram(context.Background(), "https://www.instagram.com/p/abc/")
		require.NoError(t, err)
		assert.Empty(t, got.Name)
		assert.Empty(t, got.Ingredients)
		assert.Equal(t, "https://cdn.example.com/t.jpg", got.ImageURL)
	})
}

func TestFromInstagramNothingResolved(t *testing.T) {
	text := &fakeText{reply: captionReply}
	x := NewExtractor(text, &fakeImage{}, &fakeImage{}, &fakePosts{post: &instagram.Post{}}, &fakeFetcher{})

	got, err := x.FromInstagram(context.Background(), "https://www.instagram.com/p/abc/")
	require.NoError(t, err)
	assert.Equal(t, Empty(), got)
	assert.Equal(t, int32(0), text.calls.Load())
}

func TestFromInstagramInvalidURL(t *testing.T) {
	x := NewExtractor(&fakeText{}, &fakeImage{}, &fakeImage{}, &fakePosts{err: common.NewValidationError("URL must be an absolute http(s) URL")}, &fakeFetcher{})

	_, err := x.FromInstagram(context.Background(), "not a url")
	assert.True(t, common.IsValidationError(err))
}
