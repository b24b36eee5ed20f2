package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeBase64(t *testing.T) {
	svc := NewService(1 << 20)
	raw := tinyPNG(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("data url", func(t *testing.T) {
		photo, err := svc.DecodeBase64("data:image/png;base64,"+encoded, "")
		require.NoError(t, err)
		assert.Equal(t, raw, photo.Data)
		assert.Equal(t, "image/png", photo.MimeType)
		assert.Equal(t, "png", photo.Format)
		assert.Equal(t, ".png", photo.Extension())
	})

	t.Run("detected format wins over declared type", func(t *testing.T) {
		photo, err := svc.DecodeBase64(encoded, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "image/png", photo.MimeType)
	})

	t.Run("unknown bytes keep declared type", func(t *testing.T) {
		photo, err := svc.DecodeBase64(base64.StdEncoding.EncodeToString([]byte("not an image")), "image/webp")
		require.NoError(t, err)
		assert.Equal(t, "image/webp", photo.MimeType)
		assert.Empty(t, photo.Format)
	})

	t.Run("missing padding", func(t *testing.T) {
		photo, err := svc.DecodeBase64(base64.RawStdEncoding.EncodeToString(raw), "")
		require.NoError(t, err)
		assert.Equal(t, raw, photo.Data)
	})

	for _, input := range []string{"", "   ", "%%%not-base64%%%"} {
		_, err := svc.DecodeBase64(input, "")
		assert.True(t, common.IsValidationError(err), input)
	}
}

func TestDecodeBase64TooLarge(t *testing.T) {
	svc := NewService(4)
	_, err := svc.DecodeBase64(base64.StdEncoding.EncodeToString([]byte("12345")), "")
	assert.True(t, common.IsValidationError(err))
}

func TestFromBytesDefaultsMimeType(t *testing.T) {
	photo, err := NewService(0).FromBytes([]byte("??"), "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.MimeType)
	assert.Equal(t, ".jpg", photo.Extension())
}

func TestFetch(t *testing.T) {
	raw := tinyPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/thumb.png" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	svc := NewService(1 << 20)
	photo, err := svc.Fetch(context.Background(), srv.URL+"/thumb.png")
	require.NoError(t, err)
	assert.Equal(t, raw, photo.Data)
	assert.Equal(t, "image/png", photo.MimeType)

	_, err = svc.Fetch(context.Background(), srv.URL+"/private.png")
	assert.Error(t, err)
}
