package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&config.InstagramConfig{
		OEmbedURL: srv.URL + "/oembed",
		UserAgent: "test",
		Timeout:   5 * time.Second,
		MaxBytes:  1 << 20,
	})
}

func TestResolveUsesOEmbed(t *testing.T) {
	var pageHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			assert.Contains(t, r.URL.Query().Get("url"), "/p/abc/")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"title":"Carbonara: guanciale, eggs","author_name":"chef","thumbnail_url":"https://cdn.example.com/c.jpg"}`)
		default:
			pageHits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	post, err := newTestClient(srv).Resolve(context.Background(), srv.URL+"/p/abc/")
	require.NoError(t, err)
	assert.Equal(t, "Carbonara: guanciale, eggs", post.Caption)
	assert.Equal(t, "chef", post.Author)
	assert.Equal(t, "https://cdn.example.com/c.jpg", post.ThumbnailURL)
	assert.Zero(t, pageHits.Load())
}

func TestResolveFallsBackToPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			w.WriteHeader(http.StatusForbidden)
		case "/p/abc/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head>
<meta property="og:description" content="Tom yum &amp; rice">
<meta property="og:image" content="https://cdn.example.com/t.jpg">
</head></html>`)
		}
	}))
	defer srv.Close()

	post, err := newTestClient(srv).Resolve(context.Background(), srv.URL+"/p/abc/")
	require.NoError(t, err)
	assert.Equal(t, "Tom yum & rice", post.Caption)
	assert.Equal(t, "https://cdn.example.com/t.jpg", post.ThumbnailURL)
}

func TestResolveBothFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	post, err := newTestClient(srv).Resolve(context.Background(), srv.URL+"/p/abc/")
	require.NoError(t, err)
	assert.True(t, post.Empty())
	assert.Equal(t, srv.URL+"/p/abc/", post.URL)
}

func TestValidateURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "instagram.com/p/abc", "ftp://instagram.com/p/abc", "https://"} {
		_, err := ValidateURL(raw)
		assert.True(t, common.IsValidationError(err), raw)
	}

	u, err := ValidateURL(" https://www.instagram.com/reel/xyz/ ")
	require.NoError(t, err)
	assert.Equal(t, "www.instagram.com", u.Host)
}
