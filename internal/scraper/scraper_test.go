package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"افتتاح   مدرسة\nجديدة", "افتتاح مدرسة جديدة"},
		{"<p>حادث <b>سير</b></p>", "حادث سير"},
		{"سطر<br>سطر", "سطر سطر"},
		{"A &amp; B", "A & B"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), tt.in)
	}
}

func TestFirstImage(t *testing.T) {
	html := `<div><a href="x"><img alt="" src="https://example.com/1.jpg"/></a><img src="https://example.com/2.jpg"/></div>`
	assert.Equal(t, "https://example.com/1.jpg", FirstImage(html))
	assert.Equal(t, "", FirstImage("no images here"))
}

func TestPageImagePrefersOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/og":
			_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.example.com/og.jpg"></head><body><article><img src="/body.jpg"></article></body></html>`))
		case "/body":
			_, _ = w.Write([]byte(`<html><body><div class="post-body"><img src="/img/body.jpg"></div></body></html>`))
		default:
			_, _ = w.Write([]byte(`<html><body><p>text</p></body></html>`))
		}
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	src, err := c.PageImage(context.Background(), srv.URL+"/og")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/og.jpg", src)

	src, err = c.PageImage(context.Background(), srv.URL+"/body")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/img/body.jpg", src)

	_, err = c.PageImage(context.Background(), srv.URL+"/none")
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("imagebytes"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	data, err := c.Download(context.Background(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "imagebytes", string(data))

	_, err = c.Download(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}
