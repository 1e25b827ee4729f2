package publish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qenanews/cardbot/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}

func TestFacebookPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/12345/photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "secret", r.FormValue("access_token"))
		assert.Equal(t, "ق*تل شخص\n\nhttps://x", r.FormValue("caption"))

		f, hdr, err := r.FormFile("source")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(data))
		assert.Equal(t, "final.png", hdr.Filename)

		_, _ = w.Write([]byte(`{"id":"987","post_id":"12345_987"}`))
	}))
	defer srv.Close()

	fb := &Facebook{BaseURL: srv.URL + "/v19.0", PageID: "12345", Token: "secret", Retry: fastRetry}
	id, err := fb.Publish(context.Background(), Post{Caption: "ق*تل شخص\n\nhttps://x", Image: []byte("PNGDATA"), Filename: "final.png"})
	require.NoError(t, err)
	assert.Equal(t, "12345_987", id)
}

func TestFacebookClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	fb := &Facebook{BaseURL: srv.URL, PageID: "1", Token: "bad", Retry: fastRetry}
	_, err := fb.Publish(context.Background(), Post{Image: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token.")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFacebookServerErrorIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	fb := &Facebook{BaseURL: srv.URL, PageID: "1", Token: "t", Retry: fastRetry}
	id, err := fb.Publish(context.Background(), Post{Image: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFacebookTimeoutIsNotRetried(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	fb := &Facebook{
		BaseURL: srv.URL,
		PageID:  "1",
		Token:   "t",
		Client:  &http.Client{Timeout: 50 * time.Millisecond},
		Retry:   fastRetry,
	}
	_, err := fb.Publish(context.Background(), Post{Image: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFacebookConnectionRefusedIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	start := time.Now()
	fb := &Facebook{BaseURL: base, PageID: "1", Token: "t", Retry: retry.RetryConfig{MaxAttempts: 2, Delay: 20 * time.Millisecond}}
	_, err := fb.Publish(context.Background(), Post{Image: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTelegramPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendPhoto", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "@qena", r.FormValue("chat_id"))
		assert.Equal(t, telegramCaptionRunes, len([]rune(r.FormValue("caption"))))
		_, _, err := r.FormFile("photo")
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer srv.Close()

	tg := &Telegram{BaseURL: srv.URL, Token: "TOKEN", ChatID: "@qena", Retry: fastRetry}
	id, err := tg.Publish(context.Background(), Post{Caption: strings.Repeat("خ", 2000), Image: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "77", id)
}

func TestTelegramAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was kicked"}`))
	}))
	defer srv.Close()

	tg := &Telegram{BaseURL: srv.URL, Token: "T", ChatID: "1", Retry: fastRetry}
	_, err := tg.Publish(context.Background(), Post{Image: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was kicked")
}

func TestDryRun(t *testing.T) {
	id, err := DryRun{}.Publish(context.Background(), Post{Caption: "c"})
	assert.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, "none", DryRun{}.Name())
}
