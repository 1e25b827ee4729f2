// Package publish uploads a rendered card with its caption to a social
// platform.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"

	"github.com/qenanews/cardbot/internal/logger"
	"github.com/qenanews/cardbot/internal/retry"
)

// Post is one image post.
type Post struct {
	Caption  string
	Image    []byte // PNG
	Filename string
}

// Publisher posts cards. Publish returns the platform id of the new post.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, p Post) (string, error)
}

// DryRun logs posts instead of sending them.
type DryRun struct{}

func (DryRun) Name() string { return "none" }

func (DryRun) Publish(_ context.Context, p Post) (string, error) {
	logger.Info("dry run, post not sent", "caption_runes", len([]rune(p.Caption)), "image_bytes", len(p.Image))
	return "", nil
}

// form is a multipart request body.
type form struct {
	fields   [][2]string
	file     string // field name of the file part
	filename string
	data     []byte
}

func (f form) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	filename := f.filename
	if filename == "" {
		filename = "card.png"
	}
	part, err := w.CreateFormFile(f.file, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// upload posts f to url and decodes the JSON response into out, retrying
// 5xx responses, 429 and connection failures. Timeouts are not retried since
// the photo may have been posted; 4xx responses fail at once. apiErr
// extracts the platform's error message from the body.
func upload(ctx context.Context, client *http.Client, cfg retry.RetryConfig, url string, f form, out any, apiErr func([]byte) string) error {
	return retry.WithRetry(ctx, cfg, func() error {
		body, contentType, err := f.encode()
		if err != nil {
			return retry.Permanent(fmt.Errorf("error build form: %w", err))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error HTTP request: %w", err)
			if maybeDelivered(err) {
				// the platform may have created the post already
				return retry.Permanent(err)
			}
			return err
		}
		defer func(Body io.ReadCloser) {
			if err := Body.Close(); err != nil {
				logger.Warn("failed to close response body", "error", err)
			}
		}(resp.Body)

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.Permanent(fmt.Errorf("error read response: %w", err))
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("API error: status %d: %s", resp.StatusCode, apiErr(data))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return retry.Permanent(fmt.Errorf("error decode response: %w", err))
		}
		return nil
	})
}

// maybeDelivered reports whether a failed request could have reached the
// server and been processed.
func maybeDelivered(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
