package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/qenanews/cardbot/internal/retry"
)

// Facebook uploads photos to a page through the Graph API.
type Facebook struct {
	BaseURL string // e.g. https://graph.facebook.com/v19.0
	PageID  string
	Token   string
	Client  *http.Client
	Retry   retry.RetryConfig
}

type graphResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (f *Facebook) Name() string { return "facebook" }

// Publish posts the card to /{page}/photos with the caption.
func (f *Facebook) Publish(ctx context.Context, p Post) (string, error) {
	url := fmt.Sprintf("%s/%s/photos", strings.TrimRight(f.BaseURL, "/"), f.PageID)
	body := form{
		fields: [][2]string{
			{"access_token", f.Token},
			{"caption", p.Caption},
		},
		file:     "source",
		filename: p.Filename,
		data:     p.Image,
	}

	var out graphResponse
	if err := upload(ctx, client(f.Client), f.Retry, url, body, &out, graphMessage); err != nil {
		return "", fmt.Errorf("facebook publish: %w", err)
	}
	if out.PostID != "" {
		return out.PostID, nil
	}
	return out.ID, nil
}

func graphMessage(data []byte) string {
	var e graphError
	if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
		return fmt.Sprintf("%s (%s %d)", e.Error.Message, e.Error.Type, e.Error.Code)
	}
	return string(data)
}

func client(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
