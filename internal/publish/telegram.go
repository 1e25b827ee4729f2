package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/qenanews/cardbot/internal/retry"
)

// telegramCaptionRunes is the sendPhoto caption limit.
const telegramCaptionRunes = 1024

// Telegram sends photos to a chat or channel.
type Telegram struct {
	BaseURL string // e.g. https://api.telegram.org
	Token   string
	ChatID  string
	Client  *http.Client
	Retry   retry.RetryConfig
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Name() string { return "telegram" }

// Publish uploads the card with sendPhoto. Captions over the Telegram limit
// are cut.
func (t *Telegram) Publish(ctx context.Context, p Post) (string, error) {
	url := fmt.Sprintf("%s/bot%s/sendPhoto", strings.TrimRight(t.BaseURL, "/"), t.Token)
	caption := p.Caption
	if r := []rune(caption); len(r) > telegramCaptionRunes {
		caption = string(r[:telegramCaptionRunes])
	}
	body := form{
		fields: [][2]string{
			{"chat_id", t.ChatID},
			{"caption", caption},
		},
		file:     "photo",
		filename: p.Filename,
		data:     p.Image,
	}

	var out telegramResponse
	if err := upload(ctx, client(t.Client), t.Retry, url, body, &out, telegramMessage); err != nil {
		return "", fmt.Errorf("telegram publish: %w", err)
	}
	if !out.OK {
		return "", fmt.Errorf("telegram publish: %s", out.Description)
	}
	return strconv.Itoa(out.Result.MessageID), nil
}

func telegramMessage(data []byte) string {
	var r telegramResponse
	if json.Unmarshal(data, &r) == nil && r.Description != "" {
		return r.Description
	}
	return string(data)
}
