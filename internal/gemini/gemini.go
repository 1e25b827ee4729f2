package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/qenanews/cardbot/internal/logger"
	"google.golang.org/api/option"
)

// maxSummaryRunes keeps captions well under the Facebook caption limit.
const maxSummaryRunes = 600

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Summarize returns a short Arabic summary of an article for the post
// caption.
func (c *Client) Summarize(ctx context.Context, title, content string) (string, error) {
	model := c.client.GenerativeModel(c.model)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(title, content)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return parseSummary(b.String())
}

func buildPrompt(title, content string) string {
	content = strings.Join(strings.Fields(content), " ")
	maxChars := 4000
	if utf8.RuneCountInString(content) > maxChars {
		content = string([]rune(content)[:maxChars])
	}

	return fmt.Sprintf(`لخص الخبر التالي باللغة العربية في جملتين أو ثلاث جمل واضحة.

العنوان: %s
النص: %s

المتطلبات:
- لا تضف معلومات غير موجودة في النص.
- لا تستخدم عبارات افتتاحية مثل "يتحدث الخبر عن".
- أجب بالصيغة التالية فقط:

الملخص: <الملخص>
`, title, content)
}

var summaryLabel = regexp.MustCompile(`^\s*(الملخص|ملخص|SUMMARY)\s*[:：]\s*`)

// parseSummary extracts the labelled summary from a model response. An
// unlabelled response is taken whole.
func parseSummary(response string) (string, error) {
	var b strings.Builder
	inSummary := false
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if summaryLabel.MatchString(line) {
			inSummary = true
			line = summaryLabel.ReplaceAllString(line, "")
		}
		if !inSummary {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(line)
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		logger.Debug("unlabelled Gemini response, using it whole")
		summary = strings.Join(strings.Fields(response), " ")
	}
	if summary == "" {
		return "", fmt.Errorf("could not parse Gemini response: empty summary")
	}
	if utf8.RuneCountInString(summary) > maxSummaryRunes {
		summary = string([]rune(summary)[:maxSummaryRunes]) + "..."
	}
	return summary, nil
}
