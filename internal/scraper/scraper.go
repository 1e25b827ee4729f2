package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaxImageBytes caps downloaded article images.
const MaxImageBytes = 10 << 20

// blockBreaks keeps words on either side of a line or block break apart.
var blockBreaks = strings.NewReplacer("<br", " <br", "<BR", " <BR", "</p>", " </p>", "</div>", " </div>", "</li>", " </li>")

// CleanText strips markup from a feed title or summary and collapses
// whitespace.
func CleanText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blockBreaks.Replace(fragment)))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// FirstImage returns the src of the first <img> in an HTML fragment.
func FirstImage(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// Client fetches article pages and images.
type Client struct {
	http *http.Client
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Download fetches an image body, refusing anything over MaxImageBytes.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", rawURL, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", rawURL, MaxImageBytes)
	}
	return data, nil
}

// PageImage finds a representative image on an article page: og:image,
// twitter:image, then the first image inside the article body. Relative
// URLs are resolved against the page.
func (c *Client) PageImage(ctx context.Context, pageURL string) (string, error) {
	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	src := extractImage(doc)
	if src == "" {
		return "", fmt.Errorf("no image on %s", pageURL)
	}
	return resolve(pageURL, src), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "cardbot/1.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error %d for %s", resp.StatusCode, rawURL)
	}
	return resp, nil
}

// extractImage tries meta tags first, then common article selectors.
func extractImage(doc *goquery.Document) string {
	metas := []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	}
	for _, selector := range metas {
		if v, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	selectors := []string{
		".post-body img",
		"article img",
		".entry-content img",
		"main img",
	}
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr("src"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
