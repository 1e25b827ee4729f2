package news

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/qenanews/cardbot/internal/rss"
	"github.com/qenanews/cardbot/internal/scraper"
)

// Article is a feed item cleaned up for the card and the caption.
type Article struct {
	Title     string
	Summary   string
	Link      string
	ImageURL  string
	Published time.Time
	Feed      rss.Feed
	Hash      string
}

// FromItem builds an article from a feed item. The summary falls back to
// the item content; the image is the first <img> of the raw summary, then
// the feed image, then an image enclosure.
func FromItem(item *gofeed.Item, feed rss.Feed) Article {
	raw := item.Description
	if strings.TrimSpace(raw) == "" {
		raw = item.Content
	}

	a := Article{
		Title:    scraper.CleanText(item.Title),
		Summary:  scraper.CleanText(raw),
		Link:     strings.TrimSpace(item.Link),
		ImageURL: scraper.FirstImage(raw),
		Feed:     feed,
	}
	if a.ImageURL == "" && item.Content != "" && item.Content != raw {
		a.ImageURL = scraper.FirstImage(item.Content)
	}
	if a.ImageURL == "" && item.Image != nil {
		a.ImageURL = item.Image.URL
	}
	if a.ImageURL == "" {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				a.ImageURL = enc.URL
				break
			}
		}
	}
	if item.PublishedParsed != nil {
		a.Published = *item.PublishedParsed
	}
	a.Hash = Hash(TitleKey(item.Title))
	return a
}

var tagPattern = regexp.MustCompile(`<.*?>`)

// TitleKey is the title as the dedup log has always keyed it: tags removed
// and outer whitespace trimmed, entities and inner spacing left alone.
func TitleKey(raw string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(raw, ""))
}

// Hash is the dedup key of a title: the hex MD5 of its UTF-8 bytes.
func Hash(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])
}

// Excerpt returns the first n words of text followed by an ellipsis.
func Excerpt(text string, n int) string {
	words := strings.Fields(text)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ") + "..."
}

// Caption joins the post caption: title, body and link separated by blank
// lines. Empty parts are left out.
func Caption(title, body, link string) string {
	var parts []string
	for _, p := range []string{title, body, link} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
