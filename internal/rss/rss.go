package rss

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/qenanews/cardbot/internal/logger"
	"gopkg.in/yaml.v3"
)

// Feed is one category feed and the card style used for its items.
type Feed struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Image     string `yaml:"image"`      // overlay image path
	TextColor string `yaml:"text_color"` // headline fill, name or #rrggbb
}

// FeedsConfig is YAML config structure
// feeds:
//   - name: اخبار قنا
//     url: https://...
//     image: assets/qena.png
//     text_color: white
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

const blog = "https://qenanews-24.blogspot.com/feeds/posts/default/-/"

// DefaultFeeds are the Qena News categories used when no feeds file exists.
var DefaultFeeds = []Feed{
	{Name: "اخبار قنا", URL: blog + "اخبار%20قنا?alt=rss", Image: "assets/qena.png", TextColor: "white"},
	{Name: "حوادث", URL: blog + "حوادث?alt=rss", Image: "assets/news.png", TextColor: "white"},
	{Name: "برلمان 25", URL: blog + "برلمان%2025?alt=rss", Image: "assets/barlman.png", TextColor: "white"},
	{Name: "رياضة", URL: blog + "رياضة?alt=rss", Image: "assets/sport.png", TextColor: "black"},
	{Name: "علوم وتكنولوجيا", URL: blog + "علوم%20وتكنولوجيا?alt=rss", Image: "assets/tecno.png", TextColor: "black"},
	{Name: "صحة وفن", URL: blog + "صحة%20وفن?alt=rss", Image: "assets/art.png", TextColor: "black"},
}

// LoadFeeds reads the feed list from a YAML file. A missing file yields
// DefaultFeeds.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Warn("feeds file not found, using defaults", "path", path)
		return DefaultFeeds, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode feeds %s: %w", path, err)
	}
	for i, feed := range cfg.Feeds {
		if feed.URL == "" {
			return nil, fmt.Errorf("feed %d (%s) has no url", i, feed.Name)
		}
		if cfg.Feeds[i].TextColor == "" {
			cfg.Feeds[i].TextColor = "white"
		}
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds in %s", path)
	}
	return cfg.Feeds, nil
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "cardbot/1.0"
	return &Fetcher{parser: parser}
}

// Fetch returns the items of the feed at url in feed order.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]*gofeed.Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	logger.Debug("feed loaded", "url", url, "items", len(feed.Items))
	return feed.Items, nil
}
