package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/qenanews/cardbot/internal/cache"
	"github.com/qenanews/cardbot/internal/card"
	"github.com/qenanews/cardbot/internal/layout"
	"github.com/qenanews/cardbot/internal/logger"
	"github.com/qenanews/cardbot/internal/metrics"
	"github.com/qenanews/cardbot/internal/news"
	"github.com/qenanews/cardbot/internal/obfuscate"
	"github.com/qenanews/cardbot/internal/publish"
	"github.com/qenanews/cardbot/internal/ratelimit"
	"github.com/qenanews/cardbot/internal/retry"
	"github.com/qenanews/cardbot/internal/rss"
	"github.com/qenanews/cardbot/internal/storage"
)

// DedupStore remembers which articles were posted. FileCache and
// PostgresCache implement it.
type DedupStore interface {
	IsPosted(ctx context.Context, hash string) (bool, error)
	MarkPosted(ctx context.Context, item storage.PostedArticle) error
}

// FeedFetcher loads the items of one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]*gofeed.Item, error)
}

// ImageSource downloads article photos.
type ImageSource interface {
	Download(ctx context.Context, url string) ([]byte, error)
	PageImage(ctx context.Context, pageURL string) (string, error)
}

// Summarizer writes a short caption body for an article.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// Bot posts at most one new article per run, trying the feeds in rotation.
type Bot struct {
	Feeds      []rss.Feed
	Fetcher    FeedFetcher
	Images     ImageSource
	Store      DedupStore
	Rotation   *storage.RotationIndex
	Obfuscator *obfuscate.Obfuscator
	Renderer   *card.Renderer
	Publisher  publish.Publisher

	// Summarizer is optional; Limiter caps its use.
	Summarizer Summarizer
	Limiter    *ratelimit.Limiter

	Retry        retry.RetryConfig
	SummaryWords int
	OutputImage  string
	DryRun       bool // render and log, but do not record anything

	overlays *cache.Cache[string, image.Image]
}

// Outcome describes the post made by a run.
type Outcome struct {
	Posted    bool
	Article   news.Article
	Caption   string
	PostID    string
	FeedIndex int
	Fit       layout.Result
}

// Run walks the feeds starting at the saved rotation index and posts the
// first article that is not in the dedup log. Items that fail to publish
// are skipped. A dedup store failure aborts the run.
func (b *Bot) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(start))
	}()

	n := len(b.Feeds)
	if n == 0 {
		return Outcome{}, errors.New("no feeds configured")
	}
	first := b.Rotation.Load(n)

	for offset := 0; offset < n; offset++ {
		idx := (first + offset) % n
		feed := b.Feeds[idx]

		var items []*gofeed.Item
		err := retry.WithRetry(ctx, b.Retry, func() error {
			var err error
			items, err = b.Fetcher.Fetch(ctx, feed.URL)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			logger.Warn("feed failed", "feed", feed.Name, "error", err)
			metrics.Global.SetError(err.Error())
			continue
		}
		logger.Debug("feed fetched", "feed", feed.Name, "items", len(items))

		for _, item := range items {
			a := news.FromItem(item, feed)
			if a.Title == "" {
				continue
			}
			metrics.Global.IncrementItemsProcessed()

			posted, err := b.Store.IsPosted(ctx, a.Hash)
			if err != nil {
				return Outcome{}, fmt.Errorf("dedup lookup: %w", err)
			}
			if posted {
				metrics.Global.IncrementDuplicatesSkipped()
				continue
			}

			out, err := b.post(ctx, a)
			if err != nil {
				if ctx.Err() != nil {
					return Outcome{}, ctx.Err()
				}
				logger.Error("post failed", "feed", feed.Name, "title", a.Title, "error", err)
				metrics.Global.IncrementPublishFailures()
				metrics.Global.SetError(err.Error())
				continue
			}
			out.FeedIndex = idx
			metrics.Global.IncrementPostsPublished()
			logger.Info("posted", "feed", feed.Name, "title", a.Title, "post_id", out.PostID, "font_size", out.Fit.Size)

			if b.DryRun {
				return out, nil
			}
			if err := b.Store.MarkPosted(ctx, storage.PostedArticle{
				Hash:     a.Hash,
				Title:    a.Title,
				Link:     a.Link,
				Category: feed.Name,
				Target:   b.Publisher.Name(),
			}); err != nil {
				return out, fmt.Errorf("record post: %w", err)
			}
			if err := b.Rotation.Save((idx + 1) % n); err != nil {
				return out, err
			}
			metrics.Global.SetLastRun()
			return out, nil
		}
	}

	logger.Info("no new articles")
	metrics.Global.SetLastRun()
	return Outcome{}, nil
}

// post renders and publishes one article.
func (b *Bot) post(ctx context.Context, a news.Article) (Outcome, error) {
	title, splits := b.Obfuscator.ObfuscateN(a.Title)
	body, more := b.Obfuscator.ObfuscateN(b.captionBody(ctx, a))
	metrics.Global.AddTermsObfuscated(splits + more)
	caption := news.Caption(title, body, a.Link)

	img, res := b.Renderer.Render(card.Card{
		Title:     title,
		Overlay:   b.overlay(a.Feed.Image),
		Photo:     b.photo(ctx, a),
		TextColor: textColor(a.Feed.TextColor),
	})
	metrics.Global.RecordCard(res.Size, res.Exhausted)
	if res.Exhausted {
		logger.Warn("headline does not fit at minimum size", "title", a.Title, "lines", len(res.Lines), "height", res.Height)
	}

	var data []byte
	var err error
	filename := "card.png"
	if b.OutputImage != "" {
		data, err = card.SavePNG(b.OutputImage, img)
		filename = filepath.Base(b.OutputImage)
	} else {
		data, err = card.EncodePNG(img)
	}
	if err != nil {
		return Outcome{}, err
	}

	id, err := b.Publisher.Publish(ctx, publish.Post{Caption: caption, Image: data, Filename: filename})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Posted: true, Article: a, Caption: caption, PostID: id, Fit: res}, nil
}

// captionBody is the Gemini summary when one is allowed and succeeds, the
// leading words of the feed summary otherwise.
func (b *Bot) captionBody(ctx context.Context, a news.Article) string {
	excerpt := news.Excerpt(a.Summary, b.SummaryWords)
	if b.Summarizer == nil || a.Summary == "" {
		return excerpt
	}
	if b.Limiter != nil {
		if err := b.Limiter.Use(); err != nil {
			logger.Debug("summary skipped", "reason", err)
			return excerpt
		}
	}

	var summary string
	err := retry.WithRetry(ctx, b.Retry, func() error {
		var err error
		summary, err = b.Summarizer.Summarize(ctx, a.Title, a.Summary)
		return err
	})
	if err != nil {
		logger.Warn("summary failed, using excerpt", "title", a.Title, "error", err)
		metrics.Global.IncrementSummariesFailed()
		return excerpt
	}
	return summary
}

func (b *Bot) overlay(path string) image.Image {
	if path == "" {
		return nil
	}
	if b.overlays == nil {
		b.overlays = cache.New[string, image.Image](0)
	}
	img, err := b.overlays.GetOrCreate(path, func() (image.Image, error) {
		return card.LoadImage(path)
	})
	if err != nil {
		logger.Warn("overlay unavailable", "path", path, "error", err)
		return nil
	}
	return img
}

// photo downloads the article image, falling back to the image advertised
// by the article page. A card without a photo is still posted.
func (b *Bot) photo(ctx context.Context, a news.Article) image.Image {
	if b.Images == nil {
		return nil
	}
	src := a.ImageURL
	if src == "" && a.Link != "" {
		var err error
		if src, err = b.Images.PageImage(ctx, a.Link); err != nil {
			logger.Debug("no page image", "link", a.Link, "error", err)
			return nil
		}
	}
	if src == "" {
		return nil
	}

	var data []byte
	err := retry.WithRetry(ctx, b.Retry, func() error {
		var err error
		data, err = b.Images.Download(ctx, src)
		return err
	})
	if err != nil {
		logger.Warn("photo download failed", "url", src, "error", err)
		return nil
	}
	img, err := card.Decode(data)
	if err != nil {
		logger.Warn("photo undecodable", "url", src, "error", err)
		return nil
	}
	return img
}

func textColor(name string) color.Color {
	c, err := card.ParseColor(name)
	if err != nil {
		logger.Warn("bad text color, using white", "color", name, "error", err)
		return color.White
	}
	return c
}
