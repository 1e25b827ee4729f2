package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/qenanews/cardbot/internal/bidi"
	"github.com/qenanews/cardbot/internal/card"
	"github.com/qenanews/cardbot/internal/config"
	"github.com/qenanews/cardbot/internal/fontface"
	"github.com/qenanews/cardbot/internal/gemini"
	"github.com/qenanews/cardbot/internal/layout"
	"github.com/qenanews/cardbot/internal/logger"
	"github.com/qenanews/cardbot/internal/obfuscate"
	"github.com/qenanews/cardbot/internal/publish"
	"github.com/qenanews/cardbot/internal/ratelimit"
	"github.com/qenanews/cardbot/internal/retry"
	"github.com/qenanews/cardbot/internal/rss"
	"github.com/qenanews/cardbot/internal/scraper"
	"github.com/qenanews/cardbot/internal/storage"
)

// New builds a bot from cfg. The returned cleanup closes the dedup store
// and the Gemini client.
func New(ctx context.Context, cfg *config.Config) (*Bot, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		return nil, cleanup, fmt.Errorf("load feeds: %w", err)
	}

	obf, err := NewObfuscator(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	renderer, err := NewRenderer(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	var store DedupStore
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresCache(ctx, cfg.DatabaseURL, cfg.CacheTTLHours)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { pg.Close() })
		if err := pg.Cleanup(ctx); err != nil {
			logger.Warn("dedup cleanup failed", "error", err)
		}
		store = pg
	} else {
		fc := storage.NewFileCache(cfg.CacheFilePath, cfg.CacheTTLHours)
		if err := fc.Load(); err != nil {
			return nil, cleanup, fmt.Errorf("load dedup log: %w", err)
		}
		if removed := fc.Cleanup(); removed > 0 {
			logger.Info("expired dedup entries dropped", "count", removed)
		}
		store = fc
	}

	bot := &Bot{
		Feeds:        feeds,
		Fetcher:      rss.NewFetcher(cfg.RequestTimeout),
		Images:       scraper.NewClient(cfg.RequestTimeout),
		Store:        store,
		Rotation:     storage.NewRotationIndex(cfg.FeedIndexFile),
		Obfuscator:   obf,
		Renderer:     renderer,
		Publisher:    NewPublisher(cfg, retryCfg),
		Retry:        retryCfg,
		SummaryWords: cfg.SummaryWords,
		OutputImage:  cfg.OutputImage,
		DryRun:       cfg.DryRun,
	}

	if cfg.GeminiAPIKey != "" && cfg.MaxGeminiRequests > 0 {
		gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini disabled", "error", err)
		} else {
			closers = append(closers, gc.Close)
			bot.Summarizer = gc
			bot.Limiter = ratelimit.New("gemini", cfg.MaxGeminiRequests, 24*time.Hour)
		}
	}

	return bot, cleanup, nil
}

// NewObfuscator loads the denylist. A missing denylist file disables
// obfuscation with a warning.
func NewObfuscator(cfg *config.Config) (*obfuscate.Obfuscator, error) {
	mode, err := obfuscate.ParseMode(cfg.ObfuscateMode)
	if err != nil {
		return nil, err
	}
	match, err := obfuscate.ParseMatch(cfg.ObfuscateMatch)
	if err != nil {
		return nil, err
	}

	list, err := obfuscate.LoadDenylist(cfg.DenylistPath)
	if os.IsNotExist(err) {
		logger.Warn("denylist not found, obfuscation disabled", "path", cfg.DenylistPath)
		list, err = obfuscate.NewDenylist(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load denylist: %w", err)
	}
	logger.Debug("denylist loaded", "terms", list.Len(), "mode", mode)

	return obfuscate.New(list,
		obfuscate.WithMode(mode),
		obfuscate.WithMatch(match),
		obfuscate.WithSeparators(cfg.ObfuscateSeparators...),
	), nil
}

// NewRenderer loads the font and sets up the card layout.
func NewRenderer(cfg *config.Config) (*card.Renderer, error) {
	font, err := fontface.Load(cfg.FontFile)
	if err != nil {
		return nil, err
	}
	if missing := font.Missing("ﺏﻻﻡ"); len(missing) > 0 {
		logger.Warn("font lacks Arabic presentation forms, headlines will render as boxes", "font", font.Name)
	}

	var metrics layout.Measurer = font
	if cfg.MetricsEngine == "harfbuzz" {
		hb, err := fontface.NewHarfBuzz(font)
		if err != nil {
			return nil, err
		}
		metrics = hb
	}

	box := layout.BoundingBox{Left: cfg.TextLeft, Top: cfg.TextTop, Right: cfg.TextRight, Bottom: cfg.TextBottom}
	opts := card.Options{
		Size:        cfg.CanvasSize,
		PhotoHeight: cfg.ImageHeight,
		Box:         box,
		Params: layout.FitParams{
			StartSize:        cfg.StartFontSize,
			MinSize:          cfg.MinFontSize,
			Step:             cfg.FontSizeStep,
			LineHeightFactor: cfg.LineHeightFactor,
			MaxWidth:         float64(box.Width()),
			MaxHeight:        box.Height(),
		},
	}
	return card.NewRenderer(layout.New(bidi.Shaper{}, metrics), font, opts), nil
}

// NewPublisher selects the publisher for cfg.PublishTarget.
func NewPublisher(cfg *config.Config, retryCfg retry.RetryConfig) publish.Publisher {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	switch cfg.PublishTarget {
	case config.TargetFacebook:
		return &publish.Facebook{
			BaseURL: cfg.GraphAPIBase,
			PageID:  cfg.PageID,
			Token:   cfg.PageAccessToken,
			Client:  client,
			Retry:   retryCfg,
		}
	case config.TargetTelegram:
		return &publish.Telegram{
			BaseURL: cfg.TelegramAPIBase,
			Token:   cfg.TelegramToken,
			ChatID:  cfg.TelegramChatID,
			Client:  client,
			Retry:   retryCfg,
		}
	}
	return publish.DryRun{}
}
