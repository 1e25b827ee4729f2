// Package config loads the bot settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Publish targets.
const (
	TargetFacebook = "facebook"
	TargetTelegram = "telegram"
	TargetNone     = "none"
)

type Config struct {
	// Publishing
	PublishTarget   string // facebook | telegram | none
	PageID          string
	PageAccessToken string
	GraphAPIBase    string
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIBase string

	// Gemini settings
	GeminiAPIKey      string
	GeminiModel       string
	MaxGeminiRequests int // maximum Gemini requests per run (0 = none)

	// Feeds
	FeedsConfigPath string
	FeedIndexFile   string

	// Obfuscation
	DenylistPath        string
	ObfuscateMode       string // once | every | once-per-category
	ObfuscateMatch      string // word | substring
	ObfuscateSeparators []string

	// Card
	FontFile         string
	MetricsEngine    string // opentype | harfbuzz
	CanvasSize       int
	ImageHeight      int
	TextLeft         int
	TextRight        int
	TextTop          int
	TextBottom       int
	StartFontSize    float64
	MinFontSize      float64
	FontSizeStep     float64
	LineHeightFactor float64
	OutputImage      string

	// App settings
	Debug          bool
	DryRun         bool
	SummaryWords   int
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Cache settings
	CacheFilePath string
	CacheTTLHours int // 0 keeps hashes forever
	DatabaseURL   string

	// Monitoring
	EnableHTTPMonitoring bool
	HTTPPort             string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		PublishTarget:     TargetFacebook,
		GraphAPIBase:      "https://graph.facebook.com/v19.0",
		TelegramAPIBase:   "https://api.telegram.org",
		GeminiModel:       "gemini-1.5-flash",
		MaxGeminiRequests: 1,
		FeedsConfigPath:   "configs/feeds.yaml",
		FeedIndexFile:     "feed_index.txt",
		DenylistPath:      "configs/denylist.yaml",
		ObfuscateMode:     "once",
		ObfuscateMatch:    "word",
		MetricsEngine:     "opentype",
		CanvasSize:        1080,
		ImageHeight:       715,
		TextLeft:          55,
		TextRight:         1030,
		TextTop:           765,
		TextBottom:        980,
		StartFontSize:     60,
		MinFontSize:       24,
		FontSizeStep:      2,
		LineHeightFactor:  1.3,
		OutputImage:       "output.png",
		SummaryWords:      40,
		RequestTimeout:    30 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
		HTTPPort:          "8080",
	}

	if v := os.Getenv("PUBLISH_TARGET"); v != "" {
		cfg.PublishTarget = strings.ToLower(v)
	}
	cfg.PageID = os.Getenv("PAGE_ID")
	cfg.PageAccessToken = os.Getenv("PAGE_ACCESS_TOKEN")
	cfg.GraphAPIBase = getEnvOrDefault("GRAPH_API_BASE", cfg.GraphAPIBase)
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.TelegramAPIBase = getEnvOrDefault("TELEGRAM_API_BASE", cfg.TelegramAPIBase)

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	if gr := os.Getenv("MAX_GEMINI_REQUESTS"); gr != "" {
		if val, err := strconv.Atoi(gr); err == nil && val >= 0 {
			cfg.MaxGeminiRequests = val
		}
	}

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.FeedIndexFile = getEnvOrDefault("FEED_INDEX_FILE", cfg.FeedIndexFile)

	cfg.DenylistPath = getEnvOrDefault("DENYLIST_PATH", cfg.DenylistPath)
	cfg.ObfuscateMode = getEnvOrDefault("OBFUSCATE_MODE", cfg.ObfuscateMode)
	cfg.ObfuscateMatch = getEnvOrDefault("OBFUSCATE_MATCH", cfg.ObfuscateMatch)
	if v := os.Getenv("OBFUSCATE_SEPARATORS"); v != "" {
		cfg.ObfuscateSeparators = strings.Fields(v)
	}

	cfg.FontFile = os.Getenv("FONT_FILE")
	cfg.MetricsEngine = strings.ToLower(getEnvOrDefault("METRICS_ENGINE", cfg.MetricsEngine))
	cfg.CanvasSize = getEnvIntOrDefault("CANVAS_SIZE", cfg.CanvasSize)
	cfg.ImageHeight = getEnvIntOrDefault("IMAGE_HEIGHT", cfg.ImageHeight)
	cfg.TextLeft = getEnvIntOrDefault("TEXT_LEFT", cfg.TextLeft)
	cfg.TextRight = getEnvIntOrDefault("TEXT_RIGHT", cfg.TextRight)
	cfg.TextTop = getEnvIntOrDefault("TEXT_TOP", cfg.TextTop)
	cfg.TextBottom = getEnvIntOrDefault("TEXT_BOTTOM", cfg.TextBottom)
	cfg.StartFontSize = getEnvFloatOrDefault("START_FONT_SIZE", cfg.StartFontSize)
	cfg.MinFontSize = getEnvFloatOrDefault("MIN_FONT_SIZE", cfg.MinFontSize)
	cfg.FontSizeStep = getEnvFloatOrDefault("FONT_SIZE_STEP", cfg.FontSizeStep)
	cfg.LineHeightFactor = getEnvFloatOrDefault("LINE_HEIGHT_FACTOR", cfg.LineHeightFactor)
	cfg.OutputImage = getEnvOrDefault("OUTPUT_IMAGE", cfg.OutputImage)

	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.DryRun = os.Getenv("DRY_RUN") == "true"
	cfg.SummaryWords = getEnvIntOrDefault("SUMMARY_WORDS", cfg.SummaryWords)
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.RetryDelay = d
		}
	}

	// Cache settings
	cfg.CacheFilePath = getEnvOrDefault("CACHE_FILE_PATH", "posted_articles.json")
	cfg.CacheTTLHours = getEnvIntOrDefault("CACHE_TTL_HOURS", 0)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.EnableHTTPMonitoring = os.Getenv("ENABLE_HTTP_MONITORING") == "true"
	cfg.HTTPPort = getEnvOrDefault("MONITORING_PORT", cfg.HTTPPort)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DryRun {
		c.PublishTarget = TargetNone
	}
	switch c.PublishTarget {
	case TargetFacebook:
		if c.PageID == "" || c.PageAccessToken == "" {
			return fmt.Errorf("PAGE_ID and PAGE_ACCESS_TOKEN are required for facebook publishing")
		}
	case TargetTelegram:
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required")
		}
	case TargetNone:
	default:
		return fmt.Errorf("PUBLISH_TARGET must be 'facebook', 'telegram' or 'none'")
	}
	if c.MetricsEngine != "opentype" && c.MetricsEngine != "harfbuzz" {
		return fmt.Errorf("METRICS_ENGINE must be 'opentype' or 'harfbuzz'")
	}
	if c.TextRight <= c.TextLeft || c.TextBottom <= c.TextTop {
		return fmt.Errorf("text box %d,%d-%d,%d is empty", c.TextLeft, c.TextTop, c.TextRight, c.TextBottom)
	}
	if c.TextRight > c.CanvasSize || c.TextBottom > c.CanvasSize || c.TextLeft < 0 || c.TextTop < 0 {
		return fmt.Errorf("text box must lie within the %dpx canvas", c.CanvasSize)
	}
	if c.StartFontSize <= 0 {
		return fmt.Errorf("START_FONT_SIZE must be positive")
	}
	return nil
}
