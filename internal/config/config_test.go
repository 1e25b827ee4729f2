package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PUBLISH_TARGET", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 55, cfg.TextLeft)
	assert.Equal(t, 1030, cfg.TextRight)
	assert.Equal(t, 765, cfg.TextTop)
	assert.Equal(t, 980, cfg.TextBottom)
	assert.Equal(t, 60.0, cfg.StartFontSize)
	assert.Equal(t, 24.0, cfg.MinFontSize)
	assert.Equal(t, 2.0, cfg.FontSizeStep)
	assert.Equal(t, 1.3, cfg.LineHeightFactor)
	assert.Equal(t, "once", cfg.ObfuscateMode)
	assert.Equal(t, 0, cfg.CacheTTLHours)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUBLISH_TARGET", "telegram")
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("OBFUSCATE_SEPARATORS", "* •")
	t.Setenv("MIN_FONT_SIZE", "28.5")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("METRICS_ENGINE", "HarfBuzz")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"*", "•"}, cfg.ObfuscateSeparators)
	assert.Equal(t, 28.5, cfg.MinFontSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "harfbuzz", cfg.MetricsEngine)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			PublishTarget: TargetFacebook, PageID: "p", PageAccessToken: "tok",
			MetricsEngine: "opentype", CanvasSize: 1080,
			TextLeft: 55, TextRight: 1030, TextTop: 765, TextBottom: 980,
			StartFontSize: 60,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"facebook without token", func(c *Config) { c.PageAccessToken = "" }, true},
		{"telegram without chat", func(c *Config) { c.PublishTarget = TargetTelegram; c.TelegramToken = "t" }, true},
		{"unknown target", func(c *Config) { c.PublishTarget = "myspace" }, true},
		{"dry run skips credentials", func(c *Config) { c.DryRun = true; c.PageID = "" }, false},
		{"empty box", func(c *Config) { c.TextRight = c.TextLeft }, true},
		{"box outside canvas", func(c *Config) { c.TextBottom = 1200 }, true},
		{"unknown engine", func(c *Config) { c.MetricsEngine = "freetype" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
