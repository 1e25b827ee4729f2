package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAndStats(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	m.IncrementItemsProcessed()
	m.IncrementDuplicatesSkipped()
	m.AddTermsObfuscated(2)
	m.AddTermsObfuscated(0)
	m.RecordCard(48, false)
	m.RecordCard(24, true)
	m.IncrementPostsPublished()
	m.RecordProcessingTime(2 * time.Second)
	m.RecordProcessingTime(4 * time.Second)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["items_processed"])
	assert.Equal(t, int64(2), stats["terms_obfuscated"])
	assert.Equal(t, int64(2), stats["cards_rendered"])
	assert.Equal(t, int64(1), stats["fit_exhausted"])
	assert.Equal(t, 24.0, stats["last_font_size"])
	assert.Equal(t, int64(3000), stats["average_processing_time_ms"])
}

func TestHealthFollowsErrors(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	m.SetError("publish failed")
	assert.False(t, m.Healthy())
	assert.Equal(t, "publish failed", m.GetStats()["last_error"])
	m.SetLastRun()
	assert.True(t, m.Healthy())
}
