package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/qenanews/cardbot/internal/logger"
)

// PostgresCache keeps the dedup log in PostgreSQL
type PostgresCache struct {
	db       *sql.DB
	ttlHours int
}

// NewPostgresCache creates a new PostgreSQL cache instance
func NewPostgresCache(ctx context.Context, connectionString string, ttlHours int) (*PostgresCache, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := &PostgresCache{
		db:       db,
		ttlHours: ttlHours,
	}

	if err := cache.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres dedup log connected")
	return cache, nil
}

// initSchema creates the necessary tables if they don't exist
func (pc *PostgresCache) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posted_articles (
		id SERIAL PRIMARY KEY,
		hash VARCHAR(64) UNIQUE NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		category TEXT,
		target VARCHAR(20),
		posted_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_posted_articles_posted_at ON posted_articles(posted_at);
	`

	if _, err := pc.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (pc *PostgresCache) cutoff() time.Time {
	if pc.ttlHours <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-time.Duration(pc.ttlHours) * time.Hour)
}

// IsPosted checks if an article was already posted (within TTL window)
func (pc *PostgresCache) IsPosted(ctx context.Context, hash string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM posted_articles WHERE hash = $1 AND posted_at > $2`
	if err := pc.db.QueryRowContext(ctx, query, hash, pc.cutoff()).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return count > 0, nil
}

// MarkPosted records an article; a repeated hash refreshes its timestamp.
func (pc *PostgresCache) MarkPosted(ctx context.Context, item PostedArticle) error {
	query := `
		INSERT INTO posted_articles (hash, title, link, category, target, posted_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (hash) DO UPDATE SET posted_at = NOW()
	`

	if _, err := pc.db.ExecContext(ctx, query, item.Hash, item.Title, item.Link, item.Category, item.Target); err != nil {
		return fmt.Errorf("failed to mark as posted: %w", err)
	}
	return nil
}

// Cleanup removes expired items from database
func (pc *PostgresCache) Cleanup(ctx context.Context) error {
	if pc.ttlHours <= 0 {
		return nil
	}

	result, err := pc.db.ExecContext(ctx, `DELETE FROM posted_articles WHERE posted_at < $1`, pc.cutoff())
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("cleaned up dedup log", "rows", rows)
	}
	return nil
}

// GetStats returns cache statistics
func (pc *PostgresCache) GetStats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	if err := pc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posted_articles`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_items"] = total

	rows, err := pc.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), COUNT(*)
		FROM posted_articles
		WHERE posted_at > $1
		GROUP BY category
	`, pc.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats["category_"+category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetRecent returns recently posted articles for debugging
func (pc *PostgresCache) GetRecent(ctx context.Context, limit int) ([]PostedArticle, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT hash, title, link, COALESCE(category, ''), COALESCE(target, ''), posted_at
		FROM posted_articles
		ORDER BY posted_at DESC
		LIMIT $1
	`

	rows, err := pc.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PostedArticle
	for rows.Next() {
		var item PostedArticle
		if err := rows.Scan(&item.Hash, &item.Title, &item.Link, &item.Category, &item.Target, &item.PostedAt); err != nil {
			logger.Warn("error scanning row", "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close closes the database connection
func (pc *PostgresCache) Close() error {
	if pc.db != nil {
		return pc.db.Close()
	}
	return nil
}
