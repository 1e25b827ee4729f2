package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/qenanews/cardbot/internal/news"
	"github.com/qenanews/cardbot/internal/storage"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set in environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("Testing PostgreSQL connection...")
	fmt.Printf("Database URL: %s\n\n", maskPassword(dbURL))

	pgCache, err := storage.NewPostgresCache(ctx, dbURL, 0)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgCache.Close()

	fmt.Println("Successfully connected to PostgreSQL!")

	stats, err := pgCache.GetStats(ctx)
	if err != nil {
		log.Printf("Failed to get stats: %v", err)
	} else {
		fmt.Println("\nDedup log:")
		fmt.Printf("  Total items: %d\n", stats["total_items"])
		for key, count := range stats {
			if category, ok := strings.CutPrefix(key, "category_"); ok {
				fmt.Printf("  %s: %d\n", category, count)
			}
		}
	}

	recent, err := pgCache.GetRecent(ctx, 5)
	if err != nil {
		log.Printf("Failed to get recent posts: %v", err)
	} else {
		fmt.Println("\nRecent posts (last 5):")
		if len(recent) == 0 {
			fmt.Println("  (nothing posted yet)")
		}
		for i, item := range recent {
			fmt.Printf("  %d. %s\n", i+1, item.Title)
			fmt.Printf("     Category: %s | Target: %s | Posted: %s\n", item.Category, item.Target, item.PostedAt.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Println("\nTesting duplicate detection...")
	hash := news.Hash("خبر تجريبي")
	fmt.Printf("  Hash: %s\n", hash)
	posted, err := pgCache.IsPosted(ctx, hash)
	if err != nil {
		log.Fatalf("Duplicate check failed: %v", err)
	}
	fmt.Printf("  Already posted: %v\n", posted)

	fmt.Println("\nDatabase is ready to use.")
}

func maskPassword(dbURL string) string {
	if len(dbURL) > 50 {
		return dbURL[:30] + "***" + dbURL[len(dbURL)-20:]
	}
	return dbURL
}
