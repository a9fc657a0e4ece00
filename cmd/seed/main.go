package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
)

func main() {
	// CLI flags
	redisAddr := flag.String("redis", "", "Redis address (host:port)")
	redisPassword := flag.String("password", "", "Redis password")
	key := flag.String("key", fieldcfg.DefaultKey, "Redis key for the field configuration")
	flag.Parse()

	// Fall back to environment variables
	if *redisAddr == "" {
		*redisAddr = os.Getenv("REDIS_ADDR")
	}
	if *redisPassword == "" {
		*redisPassword = os.Getenv("REDIS_PASSWORD")
	}

	// Fall back to defaults
	if *redisAddr == "" {
		*redisAddr = "localhost:6379"
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: *redisAddr, Password: *redisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Unable to ping redis: %v", err)
	}
	log.Println("Connected to redis")

	registry := fieldcfg.NewRegistry(fieldcfg.NewRedisStore(client, *key))

	defaults := fieldcfg.Defaults()
	if err := registry.Persist(ctx, defaults); err != nil {
		log.Fatalf("Failed to persist field configuration: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Wrote %d field configs to %s", len(defaults), *key)
	for _, cfg := range defaults {
		log.Printf("  %-20s type=%-8s editableBy=%-6s visibleTo=%s", cfg.Name, cfg.Type, cfg.EditableBy, cfg.VisibleTo)
	}
}
