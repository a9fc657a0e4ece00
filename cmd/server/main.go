package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/catalog"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/config"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/router"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/session"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/ws"
)

// sessionTTL is how long an idle editing session survives before the
// sweeper discards it.
const sessionTTL = time.Hour

func main() {
	cfg := config.Load()

	// Field-config store: redis when configured, in-memory otherwise.
	var store fieldcfg.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Unable to ping redis: %v", err)
		}
		store = fieldcfg.NewRedisStore(client, fieldcfg.DefaultKey)
		log.Printf("Field configs persisted to redis at %s", cfg.RedisAddr)
	} else {
		store = fieldcfg.NewMemoryStore()
		log.Println("REDIS_ADDR not set; field configs held in memory")
	}
	registry := fieldcfg.NewRegistry(store)

	api := crm.NewClient(cfg.CRMAPIURL, cfg.CRMAPIToken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.New(api)
	if err := cat.Refresh(ctx); err != nil {
		log.Printf("WARNING: initial catalog load failed: %v", err)
	}
	go cat.Run(ctx, cfg.CatalogRefresh)

	hub := ws.NewHub()
	go hub.Run()

	cache := reconcile.NewCache()
	reconciler := reconcile.New(api, cache, hub)
	if err := reconciler.SyncAll(ctx); err != nil {
		log.Printf("WARNING: initial order sync failed: %v", err)
	}

	sessions := session.NewManager(registry, cat, reconciler, cache)
	go sessions.Run(ctx, sessionTTL)

	r := router.New(router.Deps{
		Cfg:        cfg,
		Registry:   registry,
		Catalog:    cat,
		Reconciler: reconciler,
		Sessions:   sessions,
		Hub:        hub,
		CRM:        api,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("Server shutdown complete")
}
