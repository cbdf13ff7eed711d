package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/azamanzizi-droid/poszz8/internal/cache"
	"github.com/azamanzizi-droid/poszz8/internal/config"
	"github.com/azamanzizi-droid/poszz8/internal/httpapi"
	"github.com/azamanzizi-droid/poszz8/internal/ledger"
	"github.com/azamanzizi-droid/poszz8/internal/receipt"
	"github.com/azamanzizi-droid/poszz8/internal/service"
	"github.com/azamanzizi-droid/poszz8/internal/snapshot"
	"github.com/azamanzizi-droid/poszz8/internal/store"
	"github.com/azamanzizi-droid/poszz8/internal/store/memory"
	pgstore "github.com/azamanzizi-droid/poszz8/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	cfg := config.Load()
	loc := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, cfg.InternalTag)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		persist, err := snapshot.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("snapshot dir %s: %v", cfg.DataDir, err)
		}
		mem, err := memory.New(persist, cfg.InternalTag)
		if err != nil {
			log.Fatalf("restore snapshots: %v", err)
		}
		repo = mem
		log.Printf("repository: in-memory with snapshots in %s", cfg.DataDir)
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("report cache: redis")
		}
	} else {
		log.Println("report cache: noop")
	}

	engine := ledger.NewEngine(reportCache, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second, loc)
	renderer := receipt.NewRenderer(cfg.StallName, loc)
	svc := service.New(repo, engine, renderer, cfg.InternalTag, loc)
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
