package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"projectguard.org/internal/account"
	"projectguard.org/internal/config"
	"projectguard.org/internal/httpapi"
	"projectguard.org/internal/obs"
	"projectguard.org/internal/session"
	"projectguard.org/internal/telegram"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// Конфиг читаем один раз: отсутствие секретов — фатально на старте,
	// а не на первом запросе.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	sessions, err := session.NewIssuer(cfg.SessionSecret, session.WithTTL(cfg.SessionTTL))
	if err != nil {
		log.Fatalf("session issuer: %v", err)
	}

	verifier := telegram.NewVerifier(cfg.BotToken,
		telegram.WithMaxAge(cfg.AuthMaxAge),
		telegram.WithAllowUnverified(cfg.AllowUnverified),
	)
	if cfg.AllowUnverified {
		log.Println("WARNING: TELEGRAM_ALLOW_UNVERIFIED is set — login claims are NOT verified; never run this way in production")
	}

	// Подключение к БД (если задан DSN); иначе in-memory store для dev.
	var (
		db    *sql.DB
		store account.Store
	)
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = account.NewPGStore(db)
	} else {
		log.Println("PG_DSN is empty, using in-memory account store")
		store = account.NewMemoryStore()
	}

	resolver := account.NewResolver(store, account.WithStorageTimeout(cfg.StorageTimeout))
	accounts := account.NewService(store)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, verifier, resolver, accounts, sessions,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting projectguard-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
