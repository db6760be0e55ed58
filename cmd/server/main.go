package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	"github.com/mind-engage/mindengage-quiz/internal/app"
	"github.com/mind-engage/mindengage-quiz/internal/auth"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/genai"
	"github.com/mind-engage/mindengage-quiz/internal/kv"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

func main() {
	cfg := config.Load()

	// --- Persisted state ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, ready, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer closeStore()
	repo := state.Open(ctx, store, state.Branding{AppName: cfg.AppName, AppSubtitle: cfg.AppSubtitle})

	// --- Result fan-out ---
	pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Printf("amqp disabled: %v", err)
		pub = notify.NopPublisher()
	}
	defer pub.Close()

	// --- Auth ---
	authSvc := authmw.NewAuthService(cfg.AuthSecret)
	dir := &auth.Directory{
		Source:          accountSource(cfg),
		AdminUser:       cfg.AdminUser,
		AdminPassHash:   cfg.AdminPassHash,
		DefaultPassword: cfg.DefaultPassword,
	}

	deps := app.Deps{
		Store:             repo,
		Publisher:         pub,
		GenerationTimeout: cfg.GenerationTimeout,
	}
	if gen, err := genai.NewClient(ctx, cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		log.Printf("AI quizzes disabled: %v", err)
	} else {
		deps.Generator = gen
	}
	hub := api.NewHub(deps)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.GenerationTimeout + 15*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, hub, authSvc, dir)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("listening on %s (mode=%s, store=%s)", cfg.HTTPAddr, cfg.Mode, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sig.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore picks the key-value backend. ready reports backend health for
// /readyz.
func openStore(ctx context.Context, cfg config.Config) (store kv.Store, ready func(context.Context) error, closeFn func(), err error) {
	switch cfg.StoreDriver {
	case "memory":
		return kv.NewMemory(), func(context.Context) error { return nil }, func() {}, nil
	case "redis":
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rc.Ping(ctx).Err(); err != nil {
			// state.Open degrades to defaults; keep serving and report via /readyz.
			log.Printf("redis ping: %v", err)
		}
		ping := func(ctx context.Context) error { return rc.Ping(ctx).Err() }
		return kv.NewRedisStore(rc, "quiz:"), ping, func() { _ = rc.Close() }, nil
	case "fs":
		fst, err := kv.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return fst, func(context.Context) error { return nil }, func() {}, nil
	case "sqlite", "postgres":
		dbh, err := db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv.NewSQLStore(dbh), dbh.PingContext, func() { _ = dbh.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func accountSource(cfg config.Config) auth.Source {
	if cfg.UsersCSVURL != "" {
		return auth.HTTPSource{URL: cfg.UsersCSVURL, Client: &http.Client{Timeout: 10 * time.Second}}
	}
	if cfg.UsersCSVPath != "" {
		return auth.FileSource{Path: cfg.UsersCSVPath}
	}
	return nil
}
