package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/joseph123019/ai-model-playground/config"
	"github.com/joseph123019/ai-model-playground/internal/auth"
	"github.com/joseph123019/ai-model-playground/internal/comparison"
	"github.com/joseph123019/ai-model-playground/internal/history"
	"github.com/joseph123019/ai-model-playground/internal/provider"
	"github.com/joseph123019/ai-model-playground/internal/provider/anthropic"
	"github.com/joseph123019/ai-model-playground/internal/provider/openai"
	"github.com/joseph123019/ai-model-playground/internal/seeder"
	"github.com/joseph123019/ai-model-playground/internal/store"
	"github.com/joseph123019/ai-model-playground/internal/telemetry"
	"github.com/joseph123019/ai-model-playground/pkg/ratelimit"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer("ai-model-playground", cfg)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer shutdownTracer()

	// 3. Connect PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}
	log.Println("PostgreSQL connected")

	// 4. Connect Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	log.Println("Redis connected")

	// 5. Init auth
	authStore := auth.NewPostgresStore(pool)
	authenticator := auth.NewAuthenticator(authStore, rdb)
	authMiddleware := auth.NewMiddleware(authenticator)

	// 6. Init session store
	sessionStore := store.NewPostgresStore(pool)

	// 7. Init rate limiter
	limiter := ratelimit.NewLimiter(rdb, cfg.ComparisonsPerMinute)

	// 8. Init providers
	streamers := []provider.Streamer{
		openai.New(cfg.OpenAIAPIKey),
		anthropic.New(cfg.AnthropicAPIKey),
	}

	// 9. Init orchestrator and gateways
	tracer := otel.GetTracerProvider().Tracer("ai-model-playground")
	orch := comparison.NewOrchestrator(sessionStore, streamers, tracer)
	gateway := comparison.NewGateway(authenticator, orch, limiter)
	historyHandler := history.NewHandler(sessionStore)

	// 10. Seed test user if RUN_SEED=true
	if os.Getenv("RUN_SEED") == "true" {
		seeder.SeedTestUser(ctx, pool, authStore)
	}

	// 11. Init Chi router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"ai-model-playground"}`))
	})

	// WebSocket endpoint authenticates during the handshake itself
	r.Get("/v1/compare", gateway.HandleCompare)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/v1/sessions", historyHandler.HandleList)
		r.Get("/v1/sessions/{id}", historyHandler.HandleGet)
	})

	// 12. Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming over long-lived WebSockets
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("AI Model Playground starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
