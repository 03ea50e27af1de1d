package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/cache"
	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/database"
	"github.com/dgeemedia/cse340-backend/internal/db"
	"github.com/dgeemedia/cse340-backend/internal/handlers"
	"github.com/dgeemedia/cse340-backend/internal/health"
	h "github.com/dgeemedia/cse340-backend/internal/http"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/realtime"
	"github.com/dgeemedia/cse340-backend/internal/repositories"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/storage"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/migrations"
	"github.com/dgeemedia/cse340-backend/templates"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	skipMigrations := flag.Bool("skip-migrations", false, "Do not apply pending schema migrations at startup")
	flag.Parse()

	cfg := config.Load()
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.Connect(cfg)
	defer pool.Close()

	if !*skipMigrations {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := database.NewMigrator(pool, migrations.FS).RunMigrations(migrateCtx); err != nil {
			cancel()
			log.Fatalf("migrations failed: %v", err)
		}
		cancel()
	}

	checker := health.NewHealthChecker(pool.Ping)

	// Redis backs the nav cache, the TOTP attempt limiter and the realtime
	// relay. The site runs without it.
	var (
		nav     services.NavCache
		limiter services.AttemptLimiter
		redisDB *cache.Cache
	)
	if cfg.Redis.Enabled {
		c, err := cache.Connect(cfg)
		if err != nil {
			log.Printf("[Redis] unavailable, continuing without cache: %v", err)
		} else {
			redisDB = c
			nav, limiter = c, c
			defer c.Close()
			checker.AddOptional("redis", func(ctx context.Context) error { return c.Client().Ping(ctx).Err() })
		}
	}

	var images services.ImageStore
	if cfg.StorageEnabled() {
		store, err := storage.NewImageStore(ctx, cfg)
		if err != nil {
			log.Printf("[Storage] image uploads disabled: %v", err)
		} else {
			images = store
			checker.AddOptional("storage", store.Ping)
		}
	}

	// Realtime
	hub := realtime.NewHub(cfg.Realtime.QueueSize)
	go hub.Run(ctx)

	var notifier services.Notifier = hub
	if redisDB != nil {
		relay := realtime.NewRedisRelay(redisDB.Client(), cfg.Realtime.Channel, hub)
		notifier = relay
		go relay.Run(ctx)
	}

	// Repositories
	accountRepo := repositories.NewAccountRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	messageRepo := repositories.NewMessageRepository(pool)
	reviewRepo := repositories.NewReviewRepository(pool)
	replyRepo := repositories.NewReplyRepository(pool)

	// Services
	tokens := auth.NewTokenManager(cfg)
	totpService := services.NewTOTPService(accountRepo, limiter, cfg.TOTP.Issuer)
	accountService := services.NewAccountService(accountRepo, tokens, totpService)
	inventoryService := services.NewInventoryService(inventoryRepo, nav, images)
	messageService := services.NewMessageService(messageRepo, accountRepo, notifier)
	reviewService := services.NewReviewService(reviewRepo, replyRepo, inventoryRepo, notifier)
	reportService := services.NewReportService(inventoryRepo, reviewRepo)

	renderer, err := views.New(templates.FS, inventoryService, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	// Handlers
	cookie := auth.CookieOptions{Name: cfg.JWT.CookieName, Secure: !cfg.IsDevelopment()}
	base := &handlers.Base{Views: renderer}
	authMiddleware := middleware.NewAuthMiddleware(tokens, cookie)

	router := h.NewRouter(
		handlers.NewPageHandler(base, inventoryService),
		handlers.NewAccountHandler(base, accountService, totpService, messageService, reviewService, cookie),
		handlers.NewInventoryHandler(base, inventoryService, reviewService, reportService),
		handlers.NewMessageHandler(base, messageService),
		handlers.NewReviewHandler(base, reviewService),
		handlers.NewHealthHandler(checker),
		realtime.NewHandler(hub, tokens, messageService, realtime.OptionsFrom(cfg)),
		authMiddleware,
	)

	handler := middleware.RequestID(middleware.PanicRecovery(middleware.NewCORS(cfg)(authMiddleware.Identify(router))))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s (env: %s)", srv.Addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
