package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/price-optimizer/internal/annotate"
	"github.com/kjannette/price-optimizer/internal/api"
	"github.com/kjannette/price-optimizer/internal/cache"
	"github.com/kjannette/price-optimizer/internal/competitor"
	"github.com/kjannette/price-optimizer/internal/config"
	"github.com/kjannette/price-optimizer/internal/db"
	"github.com/kjannette/price-optimizer/internal/external"
	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/notifications"
	"github.com/kjannette/price-optimizer/internal/optimizer"
	"github.com/kjannette/price-optimizer/internal/pricing"
	"github.com/kjannette/price-optimizer/internal/repository"
	"github.com/kjannette/price-optimizer/internal/risk"
	"github.com/kjannette/price-optimizer/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║       Price Optimizer v0.1           ║
║   elasticity · search · scenarios    ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN(), int32(cfg.OptimizeWorkers*2+4))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.CheckConnection(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, pool)
	cancelMigrate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Migration failed: %v\n", err)
		os.Exit(1)
	}

	// Repos
	productRepo := repository.NewProductRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)
	optimizationRepo := repository.NewOptimizationRepo(pool)

	// Cache: redis when configured, in-process otherwise
	var store cache.Store = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fmt.Printf("[CACHE] %v, falling back to in-process cache\n", err)
		} else {
			defer rc.Close()
			store = rc
		}
	}

	// Collaborators
	market := external.NewMarketplaceClient(external.MarketplaceOptions{
		APIKey:    cfg.WBAPIKey,
		BaseURL:   cfg.WBAPIBaseURL,
		CardURL:   cfg.WBCardURL,
		SearchURL: cfg.WBSearchURL,
		SiteURL:   cfg.WBSiteURL,
		RPS:       cfg.MarketplaceRPS,
	})
	analyzer := competitor.NewAnalyzer(market, store, competitor.Options{
		MinReviews:     cfg.Analysis.MinCompetitorReviews,
		MaxCompetitors: cfg.Analysis.MaxCompetitors,
		CacheTTL:       cfg.CompetitorTTL(),
	})
	annotator := annotate.NewWithFallback(annotate.NewLLM(annotate.LLMOptions{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.AIModel,
		Temperature: cfg.AITemperature,
	}))
	guard := risk.NewGuardian(risk.Limits{
		MinChangePercent: cfg.Analysis.MinPriceChangePercent,
		MaxChangePercent: cfg.Analysis.MaxPriceChangePercent,
		MaxDailyUpdates:  cfg.MaxDailyPriceUpdates,
	}, optimizationRepo)

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)

	svc := optimizer.NewService(optimizer.Deps{
		Products:      productRepo,
		History:       historyRepo,
		Optimizations: optimizationRepo,
		Marketplace:   market,
		Competitors:   analyzer,
		Annotator:     annotator,
		Guard:         guard,
		Cache:         store,
		Notifier:      notify,
	}, optimizer.Options{
		Params:        cfg.Analysis.Params(),
		RecentDays:    cfg.Analysis.RecentDays,
		MinConfidence: cfg.Analysis.MinConfidence,
		Workers:       cfg.OptimizeWorkers,
		PriceTTL:      cfg.PriceTTL(),
	})

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(api.Deps{
		DB:            pool,
		Optimizer:     svc,
		Products:      productRepo,
		History:       historyRepo,
		Optimizations: optimizationRepo,
		Competitors:   analyzer,
		HistoryDays:   cfg.Analysis.WindowDays,
	}, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Scheduled re-optimization
	var sched *scheduler.OptimizeScheduler
	if cfg.OptimizeCron != "" {
		objective, _ := pricing.ParseObjective(cfg.OptimizeObjective)
		sched, err = scheduler.NewOptimizeScheduler(svc, scheduler.OptimizeSchedulerConfig{
			Spec:                cfg.OptimizeCron,
			Objective:           objective,
			ConsiderCompetitors: true,
			OnComplete: func(res *models.BulkResult) {
				notify.SendBulkSummary(res)
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "[SCHEDULER] %v\n", err)
			os.Exit(1)
		}
		if err := sched.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "[SCHEDULER] Start failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("[SCHEDULER] Skipped - no OPTIMIZE_CRON configured")
	}

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
