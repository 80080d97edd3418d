package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/resumatic/backend/internal/config"
	"github.com/resumatic/backend/internal/handler"
	appMiddleware "github.com/resumatic/backend/internal/middleware"
	"github.com/resumatic/backend/internal/repository"
	"github.com/resumatic/backend/internal/service"
	"github.com/resumatic/backend/pkg/ai"
	"github.com/resumatic/backend/pkg/billing"
	"github.com/resumatic/backend/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer db.Close()

	if err := repository.RunMigrations(ctx, db); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}
	logger.Info("database connected and migrated")

	blobs, err := storage.New(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		logger.Fatal("object storage error", zap.Error(err))
	}

	provider := billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripePriceMonthly, cfg.StripePriceYearly, cfg.AppURL)
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	experienceRepo := repository.NewExperienceRepository(db)

	// Each webhook event is applied inside one transaction: subscription
	// row, account tier, and history entry commit or roll back together.
	uow := service.UnitOfWork(func(ctx context.Context, fn func(subs service.SubscriptionStore, tiers service.TierStore) error) error {
		return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			return fn(subRepo.WithTx(tx), accountRepo.WithTx(tx))
		})
	})

	// Services
	onboardingSvc := service.NewOnboardingService(onboardingRepo, logger)
	accountSvc := service.NewAccountService(accountRepo, onboardingSvc, logger)
	quotaSvc := service.NewQuotaService(quotaRepo, logger)
	subscriptionSvc := service.NewSubscriptionService(subRepo, provider, logger)
	reconciler := service.NewReconciler(uow, subRepo, provider, logger)
	resumeSvc := service.NewResumeService(resumeRepo, blobs, quotaSvc, onboardingSvc, aiClient, logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	onboardingHandler := handler.NewOnboardingHandler(accountSvc, onboardingSvc)
	quotaHandler := handler.NewQuotaHandler(accountSvc, quotaSvc)
	accountHandler := handler.NewAccountHandler(accountSvc, experienceRepo)
	resumeHandler := handler.NewResumeHandler(accountSvc, resumeSvc)
	billingHandler := handler.NewBillingHandler(accountSvc, subscriptionSvc)
	dashboardHandler := handler.NewDashboardHandler(accountSvc, resumeSvc, quotaSvc, subscriptionSvc)
	webhookHandler := handler.NewWebhookHandler(accountSvc, reconciler, cfg.AuthWebhookSecret, cfg.StripeWebhookSecret, logger)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery(logger))
	r.Use(appMiddleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", billingHandler.ListPlans)
	r.Post("/api/webhooks/auth", webhookHandler.HandleAuth)
	r.Post("/api/webhooks/stripe", webhookHandler.HandleStripe)

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(cfg.AuthJWTSecret))

		// Onboarding
		r.Get("/api/onboarding/progress", onboardingHandler.GetProgress)
		r.Post("/api/onboarding/progress", onboardingHandler.CompleteStep)

		// Quota
		r.Get("/api/quota", quotaHandler.GetStatus)
		r.Post("/api/quota/increment", quotaHandler.Increment)

		// Account & profile
		r.Post("/api/account/tier", accountHandler.UpdateTier)
		r.Put("/api/profile/basic-info", accountHandler.UpdateBasicInfo)
		r.Get("/api/profile/experience", accountHandler.ListExperience)
		r.Post("/api/profile/experience", accountHandler.CreateExperience)
		r.Put("/api/profile/experience/{id}", accountHandler.UpdateExperience)

		// Resumes
		r.Get("/api/resumes", resumeHandler.List)
		r.Post("/api/resumes", resumeHandler.Upload)
		r.Get("/api/resumes/current", resumeHandler.Current)
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AnalysisRateLimiter())
			r.Post("/api/resumes/{id}/analyze", resumeHandler.Analyze)
		})

		// Billing
		r.Post("/api/billing/checkout", billingHandler.CreateCheckout)
		r.Get("/api/billing/portal", billingHandler.CreatePortal)
		r.Get("/api/billing/subscription", billingHandler.GetSubscription)

		// Dashboard
		r.Get("/api/dashboard", dashboardHandler.Get)
	})

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
