package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eatmeetclub/api/internal/config"
	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/jobs"
	"github.com/eatmeetclub/api/internal/messaging"
	"github.com/eatmeetclub/api/internal/middleware"
	"github.com/eatmeetclub/api/internal/payments"
	"github.com/eatmeetclub/api/internal/repository"
	"github.com/eatmeetclub/api/internal/service"
	"github.com/eatmeetclub/api/internal/telemetry"
	"github.com/eatmeetclub/api/migrations"
	"github.com/eatmeetclub/api/pkg/jwt"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Server.Env,
	})
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("namespace", cfg.Database.Namespace),
		slog.String("database", cfg.Database.Database),
	)

	applied, err := migrations.Apply(ctx, db)
	if err != nil {
		slog.Error("failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("schema up to date", slog.Int("migrations", applied))

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		slog.Error("failed to initialize payment gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		slog.Error("failed to connect to message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = publisher.Close() }()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	eventRepo := repository.NewDiningEventRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	contractRepo := repository.NewContractRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)

	// Services
	feed := service.NewLiveFeed(30 * time.Second)

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  tokenRepo,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})

	templateService := service.NewTemplateService(templateRepo)
	notificationService := service.NewNotificationService(publisher, userRepo, templateService)

	restaurantService := service.NewRestaurantService(service.RestaurantServiceConfig{
		Repo:     restaurantRepo,
		UserRepo: userRepo,
		Events:   eventRepo,
	})
	menuService := service.NewMenuService(menuRepo, restaurantRepo)
	eventService := service.NewDiningEventService(service.DiningEventServiceConfig{
		Repo:            eventRepo,
		Restaurants:     restaurantRepo,
		Menu:            menuRepo,
		DefaultCurrency: cfg.Payments.Currency,
	})

	paymentService := service.NewPaymentService(service.PaymentServiceConfig{
		Payments:    paymentRepo,
		Settlements: settlementRepo,
		Tickets:     ticketRepo,
		Memberships: membershipRepo,
		Signups:     signupRepo,
		Gateway:     gateway,
		Feed:        feed,
		Notifier:    notificationService,
		ReturnURL:   cfg.ReturnURL,
		SourceType:  cfg.Payments.SourceType,
	})
	ticketService := service.NewTicketService(service.TicketServiceConfig{
		Repo:        ticketRepo,
		Events:      eventRepo,
		Restaurants: restaurantRepo,
		Memberships: membershipRepo,
		Users:       userRepo,
		Payments:    paymentService,
		Feed:        feed,
	})
	membershipService := service.NewMembershipService(service.MembershipServiceConfig{
		Repo:            membershipRepo,
		Users:           userRepo,
		Payments:        paymentService,
		Feed:            feed,
		Notifier:        notificationService,
		DefaultCurrency: cfg.Payments.Currency,
	})
	signupService := service.NewSignupService(service.SignupServiceConfig{
		Repo:     signupRepo,
		Users:    userRepo,
		Plans:    membershipRepo,
		Payments: paymentService,
		Feed:     feed,
	})
	billingService := service.NewBillingService(paymentRepo)
	contractService := service.NewContractService(service.ContractServiceConfig{
		Repo:        contractRepo,
		Templates:   templateService,
		Restaurants: restaurantRepo,
		Users:       userRepo,
		Notifier:    notificationService,
	})
	flagService := service.NewFlagService(service.FlagServiceConfig{
		Repo:     flagRepo,
		CacheTTL: cfg.Flags.CacheTTL,
	})
	memoryService := service.NewMemoryService(service.MemoryServiceConfig{
		Repo:        memoryRepo,
		Events:      eventRepo,
		Tickets:     ticketRepo,
		Restaurants: restaurantRepo,
	})

	// Background jobs
	reconciler := jobs.NewReconciler(paymentService, jobs.ReconcilerConfig{
		Interval: cfg.Jobs.ReconcileInterval,
		Grace:    cfg.Jobs.PendingGrace,
		Expiry:   cfg.Jobs.PendingExpiry,
	})
	housekeeper := jobs.NewHousekeeper(membershipService, eventService, tokenService, cfg.Jobs.MembershipInterval)
	reconciler.Start()
	housekeeper.Start()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:           cfg.Limits.Rate,
		Window:         cfg.Limits.Window,
		Burst:          cfg.Limits.Burst,
		ExemptPrefixes: []string{"/health", "/ready", "/v1/payments/webhook"},
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL: cfg.Limits.IdempotencyTTL,
	})
	defer idempotencyStore.Stop()

	mux := routes(routeDeps{
		tokens:        tokenService,
		db:            db,
		feed:          feed,
		features:      flagService,
		auth:          authService,
		restaurants:   restaurantService,
		menu:          menuService,
		events:        eventService,
		tickets:       ticketService,
		payments:      paymentService,
		memberships:   membershipService,
		signups:       signupService,
		billing:       billingService,
		templates:     templateService,
		contracts:     contractService,
		flags:         flagService,
		memories:      memoryService,
		notifications: notificationService,
	})

	wrapped := middleware.Chain(
		middleware.RecordRoute(mux),
		middleware.RequestID,
		middleware.Trace,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
		middleware.OptionalAuth(tokenService),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
	)

	// No WriteTimeout: SSE streams stay open for as long as the client listens.
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           wrapped,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.Bool("sandbox_payments", cfg.Payments.SecretKey == ""),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	reconciler.Stop()
	housekeeper.Stop()
	feed.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("trace flush failed", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// newGateway returns the Omise gateway, or the in-memory sandbox when no
// secret key is configured outside production.
func newGateway(cfg *config.Config) (payments.Gateway, error) {
	if cfg.Payments.SecretKey == "" && !cfg.IsProduction() {
		slog.Warn("OMISE_SECRET_KEY not set, using sandbox payment gateway")
		return payments.NewSandboxGateway(), nil
	}
	return payments.NewOmiseGateway(cfg.Payments.PublicKey, cfg.Payments.SecretKey)
}

type closingPublisher interface {
	service.Publisher
	Close() error
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (closingPublisher, error) {
	if !cfg.Messaging.Enabled {
		return messaging.NewLogPublisher(logger), nil
	}
	return messaging.NewRabbitPublisher(cfg.Messaging.URL, cfg.Messaging.Exchange)
}
