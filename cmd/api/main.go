package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/glossline/salon-bookings/internal/auth"
	"github.com/glossline/salon-bookings/internal/booking"
	"github.com/glossline/salon-bookings/internal/catalog"
	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/http/handlers"
	"github.com/glossline/salon-bookings/internal/http/middleware"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
	"github.com/glossline/salon-bookings/internal/platform/mailer"
	"github.com/glossline/salon-bookings/internal/platform/tokens"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
	"github.com/glossline/salon-bookings/pkg/config"
	"github.com/glossline/salon-bookings/pkg/events"
	"github.com/glossline/salon-bookings/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := postgres.RunMigrations(ctx, cfg.Database.URL); err != nil {
		return err
	}
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	var eventBus events.EventBus
	if bus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err)
		eventBus = events.NopEventBus{}
	} else {
		eventBus = bus
		defer bus.Close()
	}

	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.Redis.URL); err != nil {
		logger.Warn("invalid redis url, rate limiting disabled", "error", err)
	} else {
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	mail := selectMailer(cfg.Email)
	clk := clock.System()
	creds := credentials.NewStore()
	authority := tokens.NewAuthority(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, clk)

	usersRepo := postgres.NewUsersRepo(pool)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)
	bookingsRepo := postgres.NewBookingsRepo(pool)
	servicesRepo := postgres.NewServicesRepo(pool)
	testimonialsRepo := postgres.NewTestimonialsRepo(pool)
	mediaRepo := postgres.NewMediaRepo(pool)

	sessions := auth.NewSessionRefresher(refreshRepo, creds, clk, cfg.Auth.RefreshTokenTTL)
	verification := auth.NewVerificationWorkflow(
		usersRepo, creds, mail, clk,
		cfg.Auth.EmailVerificationTTL, cfg.Auth.PasswordResetTTL,
		cfg.App.FrontendURL,
	)
	linker := booking.NewGuestLinkResolver(bookingsRepo, eventBus, clk)
	accounts := auth.NewAccountService(usersRepo, creds, authority, sessions, verification, linker, mail, eventBus, clk)
	ledger := booking.NewLedger(bookingsRepo, mail, eventBus, clk)
	catalogSvc := catalog.NewService(servicesRepo, testimonialsRepo, mediaRepo, clk)

	if err := accounts.EnsureSuperAdmin(ctx, cfg.App.SuperAdminEmail, cfg.App.SuperAdminPassword); err != nil {
		return err
	}

	jwtMW := middleware.NewJWT(authority)
	authLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		Prefix:   "auth",
	})

	authHandler := handlers.NewAuthHandler(accounts, verification, jwtMW, authLimiter)
	bookingsHandler := handlers.NewBookingsHandler(ledger, linker, jwtMW)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, jwtMW)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/api/users", authHandler.Routes())
	r.Mount("/api/bookings", bookingsHandler.Routes())
	r.Mount("/api", catalogHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func selectMailer(cfg config.EmailConfig) mailer.Service {
	switch {
	case cfg.DevMode:
		return mailer.NewDevMailer()
	case cfg.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.MailerSendKey, cfg.SMTPFromName, cfg.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
