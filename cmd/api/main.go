package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/concord-chat/concord-server/internal/config"
	"github.com/concord-chat/concord-server/internal/crypto"
	"github.com/concord-chat/concord-server/internal/email"
	"github.com/concord-chat/concord-server/internal/handler"
	"github.com/concord-chat/concord-server/internal/middleware"
	"github.com/concord-chat/concord-server/internal/password"
	"github.com/concord-chat/concord-server/internal/repository"
	"github.com/concord-chat/concord-server/internal/service"
	"github.com/concord-chat/concord-server/internal/turnstile"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.Database.DSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := repository.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	defer redisClient.Close()

	repo := repository.NewUserRepository(
		repository.NewSQLStore(db),
		repository.NewRedisCache(redisClient),
	)

	codec := crypto.NewCodec(cfg.JWT.Secret)

	var mailer email.Mailer
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPMailer(cfg.SMTP, cfg.Registration.VerificationBaseURL)
	} else {
		slog.Warn("no SMTP host configured, verification links are logged instead of sent")
		mailer = &email.LogMailer{BaseURL: cfg.Registration.VerificationBaseURL}
	}

	var verifier turnstile.Verifier
	if cfg.Registration.AllowInvalidTurnstile || cfg.Registration.TurnstileSecret == "" {
		slog.Warn("turnstile verification disabled")
		verifier = turnstile.AllowAll{}
	} else {
		verifier = turnstile.NewClient(cfg.Registration.TurnstileSecret)
	}

	sessionService := service.NewSessionService(repo, codec, cfg.JWT.RefreshTokenTTL, cfg.JWT.AccessTokenTTL)
	registrationService := service.NewRegistrationService(
		repo, codec, mailer, password.DefaultRequirements(), cfg.JWT.RegistrationTokenTTL,
	)

	authHandler := handler.NewAuthHandler(sessionService, cfg.JWT.RefreshTokenTTL, cfg.JWT.AccessTokenTTL)
	registrationHandler := handler.NewRegistrationHandler(registrationService, verifier)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/authenticate", authHandler.HandleAuthenticate)
		r.Post("/register_user", registrationHandler.HandleRegister)
	})

	r.Post("/refresh_token", authHandler.HandleRefresh)
	r.Get("/verify_email", registrationHandler.HandleVerifyEmail)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AccessToken(codec))
		r.Get("/secured", authHandler.HandleSecured)
		r.Post("/logout", authHandler.HandleLogout)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
