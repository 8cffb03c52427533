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

	"github.com/notely/notely-go/internal/config"
	"github.com/notely/notely-go/internal/crypto"
	"github.com/notely/notely-go/internal/handler"
	"github.com/notely/notely-go/internal/mailer"
	"github.com/notely/notely-go/internal/middleware"
	"github.com/notely/notely-go/internal/oauth"
	"github.com/notely/notely-go/internal/repository"
	"github.com/notely/notely-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	var mail service.Mailer
	if cfg.SMTP.Configured() {
		smtp, err := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
		if err != nil {
			slog.Error("smtp client setup failed", "error", err)
			os.Exit(1)
		}
		mail = smtp
	} else {
		slog.Warn("smtp not configured, falling back to logging mailer")
		mail = mailer.Noop{}
	}

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	authService := service.NewAuthService(userRepo, mail, cfg.JWTSecret, crypto.TokenTTL)
	noteService := service.NewNoteService(noteRepo)

	google := oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	if !google.Enabled() {
		slog.Warn("google oauth credentials not configured, google sign-in disabled")
	}

	authHandler := handler.NewAuthHandler(authService)
	oauthHandler := handler.NewOAuthHandler(google, authService, cfg.FrontendURL)
	noteHandler := handler.NewNoteHandler(noteService)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst))
		r.Post("/api/auth/signup", authHandler.HandleSignup)
		r.Post("/api/auth/verify-otp", authHandler.HandleVerifyOTP)
		r.Post("/api/auth/signin", authHandler.HandleSignin)
		r.Post("/api/auth/resend-otp", authHandler.HandleResendOTP)
		r.Get("/api/auth/google", oauthHandler.HandleGoogleLogin)
		r.Get("/api/auth/google/callback", oauthHandler.HandleGoogleCallback)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret, userRepo))
		r.Post("/api/auth/signout", authHandler.HandleSignout)
		r.Get("/api/auth/me", authHandler.HandleMe)

		r.Get("/api/notes", noteHandler.HandleListNotes)
		r.Post("/api/notes", noteHandler.HandleCreateNote)
		r.Delete("/api/notes", noteHandler.HandleBulkDelete)
		r.Get("/api/notes/tags/all", noteHandler.HandleListTags)
		r.Get("/api/notes/search/suggestions", noteHandler.HandleSuggestions)
		r.Get("/api/notes/{id}", noteHandler.HandleGetNote)
		r.Put("/api/notes/{id}", noteHandler.HandleUpdateNote)
		r.Delete("/api/notes/{id}", noteHandler.HandleDeleteNote)
		r.Patch("/api/notes/{id}/pin", noteHandler.HandleTogglePin)
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
