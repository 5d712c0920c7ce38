package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubcam-sync/internal/config"
	"clubcam-sync/internal/gateway"
	"clubcam-sync/internal/handlers"
	"clubcam-sync/internal/realtime"
	"clubcam-sync/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run wires the client together and serves the local API that presentation
// adapters bind to. Everything is constructed once here and injected
// explicitly; there are no package-level service instances.
func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to the backend
	gw, err := gateway.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create backend gateway")
	}
	log.Info().Str("backend", cfg.Supabase.URL).Msg("Backend gateway ready")

	rt, err := realtime.New(cfg.Supabase, gw.Resolver())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create realtime client")
	}

	// Initialize services
	authService := services.NewAuthService(gw)
	eventService := services.NewEventService(gw, services.NoLocation{}, cfg.Events)
	photoService := services.NewPhotoService(gw)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	feedHandler := handlers.NewFeedHandler(rt)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Post("/auth/signout", authHandler.SignOut)
		r.Get("/auth/me", authHandler.Me)

		r.Post("/events", eventHandler.Create)
		r.Get("/events/nearby", eventHandler.Nearby)
		r.Get("/events/joined", eventHandler.Joined)
		r.Post("/events/{event_id}/join", eventHandler.Join)

		r.Get("/events/{event_id}/photos", photoHandler.List)
		r.Post("/events/{event_id}/photos", photoHandler.Upload)
		r.Get("/events/{event_id}/photos/feed", feedHandler.Stream)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting local API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
