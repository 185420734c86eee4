package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"room-booking/config"
	"room-booking/controllers"
	"room-booking/events"
	"room-booking/logging"
	"room-booking/routes"
	"room-booking/services"
	"room-booking/storage"
)

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug(".env not loaded; using process environment", "err", envErr)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase(ctx, cfg.Database, log, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.Info("database ready", "driver", cfg.Database.Driver)

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("image storage: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Warn("booking events disabled", "err", err)
		} else {
			publisher = p
			log.Info("publishing booking events", "queue", cfg.AMQP.Queue)
		}
	}
	defer publisher.Close()

	// a nil *redis.Client must reach the middleware as a nil interface
	var limiter redis.Scripter
	if rdb := config.NewRedisClient(ctx, cfg.Redis); rdb != nil {
		defer rdb.Close()
		limiter = rdb
	} else if cfg.RateLimit.Enabled {
		log.Warn("rate limiting disabled: redis not configured or unreachable")
	}

	users := services.NewUserService(db, cfg.BcryptCost)
	auth := services.NewAuthService(db, users)
	rooms := services.NewRoomService(db, store, log)
	images := services.NewImageService(db, store, log)
	bookings := services.NewBookingService(db, publisher, log)

	if cfg.Admin.Email != "" {
		u, created, err := users.EnsureSuperuser(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName)
		if err != nil {
			return fmt.Errorf("seed superuser: %w", err)
		}
		log.Info("superuser ready", "user_id", u.ID, "created", created)
	}

	router := routes.SetupRouter(cfg, log, auth, limiter, routes.Handlers{
		Auth:     controllers.NewAuthController(auth),
		Rooms:    controllers.NewRoomController(rooms),
		Images:   controllers.NewImageController(images),
		Bookings: controllers.NewBookingController(bookings),
		Users:    controllers.NewUserController(users),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
