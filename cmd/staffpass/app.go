package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/esavelyev/staffpass/internal/db"
	"github.com/esavelyev/staffpass/internal/handlers"
	"github.com/esavelyev/staffpass/internal/logger"
	"github.com/esavelyev/staffpass/internal/repository/postgres"
	redisrepo "github.com/esavelyev/staffpass/internal/repository/redis"
	"github.com/esavelyev/staffpass/internal/service/auth"
	"github.com/esavelyev/staffpass/internal/service/auth/tokencodec"
	"github.com/esavelyev/staffpass/internal/service/employee"
	"github.com/esavelyev/staffpass/internal/service/identity"
	"github.com/esavelyev/staffpass/internal/service/maintenance"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Sweeper    *maintenance.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// The revocation ledger lives in postgres unless redis is configured
	ledger := storage.Revocation()
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("cant reach redis. Err: %w", err)
		}
		ledger = redisrepo.NewRevokedTokenRepo(client)
		logger.Info("Using redis revocation ledger", "addr", c.RedisAddr)
	}

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, codec, storage, ledger)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	identityService := identity.NewService(auth.DefaultHasher, storage.User())
	employeeService := employee.NewService(storage.Employee())

	// Bootstrap the admin account if configured
	created, err := identityService.EnsureAdmin(ctx, c.AdminEmail, c.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("error while bootstrapping admin. Err: %w", err)
	}
	if created {
		logger.Info("Bootstrap admin account created", "email", c.AdminEmail)
	}

	sweeper := maintenance.New(
		maintenance.Config{Retention: codec.RefreshTTL()},
		storage.Session(),
		ledger,
		logger,
	)

	mux := handlers.NewRouter(authService, employeeService, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Sweeper:    sweeper,
	}, nil
}

// Run starts the http server and the maintenance sweeper and closes both
// gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.Sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
