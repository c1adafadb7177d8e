package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nkiryanov/recharge/internal/db"
	"github.com/nkiryanov/recharge/internal/handlers"
	"github.com/nkiryanov/recharge/internal/idempotency"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/metrics"
	"github.com/nkiryanov/recharge/internal/repository/postgres"
	"github.com/nkiryanov/recharge/internal/service/auth"
	"github.com/nkiryanov/recharge/internal/service/charge"
	"github.com/nkiryanov/recharge/internal/service/credit"
	"github.com/nkiryanov/recharge/internal/service/phone"
	"github.com/nkiryanov/recharge/internal/service/reconcile"
	"github.com/nkiryanov/recharge/internal/service/seller"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Releases db pool and redis client
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, Logger: l}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN, c.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	storage := postgres.NewStorage(pool)
	m := metrics.New()

	tokens, err := auth.New(auth.Config{SecretKey: c.SecretKey})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	services := handlers.Services{
		Credit:    credit.NewService(storage, l, m),
		Charge:    charge.NewService(storage, l, m),
		Reconcile: reconcile.NewChecker(storage, l, m),
		Seller:    seller.NewService(storage),
		Phone:     phone.NewService(storage),
		Tokens:    tokens,
		Metrics:   m.Handler(),
	}

	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		services.Idempotency = idempotency.NewRedisStore(client, idempotency.Config{})
	} else {
		l.Warn("redis address not set, charge requests are not deduplicated")
	}

	app.Handler = handlers.NewRouter(services, l)

	return app, nil
}

// Close releases connections in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
