// Package server initializes and runs the comment-generation server.
// It selects the storage backend, wires the services and the HTTP API,
// and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/email"
	"github.com/remarkly/backend/internal/server/generation"
	"github.com/remarkly/backend/internal/server/httpapi"
	"github.com/remarkly/backend/internal/server/llm"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/payment"
	"github.com/remarkly/backend/internal/server/store"
	"github.com/remarkly/backend/internal/server/users"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     store.Manager
	api       *httpapi.Server
	simulated *payment.SimulatedProvider
	payment   *payment.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	manager, err := store.NewManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	userSvc := users.NewService(manager.Users(), cfg)
	orderSvc := orders.NewService(manager.Orders(), cfg)

	gateway := llm.NewClient(cfg, logger)
	genSvc := generation.NewService(manager.Users(), gateway, logger)

	app := &App{config: cfg, logger: logger, store: manager}

	var provider payment.Provider
	if cfg.AlipayAppID != "" {
		alipay, err := payment.NewAlipayProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("alipay init error: %w", err)
		}
		provider = alipay
	} else {
		logger.Info(ctx, "no alipay app id configured, using simulated payments")
		app.simulated = payment.NewSimulatedProvider(cfg.SettlementDelay, logger)
		provider = app.simulated
	}

	receipts := email.NewSender(cfg, logger)
	paySvc := payment.NewService(orderSvc, manager.Users(), provider, receipts, logger)
	if app.simulated != nil {
		app.simulated.SetSettleFunc(paySvc.SettleSimulated)
	}
	app.payment = paySvc

	app.api = httpapi.NewServer(cfg, userSvc, genSvc, paySvc, gateway.Vendors(), manager, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startCron(ctx context.Context) *cron.Cron {

	c := cron.New()
	if _, err := c.AddFunc("@every 1h", func() { app.payment.PurgeStale(ctx) }); err != nil {
		app.logger.Error(ctx, "cron schedule error", "error", err.Error())
		return c
	}
	c.Start()
	return c
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	purger := app.startCron(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	<-purger.Stop().Done()

	if app.simulated != nil {
		app.simulated.Shutdown()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.store.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "store close error", "error", err.Error())
	}

	app.logger.Info(context.Background(), "app stopped")
}
