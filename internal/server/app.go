// Package server initializes and runs the account server. It opens the
// account store, wires the id generator, credential hasher, token codec and
// account core, and serves the gRPC endpoint next to the metrics and health
// endpoint until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/idgen"
	"github.com/dmitrijs2005/accounts/internal/server/metrics"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/services"

	gs "github.com/dmitrijs2005/accounts/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    repomanager.RepositoryManager
	accounts *services.AccountService
	tokens   *auth.TokenCodec
	metrics  *metrics.Metrics
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	logOutput io.Writer
	hasher    auth.PasswordHasher
}

// WithLogOutput redirects the JSON log stream (stdout by default).
func WithLogOutput(w io.Writer) AppOption {
	return func(o *appOptions) { o.logOutput = w }
}

// WithPasswordHasher replaces the default Argon2id hasher.
func WithPasswordHasher(h auth.PasswordHasher) AppOption {
	return func(o *appOptions) { o.hasher = h }
}

func NewApp(ctx context.Context, c *config.Config, opts ...AppOption) (*App, error) {
	o := appOptions{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := logging.NewJSONLogger(o.logOutput, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	generated, err := c.EnsureSecret()
	if err != nil {
		return nil, err
	}
	if generated {
		logger.Warn(ctx, "No secret key configured, generated a random one; tokens will not survive a restart")
	}

	ids, err := idgen.New(c.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("id generator init error: %w", err)
	}

	store, err := repomanager.Open(ctx, c.DatabaseDSN, logger, repomanager.OpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	registry := auth.NewRegistry()

	tokens, err := auth.NewTokenCodec([]byte(c.SecretKey), c.TokenValidityDuration, registry,
		auth.WithTokenLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	hasher := o.hasher
	if hasher == nil {
		hasher = auth.NewArgon2idHasher(auth.DefaultArgon2Params)
	}

	accounts := services.NewAccountService(store, ids, hasher, tokens, registry,
		services.WithPhoneRegion(c.PhoneRegion),
		services.WithLogger(logger),
	)

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		accounts: accounts,
		tokens:   tokens,
		metrics:  metrics.New(),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.tokens, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := metrics.NewServer(app.config.MetricsAddr, app.metrics, app.store.Ping, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"grpc_addr", app.config.EndpointAddrGRPC,
		"instance_id", app.config.InstanceID,
	)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "Error closing store", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
