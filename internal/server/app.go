// Package server wires configuration, storage, the auth core and the HTTP
// API together and runs them until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/auth"
	"github.com/dmitrijs2005/backoffice/internal/server/config"
	"github.com/dmitrijs2005/backoffice/internal/server/rbac"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/backoffice/internal/server/rest"
	"github.com/dmitrijs2005/backoffice/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	server      *rest.HTTPServer
}

// NewApp builds every component from c. The signing key and algorithm are
// read once here and passed down explicitly.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return nil, fmt.Errorf("login rate limit and burst must be positive, got %v/%d", c.LoginRateLimit, c.LoginRateBurst)
	}

	rm, err := repomanager.New(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.SigningAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	memberships := rbac.NewMembershipResolver(rm.Groups())
	authenticator := auth.NewAuthenticator(tokens, auth.NewIdentityResolver(rm.Users()))

	us := services.NewUserService(rm, tokens, memberships, rest.IsAdminGate(), logger)
	gs := services.NewGroupService(rm, logger)

	handler := rest.NewHandler(authenticator, memberships, us, gs, logger).Routes(rest.RouterConfig{
		LoginRateLimit:     c.LoginRateLimit,
		LoginRateBurst:     c.LoginRateBurst,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
	})

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		server:      rest.NewHTTPServer(c.EndpointAddrHTTP, handler, logger),
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
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run migrates the schema and serves HTTP until ctx is cancelled or a
// termination signal arrives. The store is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return err
	}

	if err := app.server.Run(ctx); err != nil {
		return fmt.Errorf("http server error: %w", err)
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
