// Package server wires configuration, logging and the WebDAV handler into
// the development server process and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/davmarks/internal/filex"
	"github.com/dmitrijs2005/davmarks/internal/logging"
	"github.com/dmitrijs2005/davmarks/internal/server/config"
	"github.com/dmitrijs2005/davmarks/internal/server/dav"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *dav.Server
}

func NewApp(c *config.Config) (*App, error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	root, err := filex.EnsureDir(c.Root)
	if err != nil {
		return nil, fmt.Errorf("root dir: %w", err)
	}

	s := dav.NewServer(c.Addr, root, c.Username, c.Password, c.ShutdownTimeout, logger)

	return &App{config: c, logger: logger, server: s}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startDAVServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startDAVServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "Stopped")
}
