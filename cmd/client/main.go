package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/davmarks/internal/client/cli"
	"github.com/dmitrijs2005/davmarks/internal/client/config"
	"github.com/dmitrijs2005/davmarks/internal/filex"
	"github.com/dmitrijs2005/davmarks/internal/logging"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		log.Fatalf("%v", err)
	}

	// the terminal belongs to the REPL, so records go to a file
	logger, closer := logging.NewFileLogger(cfg.LogPath(), level)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)

}
