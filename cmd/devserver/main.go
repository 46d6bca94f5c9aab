package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/davmarks/internal/server"
	"github.com/dmitrijs2005/davmarks/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
