package main

import (
	"context"
	"log"

	"github.com/avolkovs/pennywise/internal/client/cli"
	"github.com/avolkovs/pennywise/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Run(ctx)
}
