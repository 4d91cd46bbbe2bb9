package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/client/cli"
	"github.com/dmitrijs2005/bitguard/internal/client/config"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("%v", err)
		memguard.SafeExit(1)
	}

	app, err := cli.NewApp(cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Printf("%v", err)
		memguard.SafeExit(1)
	}

	app.Run(ctx)
}
