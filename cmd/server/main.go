package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/flagx"
	"github.com/dmitrijs2005/bitguard/internal/server"
	"github.com/dmitrijs2005/bitguard/internal/server/auth"
	"github.com/dmitrijs2005/bitguard/internal/server/config"
)

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		memguard.SafeExit(1)
	}
	memguard.Purge()
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if flagx.HasSwitch(os.Args[1:], "issue-export-token") {
		tok, err := auth.GenerateExportToken([]byte(cfg.SecretKey), cfg.ExportTokenValidityDuration)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	}

	app, err := server.NewApp(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
