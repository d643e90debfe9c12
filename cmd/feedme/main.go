package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nadmax/feedme/internal/cli"
	"github.com/nadmax/feedme/internal/config"
	"github.com/nadmax/feedme/internal/repository"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return cli.ExitFailure
	}

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		log.Printf("failed to open %s store: %v", cfg.Store.Backend, err)
		return cli.ExitFailure
	}

	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close %s store: %v", cfg.Store.Backend, err)
		}
	}()

	app := cli.NewApp(repo, cfg.TaskConfig(), cli.WithMetricsFile(cfg.MetricsFile))

	return app.Run(ctx, os.Args[1:])
}
