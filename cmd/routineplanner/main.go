package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"routine-planner/internal/cli"
	"routine-planner/internal/config"
	"routine-planner/internal/logging"
	"routine-planner/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)
	defer store.Close()

	app := cli.NewApp(cfg, store, log)
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
