package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/samanvay/attendance_service/internal/app"
	"github.com/samanvay/attendance_service/internal/config"
	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s up|down|status\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(context.Background(), cfg, flag.Arg(0), logger); err != nil {
		logger.Fatal("Migration failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, command string, logger *zap.Logger) error {
	pool, err := app.NewPool(ctx, cfg.GetDBDSN(), logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
