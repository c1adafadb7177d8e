// Seed fills database with sample sellers and phone numbers.
// Running it again changes nothing
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/recharge/internal/db"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/repository/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string) error {
	// .env is optional, environment wins over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	dsn := fs.StringP("database", "d", os.Getenv("DATABASE_URI"), "Database connection string")
	level := fs.StringP("log-level", "l", logger.LevelInfo, "Logging level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("database connection string is required")
	}

	l, err := logger.NewDevLogger(*level)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, *dsn, 4)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	result, err := seed(ctx, postgres.NewStorage(pool), l)
	if err != nil {
		return err
	}

	result.Print(out)
	return nil
}
