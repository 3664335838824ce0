package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/naira-pay/naira_pay/internal/infra"
	"github.com/naira-pay/naira_pay/internal/logging"
)

//go:embed schema.sql
var schema string

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewPostgresPool(ctx, url)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		logger.Error("apply schema", "error", err)
		os.Exit(1)
	}

	logger.Info("schema applied")
}
