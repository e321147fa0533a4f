package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ibrknu/card-inventory-app/internal/api"
	"github.com/ibrknu/card-inventory-app/internal/config"
	"github.com/ibrknu/card-inventory-app/internal/db"
	"github.com/ibrknu/card-inventory-app/internal/logger"
	"github.com/ibrknu/card-inventory-app/internal/store"
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage: card-inventory <command> [flags]

Commands:
  serve   run the HTTP API server (default)
  init    create the database and apply migrations, then exit
  stats   print inventory totals and exit

Flags:
  -db <path>     SQLite database path (overrides CARD_INV_DB_PATH)
  -addr <addr>   listen address for serve (overrides CARD_INV_ADDR)
`)
}

func main() {
	cfg := config.Load()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0][0] != '-' {
		cmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = usage
	dbPath := fs.String("db", cfg.DBPath, "SQLite database path")
	addr := fs.String("addr", cfg.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	switch cmd {
	case "serve":
		if err := runServe(cfg, *dbPath, *addr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(*dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "stats":
		if err := runStats(*dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

func runInit(dbPath string) error {
	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Printf("Database ready: %s\n", dbPath)
	return nil
}

func runStats(dbPath string) error {
	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := store.GetInventoryStats(context.Background(), database)
	if err != nil {
		return fmt.Errorf("reading inventory stats: %w", err)
	}

	fmt.Printf("Items:          %d\n", stats.TotalItems)
	fmt.Printf("Named items:    %d\n", stats.NamedItems)
	fmt.Printf("Total quantity: %d\n", stats.TotalQuantity)
	fmt.Printf("Total value:    %s\n", stats.TotalValue.StringFixed(2))
	fmt.Printf("Scan events:    %d\n", stats.TotalScans)
	return nil
}

func runServe(cfg config.Config, dbPath, addr string) error {
	log, err := logger.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Info("database ready", zap.String("path", dbPath))

	handler := api.RequestIDMiddleware(api.LoggingMiddleware(log)(api.NewRouter(database)))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped")
	return nil
}
