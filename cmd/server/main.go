// Package main is the entry point for the StudentCards server.
//
// The main package stays minimal — its job is to:
// 1. Read configuration (a .env file plus environment variables)
// 2. Create dependencies (the logger)
// 3. Hand everything to internal/server and block
//
// All actual logic lives in imported packages. The cmd/server/ layout is the
// Go convention for executable entry points; the codec and the rest of the
// internal packages are reusable from any other entry point this repo grows.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/naco727/StudentCards/internal/server"
)

func main() {
	// === 1. LOAD .env ===
	// A .env file is a development convenience, not a requirement — a
	// missing file is fine, real environment variables still apply.
	if err := godotenv.Load(); err == nil {
		slog.Debug(".env file loaded")
	}

	// === 2. SET UP LOGGING ===
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. READ CONFIGURATION ===
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/cards.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists (like `mkdir -p`).
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var allowedOrigins []string
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(origin))
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	// SNAPSHOT_TOKEN is the startup share token: when present and valid,
	// the server runs read-only against that one decoded card and never
	// touches the database. See internal/server for the mode decision.
	cfg := server.Config{
		Port:           port,
		DBPath:         dbPath,
		SnapshotToken:  os.Getenv("SNAPSHOT_TOKEN"),
		AllowedOrigins: allowedOrigins,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
