package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("strive-api %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting strive-api",
		"version", Version,
		"config", *configPath,
		"storage", cfg.Storage.Driver,
		"data", storageLocation(cfg.Storage),
		"public_dir", cfg.Files.PublicDir,
		"pdf_dir", cfg.Files.PDFDir,
		"port", cfg.Server.Port,
	)

	server, err := NewServer(cfg, logger)
	if err != nil {
		return fail(logger, "failed to create server", err, ExitConfigError)
	}
	if err := server.Start(context.Background()); err != nil {
		return fail(logger, "server error", err, ExitHTTPServerError)
	}
	return ExitSuccess
}

// storageLocation is the directory or database file holding books and students.
func storageLocation(cfg StorageConfig) string {
	if cfg.Driver == store.DriverSQLite {
		return cfg.DSN
	}
	return cfg.DataDir
}

// fail logs err and picks the exit code carried by a ServerError, or fallback.
func fail(logger *slog.Logger, msg string, err error, fallback int) int {
	var sErr *ServerError
	if errors.As(err, &sErr) {
		logger.Error(msg, "error", sErr.Err, "operation", sErr.Op, "exit_code", sErr.ExitCode)
		return sErr.ExitCode
	}
	logger.Error(msg, "error", err, "exit_code", fallback)
	return fallback
}
