package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/metrics"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitStorageError    = 2
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the API application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	s, err := store.Open(store.Config{
		Driver:  cfg.Storage.Driver,
		DataDir: cfg.Storage.DataDir,
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitStorageError,
		}
	}

	pictures, err := media.NewLocalStorage(cfg.Files.PublicDir, cfg.Server.BaseURL())
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitStorageError,
		}
	}
	if err := os.MkdirAll(cfg.Files.PDFDir, 0o755); err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      fmt.Errorf("create pdf directory: %w", err),
			ExitCode: ExitStorageError,
		}
	}

	uploader, err := newUploader(cfg.Cloudinary, logger)
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	handler := api.SetupAPI(api.APIConfig{
		Store:          s,
		Mailer:         newMailer(cfg.Mail, logger),
		Pictures:       pictures,
		Uploader:       uploader,
		Metrics:        metrics.New(),
		Logger:         logger,
		PublicDir:      cfg.Files.PublicDir,
		PDFDir:         cfg.Files.PDFDir,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxUploadBytes: cfg.Files.MaxUploadBytes,
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.CORS.Origins(),
		LogRoutes:      true,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server configured",
		"storage", cfg.Storage.Driver,
		"public_dir", cfg.Files.PublicDir,
		"auth", cfg.Auth.APIKey != "",
		"origins", len(cfg.CORS.Origins()),
	)

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		logger:     logger,
	}, nil
}

// newMailer picks SendGrid when a key is configured, the log mailer otherwise.
func newMailer(cfg MailConfig, logger *slog.Logger) mail.Mailer {
	if strings.ToLower(cfg.Provider) == mail.ProviderSendGrid && cfg.SendGridKey != "" {
		logger.Info("mail enabled", "provider", mail.ProviderSendGrid, "sender", cfg.SenderEmail)
		return mail.NewSendGridClient(mail.SendGridConfig{
			APIKey:  cfg.SendGridKey,
			From:    cfg.SenderEmail,
			BaseURL: cfg.BaseURL,
		}, logger)
	}
	logger.Warn("no SendGrid key configured, emails are only logged")
	return mail.NewLogMailer(cfg.SenderEmail, logger)
}

// newUploader returns a Cloudinary client, or a disabled uploader when no
// Cloudinary URL is configured.
func newUploader(cfg CloudinaryConfig, logger *slog.Logger) (media.Uploader, error) {
	if cfg.URL == "" {
		logger.Warn("cloudinary disabled, cloud upload endpoints answer 503")
		return media.DisabledUploader{}, nil
	}
	cc, err := media.ParseCloudinaryURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	cc.Folder = cfg.Folder
	cc.BaseURL = cfg.BaseURL
	logger.Info("cloudinary enabled", "cloud", cc.CloudName, "folder", cfg.Folder)
	return media.NewCloudinaryClient(cc, logger), nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.store.Close()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("storage close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
