// Package api provides HTTP handlers for the books and students API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/metrics"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// Default request size limits.
const (
	DefaultMaxBodyBytes   int64 = 1 << 20
	DefaultMaxUploadBytes int64 = 10 << 20
)

// =============================================================================
// Handler
// =============================================================================

// HandlerConfig holds the dependencies of the resource handlers.
type HandlerConfig struct {
	Store    store.Store
	Mailer   mail.Mailer
	Pictures *media.LocalStorage
	Uploader media.Uploader
	Metrics  *metrics.Registry
	Logger   *slog.Logger

	PDFDir         string
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	mailer   mail.Mailer
	pictures *media.LocalStorage
	uploader media.Uploader
	metrics  *metrics.Registry
	logger   *slog.Logger

	pdfDir         string
	maxBodyBytes   int64
	maxUploadBytes int64
}

// NewHandler creates a new API handler. A nil mailer logs messages, a nil
// uploader reports the cloud endpoints as unavailable, and nil pictures do the
// same for the local upload endpoints.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mailer == nil {
		cfg.Mailer = mail.NewLogMailer("", cfg.Logger)
	}
	if cfg.Uploader == nil {
		cfg.Uploader = media.DisabledUploader{}
	}
	if cfg.PDFDir == "" {
		cfg.PDFDir = "data/pdf"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		store:          cfg.Store,
		mailer:         cfg.Mailer,
		pictures:       cfg.Pictures,
		uploader:       cfg.Uploader,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		pdfDir:         cfg.PDFDir,
		maxBodyBytes:   cfg.MaxBodyBytes,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Routes returns the router with all resource routes configured.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(h.requestIDHeader)
	r.Use(h.observe)

	r.Route("/students", func(r chi.Router) {
		r.Post("/", h.handleCreateStudent)
		r.Get("/", h.handleListStudents)
		r.Post("/register", h.handleRegister)
		r.Get("/{id}", h.handleGetStudent)
		r.Put("/{id}", h.handleUpdateStudent)
		r.Delete("/{id}", h.handleDeleteStudent)
	})

	r.Route("/books", func(r chi.Router) {
		r.Post("/", h.handleCreateBook)
		r.Get("/", h.handleListBooks)
		r.Get("/{id}", h.handleGetBook)
		r.Put("/{id}", h.handleUpdateBook)
		r.Delete("/{id}", h.handleDeleteBook)
		r.Put("/{id}/cover", h.handleUploadCover)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/{studentID}/uploadSingle", h.handleUploadSingle)
		r.Post("/uploadMultiple", h.handleUploadMultiple)
		r.Post("/uploadCloudinary", h.handleUploadCloudinary)
		r.Get("/downloadJSON", h.handleDownloadJSON)
		r.Get("/downloadPDF", h.handleDownloadPDF)
		r.Get("/downloadCSV", h.handleDownloadCSV)
		r.Get("/PDFAsync", h.handlePDFAsync)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "route not found", "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
	})

	return r
}

// LogRoutes logs every registered route, one line per method and pattern.
func LogRoutes(routes chi.Routes, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Info("route registered", "method", method, "path", route)
		return nil
	})
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// observe records request counts and latency by route pattern.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, errs validation.Errors) {
	h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  errs.Error(),
		Code:   "validation_error",
		Errors: errs,
	})
}

// readBody reads a JSON request body up to the configured limit. On failure
// it writes the error response and returns false.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := readLimited(w, r, h.maxBodyBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "payload_too_large")
			return nil, false
		}
		h.writeError(w, http.StatusBadRequest, "failed to read request body", "invalid_body")
		return nil, false
	}
	return body, true
}

// decodeBody decodes a JSON request body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := h.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "invalid_json")
		return false
	}
	return true
}

// listOptions reads limit and offset query parameters.
func listOptions(r *http.Request) store.ListOptions {
	var opts store.ListOptions
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
