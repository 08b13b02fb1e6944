package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/manyminds/api2go"

	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api/middleware"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api/openapi"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api/resources"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/metrics"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Store    store.Store
	Mailer   mail.Mailer
	Pictures *media.LocalStorage
	Uploader media.Uploader
	Metrics  *metrics.Registry
	Logger   *slog.Logger

	// PublicDir is served at / (uploaded pictures live under it).
	PublicDir string
	PDFDir    string

	MaxBodyBytes   int64
	MaxUploadBytes int64

	// APIKey guards mutating requests when set.
	APIKey string

	// AllowedOrigins are the browser origins accepted by CORS.
	AllowedOrigins []string

	// LogRoutes logs every resource route once the router is built.
	LogRoutes bool
}

// SetupAPI creates the complete API router: the REST resources, the JSON:API
// view, health and metrics endpoints, API docs and the public files.
func SetupAPI(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	handler := NewHandler(HandlerConfig{
		Store:          cfg.Store,
		Mailer:         cfg.Mailer,
		Pictures:       cfg.Pictures,
		Uploader:       cfg.Uploader,
		Metrics:        cfg.Metrics,
		Logger:         cfg.Logger,
		PDFDir:         cfg.PDFDir,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	routes := handler.Routes()
	if cfg.LogRoutes {
		if err := LogRoutes(routes, cfg.Logger); err != nil {
			cfg.Logger.Warn("failed to walk routes", "error", err)
		}
	}

	// JSON:API view over the same store
	jsonAPI := api2go.NewAPIWithResolver("v1", api2go.NewStaticResolver("/api"))
	jsonAPI.ContentType = "application/vnd.api+json"
	jsonAPI.AddResource(resources.Book{}, resources.NewBookResource(cfg.Store))
	jsonAPI.AddResource(resources.Student{}, resources.NewStudentResource(cfg.Store))

	router := mux.NewRouter()

	router.Use(requestIDMiddleware)
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(recoveryMiddleware(cfg.Logger))
	router.Use(middleware.NewAPIKeyMiddleware(middleware.APIKeyConfig{
		Key:    cfg.APIKey,
		Logger: cfg.Logger,
	}).Handler)

	// Health and operations endpoints
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/ready", readyHandler(cfg.Store)).Methods("GET")
	router.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")

	// API documentation
	docs := newOpenAPIGenerator()
	router.HandleFunc("/openapi.json", docs.Handler()).Methods("GET")
	router.HandleFunc("/openapi.yaml", docs.YAMLHandler()).Methods("GET")
	router.Handle("/docs", DocsHandler()).Methods("GET")

	// api2go expects paths without the /api prefix (e.g., /v1/books)
	router.PathPrefix("/api").Handler(
		http.StripPrefix("/api", http.MaxBytesHandler(jsonAPI.Handler(), cfg.MaxBodyBytes)),
	)

	// REST resources
	router.PathPrefix("/students").Handler(routes)
	router.PathPrefix("/books").Handler(routes)
	router.PathPrefix("/files").Handler(routes)

	// Public files catch-all, registered last
	router.PathPrefix("/").Handler(PublicHandler(cfg.PublicDir))

	return middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         cfg.Logger,
	})(router)
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDMiddleware generates a request ID when the client sent none and
// sets it on both the request and the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
			r.Header.Set("X-Request-ID", reqID)
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func recoveryMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					middleware.WriteError(w, http.StatusInternalServerError, "internal server error", "internal_error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Health Handlers
// =============================================================================

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

func readyHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		checks := make(map[string]string)

		if err := s.Ping(r.Context()); err != nil {
			checks["storage"] = "failed"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(ReadyResponse{Status: "not_ready", Checks: checks})
			return
		}
		checks["storage"] = "ok"

		json.NewEncoder(w).Encode(ReadyResponse{Status: "ready", Checks: checks})
	}
}

// =============================================================================
// OpenAPI
// =============================================================================

func newOpenAPIGenerator() *openapi.Generator {
	gen := openapi.NewGenerator(
		openapi.WithTitle("Strive API"),
		openapi.WithVersion("1.0.0"),
		openapi.WithDescription("Books and students REST API with file uploads and exports"),
	)
	for _, op := range restOperations() {
		gen.RegisterOperation(op)
	}
	gen.RegisterResource(openapi.ResourceInfo{
		Name:           "books",
		Model:          resources.Book{},
		SupportsFind:   true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
		Filters:        []string{"title", "category"},
	})
	gen.RegisterResource(openapi.ResourceInfo{
		Name:           "students",
		Model:          resources.Student{},
		SupportsFind:   true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
	})
	return gen
}
