package api

import "github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"

// =============================================================================
// Response Types
// =============================================================================

// CreatedResponse is returned when a resource is created.
type CreatedResponse struct {
	ID string `json:"id"`
}

// StatusResponse acknowledges an action.
type StatusResponse struct {
	Status string `json:"status"`
}

// UploadResponse is returned for a single stored file.
type UploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// UploadsResponse is returned for several stored files.
type UploadsResponse struct {
	URLs []string `json:"urls"`
}

// PathResponse reports a file generated on the server.
type PathResponse struct {
	Path   string `json:"path"`
	Mailed bool   `json:"mailed,omitempty"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
