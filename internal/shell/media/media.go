// Package media stores uploaded pictures on local disk or in Cloudinary.
package media

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrInvalidName is returned for file names that do not name a file.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotConfigured is returned by uploaders that have no credentials.
	ErrNotConfigured = errors.New("media provider not configured")

	// ErrUploadFailed is returned when the remote provider rejects an upload.
	ErrUploadFailed = errors.New("upload failed")
)

// Destination labels where an upload went, for logs and metrics.
const (
	DestinationLocal      = "local"
	DestinationCloudinary = "cloudinary"
)

// UploadResult describes a stored remote asset.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Uploader sends a file to a remote media host.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error)
}

// DisabledUploader is used when no remote media host is configured.
type DisabledUploader struct{}

// Upload always fails with ErrNotConfigured.
func (DisabledUploader) Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	return nil, ErrNotConfigured
}
