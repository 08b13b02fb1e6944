package api

import (
	"errors"
	"io"
	"net/http"
)

// multipartMemory is the part of a multipart form kept in memory; larger
// files spill to temporary files.
const multipartMemory = 8 << 20

// readLimited reads the request body, failing with *http.MaxBytesError once
// more than limit bytes arrive.
func readLimited(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
}

// parseMultipart parses a multipart request bounded by the upload limit. On
// failure it writes the error response and returns false.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "payload_too_large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "expected a multipart form", "invalid_multipart")
		return false
	}
	return true
}
