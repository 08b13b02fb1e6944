package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
)

// =============================================================================
// Book Handlers
// =============================================================================

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var input domain.Book
	if !h.decodeBody(w, r, &input) {
		return
	}

	book := domain.NewBook(input)
	if errs := validation.Check(book); errs != nil {
		h.writeValidationError(w, errs)
		return
	}

	if err := h.store.CreateBook(r.Context(), book); err != nil {
		h.logger.Error("failed to create book", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create book", "internal_error")
		return
	}

	h.logger.Info("book created", "book_id", book.ID)
	h.writeJSON(w, http.StatusCreated, CreatedResponse{ID: book.ID})
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := domain.BookFilter{
		Title:    r.URL.Query().Get("title"),
		Category: r.URL.Query().Get("category"),
	}

	books, err := h.store.ListBooks(r.Context(), filter, listOptions(r))
	if err != nil {
		h.logger.Error("failed to list books", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list books", "internal_error")
		return
	}
	if books == nil {
		books = []domain.Book{}
	}

	h.writeJSON(w, http.StatusOK, books)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		h.writeBookError(w, id, "get", err)
		return
	}

	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	patch, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var invalid validation.Errors
	updated, err := h.store.UpdateBookFunc(r.Context(), id, func(existing *domain.Book) (*domain.Book, error) {
		merged, err := existing.Merge(patch)
		if err != nil {
			return nil, err
		}
		if invalid = validation.Check(merged); invalid != nil {
			return nil, invalid
		}
		return merged, nil
	})
	switch {
	case errors.Is(err, domain.ErrInvalidPatch):
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "invalid_json")
		return
	case invalid != nil:
		h.writeValidationError(w, invalid)
		return
	case err != nil:
		h.writeBookError(w, id, "update", err)
		return
	}

	h.logger.Info("book updated", "book_id", id)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		h.writeBookError(w, id, "delete", err)
		return
	}

	h.logger.Info("book deleted", "book_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadCover sends the "cover" file to the remote media host and
// stores the resulting URL on the book.
func (h *Handler) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetBook(r.Context(), id); err != nil {
		h.writeBookError(w, id, "get", err)
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, `multipart field "cover" is required`, "missing_file")
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(r.Context(), header.Filename, file)
	h.metrics.RecordUpload(media.DestinationCloudinary, err)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	updated, err := h.store.UpdateBookFunc(r.Context(), id, func(current *domain.Book) (*domain.Book, error) {
		return current.WithCover(result.URL), nil
	})
	if err != nil {
		h.writeBookError(w, id, "update", err)
		return
	}

	h.logger.Info("book cover uploaded", "book_id", id, "url", result.URL)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeBookError(w http.ResponseWriter, id, op string, err error) {
	if isNotFound(err) {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("Book with id %s not found!", id), "book_not_found")
		return
	}
	h.logger.Error("book operation failed", "op", op, "book_id", id, "error", err)
	h.writeError(w, http.StatusInternalServerError, "failed to "+op+" book", "internal_error")
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, media.ErrNotConfigured) {
		h.writeError(w, http.StatusServiceUnavailable, "cloud uploads are not configured", "media_not_configured")
		return
	}
	h.logger.Error("upload failed", "error", err)
	h.writeError(w, http.StatusBadGateway, "upload failed", "upload_failed")
}
