package api

import (
	"context"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/document"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/export"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/pdf"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// Multipart field and download names.
const (
	pictureField    = "profilePic"
	cataloguePDF    = "catalogue.pdf"
	greetingPDF     = "greeting.pdf"
	booksCSV        = "books.csv"
	booksJSONGzip   = "books.json.gz"
	contentTypeGzip = "application/gzip"
)

// =============================================================================
// Upload Handlers
// =============================================================================

// handleUploadSingle stores a student's profile picture as <studentID><ext>
// and records its URL as the student's avatar.
func (h *Handler) handleUploadSingle(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if !h.picturesEnabled(w) {
		return
	}

	if _, err := h.store.GetStudent(r.Context(), studentID); err != nil {
		h.writeStudentError(w, studentID, "get", err)
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}
	file, header, err := r.FormFile(pictureField)
	if err != nil {
		h.writeMissingFile(w)
		return
	}
	defer file.Close()

	name, err := media.StudentPictureName(studentID, header.Filename)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_file_name")
		return
	}

	url, err := h.pictures.SavePicture(r.Context(), name, file)
	h.metrics.RecordUpload(media.DestinationLocal, err)
	if err != nil {
		h.logger.Error("failed to save picture", "student_id", studentID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save picture", "internal_error")
		return
	}

	_, err = h.store.UpdateStudentFunc(r.Context(), studentID, func(current *domain.Student) (*domain.Student, error) {
		return current.WithAvatar(url), nil
	})
	if err != nil {
		h.writeStudentError(w, studentID, "update", err)
		return
	}

	h.logger.Info("profile picture stored", "student_id", studentID, "url", url)
	h.writeJSON(w, http.StatusOK, UploadResponse{URL: url})
}

// handleUploadMultiple stores every "profilePic" part concurrently. Names are
// checked before anything is written, and a failed request removes the files
// it already stored.
func (h *Handler) handleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	if !h.picturesEnabled(w) {
		return
	}
	if !h.parseMultipart(w, r) {
		return
	}
	headers := r.MultipartForm.File[pictureField]
	if len(headers) == 0 {
		h.writeMissingFile(w)
		return
	}

	names := make([]string, len(headers))
	for i, fh := range headers {
		name, err := media.CleanName(fh.Filename)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_file_name")
			return
		}
		names[i] = name
	}

	urls := make([]string, len(headers))
	g, ctx := errgroup.WithContext(r.Context())
	for i, fh := range headers {
		g.Go(func() error {
			url, err := h.savePart(ctx, names[i], fh)
			h.metrics.RecordUpload(media.DestinationLocal, err)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for i, url := range urls {
			if url == "" {
				continue
			}
			if rmErr := h.pictures.Remove(names[i]); rmErr != nil {
				h.logger.Warn("failed to remove picture", "name", names[i], "error", rmErr)
			}
		}
		h.logger.Error("failed to save pictures", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save pictures", "internal_error")
		return
	}

	h.logger.Info("pictures stored", "count", len(urls))
	h.writeJSON(w, http.StatusOK, UploadsResponse{URLs: urls})
}

func (h *Handler) savePart(ctx context.Context, name string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.pictures.SavePicture(ctx, name, f)
}

// picturesEnabled answers 503 when no local picture storage is configured.
func (h *Handler) picturesEnabled(w http.ResponseWriter) bool {
	if h.pictures == nil {
		h.writeError(w, http.StatusServiceUnavailable, "picture storage is not configured", "media_not_configured")
		return false
	}
	return true
}

// handleUploadCloudinary sends the "profilePic" file to the remote media host.
func (h *Handler) handleUploadCloudinary(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	file, header, err := r.FormFile(pictureField)
	if err != nil {
		h.writeMissingFile(w)
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(r.Context(), header.Filename, file)
	h.metrics.RecordUpload(media.DestinationCloudinary, err)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, UploadResponse{URL: result.URL, PublicID: result.PublicID})
}

func (h *Handler) writeMissingFile(w http.ResponseWriter) {
	h.writeError(w, http.StatusBadRequest, `multipart field "`+pictureField+`" is required`, "missing_file")
}

// =============================================================================
// Download Handlers
// =============================================================================

// handleDownloadJSON streams the book collection as gzipped JSON.
func (h *Handler) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	books, ok := h.allBooks(w, r)
	if !ok {
		return
	}

	setAttachment(w, contentTypeGzip, booksJSONGzip)
	if err := export.WriteBooksJSONGzip(w, books); err != nil {
		h.logger.Error("failed to stream books archive", "error", err)
		return
	}
	h.metrics.RecordExport(string(export.FormatJSONGzip))
}

// handleDownloadPDF streams a greeting PDF for the firstName query parameter.
func (h *Handler) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	doc := document.Greeting(r.URL.Query().Get("firstName"))

	setAttachment(w, "application/pdf", greetingPDF)
	if err := pdf.Render(w, doc); err != nil {
		h.logger.Error("failed to stream pdf", "error", err)
		return
	}
	h.metrics.RecordExport(string(export.FormatPDF))
}

// handleDownloadCSV streams the book collection as CSV.
func (h *Handler) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	books, ok := h.allBooks(w, r)
	if !ok {
		return
	}

	setAttachment(w, "text/csv", booksCSV)
	if err := export.WriteBooksCSV(w, books); err != nil {
		h.logger.Error("failed to stream csv", "error", err)
		return
	}
	h.metrics.RecordExport(string(export.FormatCSV))
}

// handlePDFAsync writes the book catalogue PDF into the PDF directory and,
// when an email query parameter is given, mails it as an attachment.
func (h *Handler) handlePDFAsync(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("email")
	if to != "" {
		if errs := validation.Check(domain.Registration{Email: to}); errs != nil {
			h.writeValidationError(w, errs)
			return
		}
	}

	books, ok := h.allBooks(w, r)
	if !ok {
		return
	}
	doc := document.Catalogue(books)

	path, err := pdf.WriteFile(filepath.Join(h.pdfDir, cataloguePDF), doc)
	if err != nil {
		h.logger.Error("failed to write catalogue", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to write pdf", "internal_error")
		return
	}
	h.metrics.RecordExport(string(export.FormatPDF))
	h.logger.Info("catalogue written", "path", path, "books", len(books))

	resp := PathResponse{Path: path}
	if to != "" {
		content, err := pdf.Bytes(doc)
		if err == nil {
			err = h.mailer.Send(r.Context(), mail.CatalogueMessage(to, content))
			h.metrics.RecordEmail(h.mailer.Provider(), err)
		}
		if err != nil {
			h.logger.Error("failed to mail catalogue", "to", to, "error", err)
			h.writeError(w, http.StatusBadGateway, "failed to send email", "mail_failed")
			return
		}
		resp.Mailed = true
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) allBooks(w http.ResponseWriter, r *http.Request) ([]domain.Book, bool) {
	books, err := h.store.ListBooks(r.Context(), domain.BookFilter{}, store.ListOptions{})
	if err != nil {
		h.logger.Error("failed to list books", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list books", "internal_error")
		return nil, false
	}
	return books, true
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}
