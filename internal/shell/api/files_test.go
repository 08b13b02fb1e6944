package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/media"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

func multipartRequest(t *testing.T, method, target, field string, files map[string]string) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, field, files)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", ct)
	return req
}

// =============================================================================
// Upload Tests
// =============================================================================

func TestUploadSingle(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedStudent(t, "Ada")

	w := env.do(multipartRequest(t, http.MethodPost, "/files/"+s.ID+"/uploadSingle",
		"profilePic", map[string]string{"Me.PNG": "png-bytes"}))

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[UploadResponse](t, w.Body)
	assert.Equal(t, "http://localhost:3001/img/students/"+s.ID+".png", resp.URL)

	data, err := os.ReadFile(filepath.Join(env.publicDir, "img", "students", s.ID+".png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	stored, err := env.store.GetStudent(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.URL, stored.Avatar)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Uploads.WithLabelValues(media.DestinationLocal, "success")))
}

func TestUploadSingle_UnknownStudent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(multipartRequest(t, http.MethodPost, "/files/stu_missing/uploadSingle",
		"profilePic", map[string]string{"me.png": "png-bytes"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadSingle_MissingField(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedStudent(t, "Ada")

	w := env.do(multipartRequest(t, http.MethodPost, "/files/"+s.ID+"/uploadSingle",
		"avatar", map[string]string{"me.png": "png-bytes"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_file", parseResponse[ErrorResponse](t, w.Body).Code)
}

func TestUploadSingle_NotMultipart(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedStudent(t, "Ada")

	w := env.do(httptest.NewRequest(http.MethodPost, "/files/"+s.ID+"/uploadSingle", strings.NewReader("{}")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadSingle_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedStudent(t, "Ada")

	w := env.do(multipartRequest(t, http.MethodPost, "/files/"+s.ID+"/uploadSingle",
		"profilePic", map[string]string{"me.png": strings.Repeat("x", 128<<10)}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUploadMultiple(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadMultiple", "profilePic", map[string]string{
		"a.png": "A",
		"b.png": "B",
		"c.jpg": "C",
	}))

	require.Equal(t, http.StatusOK, w.Code)
	urls := parseResponse[UploadsResponse](t, w.Body).URLs
	sort.Strings(urls)
	assert.Equal(t, []string{
		"http://localhost:3001/img/students/a.png",
		"http://localhost:3001/img/students/b.png",
		"http://localhost:3001/img/students/c.jpg",
	}, urls)

	for name, content := range map[string]string{"a.png": "A", "b.png": "B", "c.jpg": "C"} {
		data, err := os.ReadFile(filepath.Join(env.publicDir, "img", "students", name))
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}
}

func TestUploadMultiple_NoFiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadMultiple", "other", map[string]string{"a.png": "A"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMultiple_InvalidNameWritesNothing(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadMultiple", "profilePic", map[string]string{
		"a.png": "A",
		"..":    "x",
	}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_file_name", parseResponse[ErrorResponse](t, w.Body).Code)
	assert.NoFileExists(t, filepath.Join(env.publicDir, "img", "students", "a.png"))
}

func TestUploadMultiple_FailureRemovesStoredParts(t *testing.T) {
	env := newTestEnv(t)
	// A directory in place of the target makes that part fail to save.
	require.NoError(t, os.MkdirAll(filepath.Join(env.publicDir, "img", "students", "taken.png"), 0o755))

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadMultiple", "profilePic", map[string]string{
		"a.png":     "A",
		"taken.png": "T",
	}))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", parseResponse[ErrorResponse](t, w.Body).Code)
	assert.NoFileExists(t, filepath.Join(env.publicDir, "img", "students", "a.png"))
	assert.DirExists(t, filepath.Join(env.publicDir, "img", "students", "taken.png"))
}

func TestUploads_WithoutPictureStorage(t *testing.T) {
	s, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(HandlerConfig{Store: s})
	st := domain.NewStudent(domain.Student{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, s.CreateStudent(context.Background(), st))

	for _, target := range []string{"/files/" + st.ID + "/uploadSingle", "/files/uploadMultiple"} {
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, multipartRequest(t, http.MethodPost, target, "profilePic", map[string]string{"me.png": "png"}))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
		assert.Equal(t, "media_not_configured", parseResponse[ErrorResponse](t, w.Body).Code, target)
	}
}

func TestUploadCloudinary(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadCloudinary",
		"profilePic", map[string]string{"me.png": "png"}))

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[UploadResponse](t, w.Body)
	assert.Equal(t, "strive-books/me.png", resp.PublicID)
	assert.Contains(t, resp.URL, "res.cloudinary.com")
}

func TestUploadCloudinary_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.err = media.ErrUploadFailed

	w := env.do(multipartRequest(t, http.MethodPost, "/files/uploadCloudinary",
		"profilePic", map[string]string{"me.png": "png"}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Uploads.WithLabelValues(media.DestinationCloudinary, "error")))
}

// =============================================================================
// Download Tests
// =============================================================================

func TestDownloadJSON(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "Dune", "scifi", 9.5)
	env.seedBook(t, "Emma", "classic", 5)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/downloadJSON", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=books.json.gz", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var books []domain.Book
	require.NoError(t, json.NewDecoder(zr).Decode(&books))
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestDownloadCSV(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "Dune", "scifi", 9.5)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/downloadCSV", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=books.csv", w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"asin", "title", "price", "category"},
		{"A-Dune", "Dune", "9.5", "scifi"},
	}, rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Exports.WithLabelValues("csv")))
}

func TestDownloadPDF(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/downloadPDF?firstName=Ada", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=greeting.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestPDFAsync(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "Dune", "scifi", 9.5)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/PDFAsync", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[PathResponse](t, w.Body)
	assert.Equal(t, filepath.Join(env.pdfDir, "catalogue.pdf"), resp.Path)
	assert.False(t, resp.Mailed)

	data, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Empty(t, env.mailer.sent)
}

func TestPDFAsync_Email(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/PDFAsync?email=ada@example.com", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse[PathResponse](t, w.Body).Mailed)
	require.Len(t, env.mailer.sent, 1)
	msg := env.mailer.sent[0]
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "catalogue.pdf", msg.Attachments[0].Filename)
	assert.True(t, bytes.HasPrefix(msg.Attachments[0].Content, []byte("%PDF-")))
}

func TestPDFAsync_BadEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/PDFAsync?email=nope", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPDFAsync_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = mail.ErrSendFailed

	w := env.do(httptest.NewRequest(http.MethodGet, "/files/PDFAsync?email=ada@example.com", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
