package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"
)

// StudentPicturesPath is the public URL path of student pictures.
const StudentPicturesPath = "/img/students"

// LocalStorage writes pictures under the public directory so the static file
// server can serve them.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates the pictures directory inside publicDir. baseURL is
// the externally visible origin of the server, e.g. "http://localhost:3001".
func NewLocalStorage(publicDir, baseURL string) (*LocalStorage, error) {
	dir := filepath.Join(publicDir, filepath.FromSlash(strings.TrimPrefix(StudentPicturesPath, "/")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pictures directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory pictures are written to.
func (l *LocalStorage) Dir() string {
	return l.dir
}

// SavePicture writes r to the pictures directory under the base name of name
// and returns its public URL. An existing file with the same name is replaced.
func (l *LocalStorage) SavePicture(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w, err := atomicwriter.New(filepath.Join(l.dir, clean), 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", clean, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("commit %s: %w", clean, err)
	}

	return l.URL(clean), nil
}

// Remove deletes a stored picture. A missing file is not an error.
func (l *LocalStorage) Remove(name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", clean, err)
	}
	return nil
}

// URL returns the public URL of a stored picture.
func (l *LocalStorage) URL(name string) string {
	return l.baseURL + path.Join(StudentPicturesPath, name)
}

// CleanName reduces a client supplied file name to its base name.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// StudentPictureName names a student's profile picture after the student,
// keeping the extension of the uploaded file.
func StudentPictureName(studentID, uploaded string) (string, error) {
	clean, err := CleanName(studentID + strings.ToLower(path.Ext(uploaded)))
	if err != nil {
		return "", err
	}
	return clean, nil
}
