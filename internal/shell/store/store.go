package store

import (
	"context"
	"fmt"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for books and students.
// Every collection holds objects with unique ids; implementations must keep
// that true under concurrent use.
//
// UpdateBookFunc and UpdateStudentFunc run fn on the current record and store
// its result as one atomic step. An error from fn aborts the update and is
// returned unchanged.
type Store interface {
	// Book operations
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	UpdateBookFunc(ctx context.Context, id string, fn func(*domain.Book) (*domain.Book, error)) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	ListBooks(ctx context.Context, filter domain.BookFilter, opts ListOptions) ([]domain.Book, error)

	// Student operations
	CreateStudent(ctx context.Context, student *domain.Student) error
	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	UpdateStudent(ctx context.Context, student *domain.Student) error
	UpdateStudentFunc(ctx context.Context, id string, fn func(*domain.Student) (*domain.Student, error)) (*domain.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	ListStudents(ctx context.Context, opts ListOptions) ([]domain.Student, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options. A zero Limit returns every entry.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit < 0 {
		o.Limit = 0
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// page returns the window of items selected by the options.
func page[T any](items []T, opts ListOptions) []T {
	opts = opts.Normalize()
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// =============================================================================
// Factory
// =============================================================================

// Drivers supported by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Driver  string // "json" (default) or "sqlite"
	DataDir string // directory holding books.json and students.json
	DSN     string // SQLite database path
}

// Open creates the backend named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverJSON:
		return NewJSONStore(cfg.DataDir)
	case DriverSQLite:
		return NewSQLiteStore(cfg.DSN)
	default:
		return nil, NewStoreError("Open", "", "", fmt.Sprintf("unknown storage driver %q", cfg.Driver), ErrConnectionFailed)
	}
}
