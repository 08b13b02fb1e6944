package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/moby/sys/atomicwriter"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

// File names of the collections inside the data directory.
const (
	BooksFile    = "books.json"
	StudentsFile = "students.json"
)

// =============================================================================
// JSONStore
// =============================================================================

// JSONStore implements Store with one JSON array file per collection.
type JSONStore struct {
	dir      string
	books    *collection[domain.Book]
	students *collection[domain.Student]
}

// NewJSONStore creates a store rooted at dir, creating the directory if needed.
// Collection files are created on first write.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		return nil, NewStoreError("NewJSONStore", "", "", "data directory is required", ErrConnectionFailed)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewStoreError("NewJSONStore", "", "", err.Error(), ErrConnectionFailed)
	}

	return &JSONStore{
		dir: dir,
		books: &collection[domain.Book]{
			path:   filepath.Join(dir, BooksFile),
			entity: "book",
			idOf:   func(b *domain.Book) string { return b.ID },
		},
		students: &collection[domain.Student]{
			path:   filepath.Join(dir, StudentsFile),
			entity: "student",
			idOf:   func(s *domain.Student) string { return s.ID },
		},
	}, nil
}

// Dir returns the data directory.
func (s *JSONStore) Dir() string {
	return s.dir
}

// Ping checks that the data directory is still there.
func (s *JSONStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	if !info.IsDir() {
		return NewStoreError("Ping", "", "", s.dir+" is not a directory", ErrConnectionFailed)
	}
	return nil
}

// Close is a no-op; every write is flushed before it returns.
func (s *JSONStore) Close() error {
	return nil
}

// =============================================================================
// Book Operations
// =============================================================================

func (s *JSONStore) CreateBook(ctx context.Context, book *domain.Book) error {
	return s.books.create(ctx, "CreateBook", book)
}

func (s *JSONStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.books.get(ctx, "GetBook", id)
}

func (s *JSONStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	return s.books.update(ctx, "UpdateBook", book)
}

func (s *JSONStore) UpdateBookFunc(ctx context.Context, id string, fn func(*domain.Book) (*domain.Book, error)) (*domain.Book, error) {
	return s.books.modify(ctx, "UpdateBookFunc", id, fn)
}

func (s *JSONStore) DeleteBook(ctx context.Context, id string) error {
	return s.books.delete(ctx, "DeleteBook", id)
}

func (s *JSONStore) ListBooks(ctx context.Context, filter domain.BookFilter, opts ListOptions) ([]domain.Book, error) {
	books, err := s.books.list(ctx, "ListBooks")
	if err != nil {
		return nil, err
	}
	return page(domain.FilterBooks(books, filter), opts), nil
}

// =============================================================================
// Student Operations
// =============================================================================

func (s *JSONStore) CreateStudent(ctx context.Context, student *domain.Student) error {
	return s.students.create(ctx, "CreateStudent", student)
}

func (s *JSONStore) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	return s.students.get(ctx, "GetStudent", id)
}

func (s *JSONStore) UpdateStudent(ctx context.Context, student *domain.Student) error {
	return s.students.update(ctx, "UpdateStudent", student)
}

func (s *JSONStore) UpdateStudentFunc(ctx context.Context, id string, fn func(*domain.Student) (*domain.Student, error)) (*domain.Student, error) {
	return s.students.modify(ctx, "UpdateStudentFunc", id, fn)
}

func (s *JSONStore) DeleteStudent(ctx context.Context, id string) error {
	return s.students.delete(ctx, "DeleteStudent", id)
}

func (s *JSONStore) ListStudents(ctx context.Context, opts ListOptions) ([]domain.Student, error) {
	students, err := s.students.list(ctx, "ListStudents")
	if err != nil {
		return nil, err
	}
	return page(students, opts), nil
}

// =============================================================================
// Collection
// =============================================================================

// collection is one JSON array file. Readers share the lock; every
// read-modify-write cycle holds it exclusively.
type collection[T any] struct {
	mu     sync.RWMutex
	path   string
	entity string
	idOf   func(*T) string
}

func (c *collection[T]) create(ctx context.Context, op string, item *T) error {
	id := c.idOf(item)
	return c.mutate(ctx, op, id, func(items []T) ([]T, error) {
		if c.indexOf(items, id) >= 0 {
			return nil, NewStoreError(op, c.entity, id, c.entity+" with this ID already exists", ErrDuplicateID)
		}
		return append(items, *item), nil
	})
}

func (c *collection[T]) get(ctx context.Context, op, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.load(op)
	if err != nil {
		return nil, err
	}
	i := c.indexOf(items, id)
	if i < 0 {
		return nil, NewStoreError(op, c.entity, id, c.entity+" not found", ErrNotFound)
	}
	found := items[i]
	return &found, nil
}

func (c *collection[T]) update(ctx context.Context, op string, item *T) error {
	id := c.idOf(item)
	return c.mutate(ctx, op, id, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, NewStoreError(op, c.entity, id, c.entity+" not found", ErrNotFound)
		}
		items[i] = *item
		return items, nil
	})
}

// modify replaces the record with fn's result while holding the write lock,
// so no other write can land between the read and the save. The id of the
// record cannot change.
func (c *collection[T]) modify(ctx context.Context, op, id string, fn func(*T) (*T, error)) (*T, error) {
	var result *T
	err := c.mutate(ctx, op, id, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, NewStoreError(op, c.entity, id, c.entity+" not found", ErrNotFound)
		}
		current := items[i]
		updated, err := fn(&current)
		if err != nil {
			return nil, err
		}
		if c.idOf(updated) != id {
			return nil, NewStoreError(op, c.entity, id, "id cannot change", ErrInvalidData)
		}
		items[i] = *updated
		result = updated
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *collection[T]) delete(ctx context.Context, op, id string) error {
	return c.mutate(ctx, op, id, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, NewStoreError(op, c.entity, id, c.entity+" not found", ErrNotFound)
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

func (c *collection[T]) list(ctx context.Context, op string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load(op)
}

func (c *collection[T]) mutate(ctx context.Context, op, id string, fn func([]T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(op)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.save(op, id, items)
}

func (c *collection[T]) indexOf(items []T, id string) int {
	for i := range items {
		if c.idOf(&items[i]) == id {
			return i
		}
	}
	return -1
}

// load reads the whole array. A missing file is an empty collection.
func (c *collection[T]) load(op string) ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, NewStoreError(op, c.entity, "", err.Error(), ErrConnectionFailed)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, NewStoreError(op, c.entity, "", fmt.Sprintf("failed to parse %s: %v", filepath.Base(c.path), err), ErrInvalidData)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// save replaces the file atomically so readers never see a partial array.
func (c *collection[T]) save(op, id string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return NewStoreError(op, c.entity, id, "failed to serialize collection", ErrInvalidData)
	}
	if err := atomicwriter.WriteFile(c.path, data, 0o644); err != nil {
		return NewStoreError(op, c.entity, id, err.Error(), ErrConnectionFailed)
	}
	return nil
}
