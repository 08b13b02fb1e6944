package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout keeps sub-second precision so rows round-trip exactly.
const timeLayout = time.RFC3339Nano

// =============================================================================
// Executor Interface
// =============================================================================

// executor abstracts the query methods shared by *sqlx.DB and *sqlx.Tx.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, NewStoreError("NewSQLiteStore", "", "", "database path is required", ErrConnectionFailed)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Book Operations
// =============================================================================

// bookRow represents a book row in the database.
type bookRow struct {
	ID        string  `db:"id"`
	ASIN      string  `db:"asin"`
	Title     string  `db:"title"`
	Img       string  `db:"img"`
	Price     float64 `db:"price"`
	Category  string  `db:"category"`
	Cover     string  `db:"cover"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt *string `db:"updated_at"`
}

func (s *SQLiteStore) CreateBook(ctx context.Context, book *domain.Book) error {
	return createBook(ctx, s.db, book)
}

func (s *SQLiteStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return getBook(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	return updateBook(ctx, s.db, book)
}

// UpdateBookFunc reads, changes and writes the book inside one transaction.
func (s *SQLiteStore) UpdateBookFunc(ctx context.Context, id string, fn func(*domain.Book) (*domain.Book, error)) (*domain.Book, error) {
	var updated *domain.Book
	err := s.withTx(ctx, func(tx executor) error {
		current, err := getBook(ctx, tx, id)
		if err != nil {
			return err
		}
		updated, err = fn(current)
		if err != nil {
			return err
		}
		if updated.ID != id {
			return NewStoreError("UpdateBookFunc", "book", id, "id cannot change", ErrInvalidData)
		}
		return updateBook(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteStore) DeleteBook(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteBook", "book", "books", id)
}

func (s *SQLiteStore) ListBooks(ctx context.Context, filter domain.BookFilter, opts ListOptions) ([]domain.Book, error) {
	return listBooks(ctx, s.db, filter, opts)
}

// =============================================================================
// Student Operations
// =============================================================================

// studentRow represents a student row in the database.
type studentRow struct {
	ID          string  `db:"id"`
	FirstName   string  `db:"first_name"`
	LastName    string  `db:"last_name"`
	Email       string  `db:"email"`
	DateOfBirth string  `db:"date_of_birth"`
	Avatar      string  `db:"avatar"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   *string `db:"updated_at"`
}

func (s *SQLiteStore) CreateStudent(ctx context.Context, student *domain.Student) error {
	return createStudent(ctx, s.db, student)
}

func (s *SQLiteStore) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	return getStudent(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateStudent(ctx context.Context, student *domain.Student) error {
	return updateStudent(ctx, s.db, student)
}

// UpdateStudentFunc reads, changes and writes the student inside one transaction.
func (s *SQLiteStore) UpdateStudentFunc(ctx context.Context, id string, fn func(*domain.Student) (*domain.Student, error)) (*domain.Student, error) {
	var updated *domain.Student
	err := s.withTx(ctx, func(tx executor) error {
		current, err := getStudent(ctx, tx, id)
		if err != nil {
			return err
		}
		updated, err = fn(current)
		if err != nil {
			return err
		}
		if updated.ID != id {
			return NewStoreError("UpdateStudentFunc", "student", id, "id cannot change", ErrInvalidData)
		}
		return updateStudent(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteStore) DeleteStudent(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteStudent", "student", "students", id)
}

func (s *SQLiteStore) ListStudents(ctx context.Context, opts ListOptions) ([]domain.Student, error) {
	return listStudents(ctx, s.db, opts)
}

// =============================================================================
// Transaction Support
// =============================================================================

// withTx runs fn in a transaction, committing when fn succeeds. fn's error is
// returned unchanged after the rollback.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(executor) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("withTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("withTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("withTx", "", "", "failed to commit transaction", ErrTxFailed)
	}
	return nil
}

// =============================================================================
// Book Queries
// =============================================================================

func bookParams(book *domain.Book) map[string]any {
	return map[string]any{
		"id":         book.ID,
		"asin":       book.ASIN,
		"title":      book.Title,
		"img":        book.Img,
		"price":      book.Price,
		"category":   book.Category,
		"cover":      book.Cover,
		"created_at": book.CreatedAt.Format(timeLayout),
		"updated_at": formatOptionalTime(book.UpdatedAt),
	}
}

func createBook(ctx context.Context, exec executor, book *domain.Book) error {
	query := `
		INSERT INTO books (id, asin, title, img, price, category, cover, created_at, updated_at)
		VALUES (:id, :asin, :title, :img, :price, :category, :cover, :created_at, :updated_at)`

	if _, err := exec.NamedExecContext(ctx, query, bookParams(book)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: books.id") {
			return NewStoreError("CreateBook", "book", book.ID, "book with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateBook", "book", book.ID, err.Error(), err)
	}
	return nil
}

func getBook(ctx context.Context, exec executor, id string) (*domain.Book, error) {
	var row bookRow
	if err := exec.GetContext(ctx, &row, `SELECT * FROM books WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetBook", "book", id, "book not found", ErrNotFound)
		}
		return nil, NewStoreError("GetBook", "book", id, err.Error(), err)
	}
	return rowToBook(&row)
}

func updateBook(ctx context.Context, exec executor, book *domain.Book) error {
	query := `
		UPDATE books SET
			asin = :asin,
			title = :title,
			img = :img,
			price = :price,
			category = :category,
			cover = :cover,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, bookParams(book))
	if err != nil {
		return NewStoreError("UpdateBook", "book", book.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateBook", "book", book.ID, "book not found", ErrNotFound)
	}
	return nil
}

func listBooks(ctx context.Context, exec executor, filter domain.BookFilter, opts ListOptions) ([]domain.Book, error) {
	opts = opts.Normalize()

	var where []string
	var args []any
	if filter.Title != "" {
		where = append(where, "title = ?")
		args = append(args, filter.Title)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT * FROM books`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid ASC LIMIT ? OFFSET ?`
	args = append(args, sqlLimit(opts.Limit), opts.Offset)

	var rows []bookRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListBooks", "book", "", err.Error(), err)
	}

	books := make([]domain.Book, 0, len(rows))
	for _, row := range rows {
		book, err := rowToBook(&row)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, nil
}

// =============================================================================
// Student Queries
// =============================================================================

func studentParams(student *domain.Student) map[string]any {
	return map[string]any{
		"id":            student.ID,
		"first_name":    student.FirstName,
		"last_name":     student.LastName,
		"email":         student.Email,
		"date_of_birth": student.DateOfBirth,
		"avatar":        student.Avatar,
		"created_at":    student.CreatedAt.Format(timeLayout),
		"updated_at":    formatOptionalTime(student.UpdatedAt),
	}
}

func createStudent(ctx context.Context, exec executor, student *domain.Student) error {
	query := `
		INSERT INTO students (id, first_name, last_name, email, date_of_birth, avatar, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :email, :date_of_birth, :avatar, :created_at, :updated_at)`

	if _, err := exec.NamedExecContext(ctx, query, studentParams(student)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: students.id") {
			return NewStoreError("CreateStudent", "student", student.ID, "student with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateStudent", "student", student.ID, err.Error(), err)
	}
	return nil
}

func getStudent(ctx context.Context, exec executor, id string) (*domain.Student, error) {
	var row studentRow
	if err := exec.GetContext(ctx, &row, `SELECT * FROM students WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetStudent", "student", id, "student not found", ErrNotFound)
		}
		return nil, NewStoreError("GetStudent", "student", id, err.Error(), err)
	}
	return rowToStudent(&row)
}

func updateStudent(ctx context.Context, exec executor, student *domain.Student) error {
	query := `
		UPDATE students SET
			first_name = :first_name,
			last_name = :last_name,
			email = :email,
			date_of_birth = :date_of_birth,
			avatar = :avatar,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, studentParams(student))
	if err != nil {
		return NewStoreError("UpdateStudent", "student", student.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateStudent", "student", student.ID, "student not found", ErrNotFound)
	}
	return nil
}

func listStudents(ctx context.Context, exec executor, opts ListOptions) ([]domain.Student, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM students ORDER BY rowid ASC LIMIT ? OFFSET ?`

	var rows []studentRow
	if err := exec.SelectContext(ctx, &rows, query, sqlLimit(opts.Limit), opts.Offset); err != nil {
		return nil, NewStoreError("ListStudents", "student", "", err.Error(), err)
	}

	students := make([]domain.Student, 0, len(rows))
	for _, row := range rows {
		student, err := rowToStudent(&row)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}
	return students, nil
}

// =============================================================================
// Helpers
// =============================================================================

// deleteRow deletes by primary key. table is always a package constant.
func deleteRow(ctx context.Context, exec executor, op, entity, table, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return NewStoreError(op, entity, id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit == 0 {
		return -1
	}
	return limit
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func parseTimes(op, entity, id, created string, updated *string) (time.Time, *time.Time, error) {
	createdAt, err := time.Parse(timeLayout, created)
	if err != nil {
		return time.Time{}, nil, NewStoreError(op, entity, id, "failed to parse created_at", ErrInvalidData)
	}
	if updated == nil || *updated == "" {
		return createdAt, nil, nil
	}
	updatedAt, err := time.Parse(timeLayout, *updated)
	if err != nil {
		return time.Time{}, nil, NewStoreError(op, entity, id, "failed to parse updated_at", ErrInvalidData)
	}
	return createdAt, &updatedAt, nil
}

// rowToBook converts a database row to a domain.Book.
func rowToBook(row *bookRow) (*domain.Book, error) {
	createdAt, updatedAt, err := parseTimes("rowToBook", "book", row.ID, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Book{
		ID:        row.ID,
		ASIN:      row.ASIN,
		Title:     row.Title,
		Img:       row.Img,
		Price:     row.Price,
		Category:  row.Category,
		Cover:     row.Cover,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// rowToStudent converts a database row to a domain.Student.
func rowToStudent(row *studentRow) (*domain.Student, error) {
	createdAt, updatedAt, err := parseTimes("rowToStudent", "student", row.ID, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Student{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		DateOfBirth: row.DateOfBirth,
		Avatar:      row.Avatar,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
