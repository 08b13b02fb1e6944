// Package domain contains the book and student types and their pure update rules.
// This is part of the Functional Core - no function here performs I/O.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidPatch is returned when an update body is not a JSON object.
	ErrInvalidPatch = errors.New("update body must be a JSON object")
)

// =============================================================================
// Book
// =============================================================================

// Book is an entry of the books collection.
type Book struct {
	ID        string     `json:"id"`
	ASIN      string     `json:"asin,omitempty"`
	Title     string     `json:"title" validate:"required" label:"Title"`
	Img       string     `json:"img,omitempty"`
	Price     float64    `json:"price"`
	Category  string     `json:"category,omitempty"`
	Cover     string     `json:"cover,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// GenerateBookID generates a new book ID.
func GenerateBookID() string {
	return "book_" + uuid.New().String()[:8]
}

// NewBook builds a book from client input. Server-owned fields in the input
// (id and timestamps) are replaced.
func NewBook(input Book) *Book {
	b := input
	b.ID = GenerateBookID()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = nil
	return &b
}

// Merge applies a JSON patch on top of the book. Fields present in the patch
// overwrite, absent fields are kept. ID and CreatedAt never change.
func (b Book) Merge(patch []byte) (*Book, error) {
	updated := b
	// Decoding into a shared pointer would rewrite the receiver's timestamp.
	updated.UpdatedAt = nil
	if err := mergeJSON(patch, &updated); err != nil {
		return nil, err
	}
	updated.ID = b.ID
	updated.CreatedAt = b.CreatedAt
	now := time.Now().UTC()
	updated.UpdatedAt = &now
	return &updated, nil
}

// =============================================================================
// Book Filter
// =============================================================================

// BookFilter selects books by exact field match. Empty fields match everything.
type BookFilter struct {
	Title    string
	Category string
}

// Matches reports whether the book passes the filter.
func (f BookFilter) Matches(b Book) bool {
	if f.Title != "" && b.Title != f.Title {
		return false
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	return true
}

// FilterBooks returns the books matching the filter, preserving order.
func FilterBooks(books []Book, f BookFilter) []Book {
	result := make([]Book, 0, len(books))
	for _, b := range books {
		if f.Matches(b) {
			result = append(result, b)
		}
	}
	return result
}

// WithCover returns a copy of the book pointing at a new cover image.
func (b Book) WithCover(url string) *Book {
	b.Cover = url
	now := time.Now().UTC()
	b.UpdatedAt = &now
	return &b
}

// mergeJSON decodes patch on top of dst. The patch must be a JSON object.
func mergeJSON(patch []byte, dst any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return ErrInvalidPatch
	}
	if err := json.Unmarshal(patch, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return nil
}
