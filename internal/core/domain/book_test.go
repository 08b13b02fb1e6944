package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ID Tests
// =============================================================================

func TestGenerateBookID_Format(t *testing.T) {
	id := GenerateBookID()
	assert.True(t, strings.HasPrefix(id, "book_"))
	assert.Len(t, id, len("book_")+8)
}

func TestGenerateBookID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateBookID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// =============================================================================
// NewBook Tests
// =============================================================================

func TestNewBook_AssignsServerFields(t *testing.T) {
	stale := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBook(Book{ID: "client-id", Title: "Dune", Price: 9.5, CreatedAt: stale, UpdatedAt: &stale})

	assert.NotEqual(t, "client-id", b.ID)
	assert.True(t, strings.HasPrefix(b.ID, "book_"))
	assert.True(t, b.CreatedAt.After(stale))
	assert.Nil(t, b.UpdatedAt)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, 9.5, b.Price)
}

// =============================================================================
// Merge Tests
// =============================================================================

func TestBookMerge_OverwritesPresentFields(t *testing.T) {
	orig := NewBook(Book{Title: "Dune", Category: "scifi", Price: 10})

	updated, err := orig.Merge([]byte(`{"price": 12.5}`))
	require.NoError(t, err)

	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, "scifi", updated.Category)
	require.NotNil(t, updated.UpdatedAt)
}

func TestBookMerge_KeepsIdentity(t *testing.T) {
	orig := NewBook(Book{Title: "Dune"})

	updated, err := orig.Merge([]byte(`{"id": "other", "createdAt": "1999-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, orig.ID, updated.ID)
	assert.Equal(t, orig.CreatedAt, updated.CreatedAt)
}

func TestBookMerge_DoesNotMutateReceiver(t *testing.T) {
	orig := NewBook(Book{Title: "Dune"})
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig.UpdatedAt = &stamp

	updated, err := orig.Merge([]byte(`{"title": "Emma", "updatedAt": "2000-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, "Dune", orig.Title)
	require.NotNil(t, orig.UpdatedAt)
	assert.True(t, orig.UpdatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.NotSame(t, orig.UpdatedAt, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(stamp))
}

func TestBookMerge_RejectsNonObject(t *testing.T) {
	orig := NewBook(Book{Title: "Dune"})

	tests := []string{`[]`, `"title"`, `null`, `{broken`, ``}
	for _, patch := range tests {
		t.Run(patch, func(t *testing.T) {
			_, err := orig.Merge([]byte(patch))
			assert.ErrorIs(t, err, ErrInvalidPatch)
		})
	}
}

func TestBookWithCover(t *testing.T) {
	orig := NewBook(Book{Title: "Dune"})
	updated := orig.WithCover("https://cdn.example/dune.png")

	assert.Equal(t, "https://cdn.example/dune.png", updated.Cover)
	assert.NotNil(t, updated.UpdatedAt)
	assert.Empty(t, orig.Cover)
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestFilterBooks(t *testing.T) {
	books := []Book{
		{ID: "1", Title: "Dune", Category: "scifi"},
		{ID: "2", Title: "Emma", Category: "classic"},
		{ID: "3", Title: "Dune", Category: "classic"},
	}

	tests := []struct {
		name   string
		filter BookFilter
		want   []string
	}{
		{"empty filter matches all", BookFilter{}, []string{"1", "2", "3"}},
		{"by title", BookFilter{Title: "Dune"}, []string{"1", "3"}},
		{"by category", BookFilter{Category: "classic"}, []string{"2", "3"}},
		{"title and category", BookFilter{Title: "Dune", Category: "classic"}, []string{"3"}},
		{"title is exact", BookFilter{Title: "dune"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterBooks(books, tt.filter)
			ids := make([]string, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
