package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

func TestNewSQLiteStore_RequiresDSN(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "strive.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	book := createTestBook(t, first, "Clara Callan", "fiction")
	require.NoError(t, first.Close())

	// Migrations must be idempotent on an existing database.
	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clara Callan", got.Title)
}

func TestSQLiteStore_RowConversion_BadTimestamp(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO books (id, title, created_at) VALUES ('book_bad', 'Broken', 'yesterday')`)
	require.NoError(t, err)

	_, err = s.GetBook(context.Background(), "book_bad")
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = s.ListBooks(context.Background(), domain.BookFilter{}, ListOptions{})
	assert.ErrorIs(t, err, ErrInvalidData)
}
