package export

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

func sampleBooks() []domain.Book {
	return []domain.Book{
		{ID: "book_1", ASIN: "0002005018", Title: "Clara Callan", Price: 7.99, Category: "fiction"},
		{ID: "book_2", ASIN: "0060973129", Title: "Decision in Normandy, Part 2", Price: 12, Category: "history"},
	}
}

// =============================================================================
// CSV Tests
// =============================================================================

func TestWriteBooksCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBooksCSV(&buf, sampleBooks()))

	want := "asin,title,price,category\n" +
		"0002005018,Clara Callan,7.99,fiction\n" +
		"0060973129,\"Decision in Normandy, Part 2\",12,history\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteBooksCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBooksCSV(&buf, nil))
	assert.Equal(t, "asin,title,price,category\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteBooksCSV_WriterError(t *testing.T) {
	err := WriteBooksCSV(failingWriter{}, sampleBooks())
	assert.Error(t, err)
}

// =============================================================================
// Gzip Tests
// =============================================================================

func TestWriteBooksJSONGzip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBooksJSONGzip(&buf, sampleBooks()))

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var got []domain.Book
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Clara Callan", got[0].Title)
}

func TestWriteBooksJSONGzip_NilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBooksJSONGzip(&buf, nil))

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}
