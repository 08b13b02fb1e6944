// Package export encodes the book collection into downloadable formats.
package export

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

// CSVColumns is the header row of the books CSV export.
var CSVColumns = []string{"asin", "title", "price", "category"}

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSONGzip Format = "json.gz"
	FormatPDF      Format = "pdf"
)

// WriteBooksCSV writes one header row followed by one row per book.
func WriteBooksCSV(w io.Writer, books []domain.Book) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range books {
		row := []string{
			b.ASIN,
			b.Title,
			strconv.FormatFloat(b.Price, 'f', -1, 64),
			b.Category,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", b.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBooksJSONGzip writes the books as a gzip-compressed JSON array.
func WriteBooksJSONGzip(w io.Writer, books []domain.Book) error {
	if books == nil {
		books = []domain.Book{}
	}
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(books); err != nil {
		zw.Close()
		return fmt.Errorf("encode books: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return nil
}
