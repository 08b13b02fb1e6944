// Package pdf renders document definitions to PDF.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/moby/sys/atomicwriter"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/document"
)

// Page layout in millimetres.
const (
	bodySize    = 12.0
	headingSize = 18.0
	lineHeight  = 6.0
	blockGap    = 4.0
)

// Render writes doc as an A4 PDF to w.
func Render(w io.Writer, doc document.Document) error {
	font := doc.Font
	if font == "" {
		font = document.DefaultFont
	}

	f := fpdf.New("P", "mm", "A4", "")
	f.SetTitle(doc.Title, true)
	f.SetCreator("strive-api", false)
	tr := f.UnicodeTranslatorFromDescriptor("")
	f.AddPage()

	for _, block := range doc.Blocks {
		switch block.Style {
		case document.StyleHeading:
			f.SetFont(font, "B", headingSize)
			f.MultiCell(0, lineHeight*1.5, tr(block.Text), "", "L", false)
		default:
			f.SetFont(font, "", bodySize)
			f.MultiCell(0, lineHeight, tr(block.Text), "", "L", false)
		}
		f.Ln(blockGap)
	}

	if err := f.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Bytes renders doc into memory.
func Bytes(doc document.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders doc to path, creating parent directories. The file is
// replaced atomically. It returns the absolute path written.
func WriteFile(path string, doc document.Document) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create pdf directory: %w", err)
	}

	w, err := atomicwriter.New(abs, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", abs, err)
	}
	if err := Render(w, doc); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("commit %s: %w", abs, err)
	}
	return abs, nil
}
