// Package document describes PDF documents as plain data. Rendering lives in
// the shell pdf package.
package document

import (
	"fmt"
	"strconv"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

// =============================================================================
// Types
// =============================================================================

// Style selects how a block is typeset.
type Style string

const (
	StyleBody    Style = "body"
	StyleHeading Style = "heading"
)

// Block is one paragraph of a document.
type Block struct {
	Text  string
	Style Style
}

// Document is an ordered list of blocks in a single font family.
type Document struct {
	Title  string
	Font   string
	Blocks []Block
}

// DefaultFont is one of the PDF core fonts, so no font files are needed.
const DefaultFont = "Helvetica"

// GreetingBody is the fixed paragraph printed under the greeting.
const GreetingBody = "Another paragraph, this time a little bit longer to make sure, this line will be divided into at least two lines"

// =============================================================================
// Builders
// =============================================================================

// Greeting returns the downloadable greeting document. An empty first name
// leaves only the fixed paragraph.
func Greeting(firstName string) Document {
	doc := Document{Title: "Greeting", Font: DefaultFont}
	if firstName != "" {
		doc.Blocks = append(doc.Blocks, Block{Text: firstName, Style: StyleBody})
	}
	doc.Blocks = append(doc.Blocks, Block{Text: GreetingBody, Style: StyleBody})
	return doc
}

// Catalogue returns a document listing every book with its price.
func Catalogue(books []domain.Book) Document {
	doc := Document{
		Title:  "Book catalogue",
		Font:   DefaultFont,
		Blocks: []Block{{Text: "Book catalogue", Style: StyleHeading}},
	}
	if len(books) == 0 {
		doc.Blocks = append(doc.Blocks, Block{Text: "No books yet.", Style: StyleBody})
		return doc
	}
	for _, b := range books {
		doc.Blocks = append(doc.Blocks, Block{Text: catalogueLine(b), Style: StyleBody})
	}
	return doc
}

func catalogueLine(b domain.Book) string {
	line := b.Title
	if b.Category != "" {
		line = fmt.Sprintf("%s (%s)", line, b.Category)
	}
	return line + " - " + strconv.FormatFloat(b.Price, 'f', 2, 64)
}
