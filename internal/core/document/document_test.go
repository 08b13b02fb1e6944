package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
)

func TestGreeting_WithName(t *testing.T) {
	doc := Greeting("Zee")

	assert.Equal(t, DefaultFont, doc.Font)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "Zee", doc.Blocks[0].Text)
	assert.Equal(t, GreetingBody, doc.Blocks[1].Text)
}

func TestGreeting_EmptyName(t *testing.T) {
	doc := Greeting("")

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, GreetingBody, doc.Blocks[0].Text)
}

func TestCatalogue(t *testing.T) {
	doc := Catalogue([]domain.Book{
		{Title: "Dune", Category: "scifi", Price: 9.5},
		{Title: "Emma", Price: 4},
	})

	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, StyleHeading, doc.Blocks[0].Style)
	assert.Equal(t, "Dune (scifi) - 9.50", doc.Blocks[1].Text)
	assert.Equal(t, "Emma - 4.00", doc.Blocks[2].Text)
}

func TestCatalogue_Empty(t *testing.T) {
	doc := Catalogue(nil)

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "No books yet.", doc.Blocks[1].Text)
}
