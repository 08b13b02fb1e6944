package resources

import (
	"net/http"
	"time"

	"github.com/manyminds/api2go"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// =============================================================================
// Book JSON:API Model
// =============================================================================

// Book wraps domain.Book to implement JSON:API interfaces.
type Book struct {
	ID        string     `json:"-"`
	ASIN      string     `json:"asin,omitempty"`
	Title     string     `json:"title"`
	Img       string     `json:"img,omitempty"`
	Price     float64    `json:"price"`
	Category  string     `json:"category,omitempty"`
	Cover     string     `json:"cover,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// GetID returns the book ID for JSON:API.
func (b Book) GetID() string {
	return b.ID
}

// SetID sets the book ID for JSON:API.
func (b *Book) SetID(id string) error {
	b.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (b Book) GetName() string {
	return "books"
}

// BookFromDomain converts a domain.Book to a JSON:API Book.
func BookFromDomain(b *domain.Book) Book {
	return Book{
		ID:        b.ID,
		ASIN:      b.ASIN,
		Title:     b.Title,
		Img:       b.Img,
		Price:     b.Price,
		Category:  b.Category,
		Cover:     b.Cover,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ToDomain converts the JSON:API Book to a domain.Book.
func (b Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:        b.ID,
		ASIN:      b.ASIN,
		Title:     b.Title,
		Img:       b.Img,
		Price:     b.Price,
		Category:  b.Category,
		Cover:     b.Cover,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// =============================================================================
// BookResource - CRUD Operations
// =============================================================================

// BookResource implements the api2go resource interface for books.
type BookResource struct {
	Store store.Store
}

// NewBookResource creates a new book resource handler.
func NewBookResource(s store.Store) *BookResource {
	return &BookResource{Store: s}
}

// FindAll returns books filtered by filter[title] and filter[category].
// GET /api/v1/books
func (r BookResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()
	opts := listOptions(req)
	filter := domain.BookFilter{
		Title:    queryParam(req, "filter[title]"),
		Category: queryParam(req, "filter[category]"),
	}

	books, err := r.Store.ListBooks(ctx, filter, opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Book, 0, len(books))
	for i := range books {
		result = append(result, BookFromDomain(&books[i]))
	}

	return &Response{
		Code: http.StatusOK,
		Res:  result,
		Meta: listMeta(len(result), opts),
	}, nil
}

// FindOne returns a single book by ID.
// GET /api/v1/books/{id}
func (r BookResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	book, err := r.Store.GetBook(req.PlainRequest.Context(), id)
	if err != nil {
		if isNotFound(err) {
			return notFound("Book", id)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusOK, Res: BookFromDomain(book)}, nil
}

// Create creates a new book.
// POST /api/v1/books
func (r BookResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	input, ok := obj.(Book)
	if !ok {
		return badBody()
	}

	book := domain.NewBook(*input.ToDomain())
	if errs := validation.Check(book); errs != nil {
		return invalid(errs)
	}

	if err := r.Store.CreateBook(req.PlainRequest.Context(), book); err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusCreated, Res: BookFromDomain(book)}, nil
}

// Update stores a book already merged with the request attributes.
// PATCH /api/v1/books/{id}
func (r BookResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	input, ok := obj.(Book)
	if !ok {
		return badBody()
	}
	ctx := req.PlainRequest.Context()

	var invalidErrs validation.Errors
	book, err := r.Store.UpdateBookFunc(ctx, input.ID, func(current *domain.Book) (*domain.Book, error) {
		next := input.ToDomain()
		next.CreatedAt = current.CreatedAt
		now := time.Now().UTC()
		next.UpdatedAt = &now
		if invalidErrs = validation.Check(next); invalidErrs != nil {
			return nil, invalidErrs
		}
		return next, nil
	})
	switch {
	case invalidErrs != nil:
		return invalid(invalidErrs)
	case isNotFound(err):
		return notFound("Book", input.ID)
	case err != nil:
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusOK, Res: BookFromDomain(book)}, nil
}

// Delete removes a book by ID.
// DELETE /api/v1/books/{id}
func (r BookResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	if err := r.Store.DeleteBook(req.PlainRequest.Context(), id); err != nil {
		if isNotFound(err) {
			return notFound("Book", id)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusNoContent}, nil
}
