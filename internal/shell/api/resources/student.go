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
// Student JSON:API Model
// =============================================================================

// Student wraps domain.Student to implement JSON:API interfaces.
type Student struct {
	ID          string     `json:"-"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// GetID returns the student ID for JSON:API.
func (s Student) GetID() string {
	return s.ID
}

// SetID sets the student ID for JSON:API.
func (s *Student) SetID(id string) error {
	s.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (s Student) GetName() string {
	return "students"
}

// StudentFromDomain converts a domain.Student to a JSON:API Student.
func StudentFromDomain(s *domain.Student) Student {
	return Student{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		DateOfBirth: s.DateOfBirth,
		Avatar:      s.Avatar,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToDomain converts the JSON:API Student to a domain.Student.
func (s Student) ToDomain() *domain.Student {
	return &domain.Student{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		DateOfBirth: s.DateOfBirth,
		Avatar:      s.Avatar,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// =============================================================================
// StudentResource - CRUD Operations
// =============================================================================

// StudentResource implements the api2go resource interface for students.
type StudentResource struct {
	Store store.Store
}

// NewStudentResource creates a new student resource handler.
func NewStudentResource(s store.Store) *StudentResource {
	return &StudentResource{Store: s}
}

// FindAll returns students with optional pagination.
// GET /api/v1/students
func (r StudentResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	opts := listOptions(req)

	students, err := r.Store.ListStudents(req.PlainRequest.Context(), opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Student, 0, len(students))
	for i := range students {
		result = append(result, StudentFromDomain(&students[i]))
	}

	return &Response{
		Code: http.StatusOK,
		Res:  result,
		Meta: listMeta(len(result), opts),
	}, nil
}

// FindOne returns a single student by ID.
// GET /api/v1/students/{id}
func (r StudentResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	student, err := r.Store.GetStudent(req.PlainRequest.Context(), id)
	if err != nil {
		if isNotFound(err) {
			return notFound("Student", id)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusOK, Res: StudentFromDomain(student)}, nil
}

// Create creates a new student.
// POST /api/v1/students
func (r StudentResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	input, ok := obj.(Student)
	if !ok {
		return badBody()
	}

	student := domain.NewStudent(*input.ToDomain())
	if errs := validation.Check(student); errs != nil {
		return invalid(errs)
	}

	if err := r.Store.CreateStudent(req.PlainRequest.Context(), student); err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusCreated, Res: StudentFromDomain(student)}, nil
}

// Update stores a student already merged with the request attributes.
// PATCH /api/v1/students/{id}
func (r StudentResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	input, ok := obj.(Student)
	if !ok {
		return badBody()
	}
	ctx := req.PlainRequest.Context()

	var invalidErrs validation.Errors
	student, err := r.Store.UpdateStudentFunc(ctx, input.ID, func(current *domain.Student) (*domain.Student, error) {
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
		return notFound("Student", input.ID)
	case err != nil:
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusOK, Res: StudentFromDomain(student)}, nil
}

// Delete removes a student by ID.
// DELETE /api/v1/students/{id}
func (r StudentResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	if err := r.Store.DeleteStudent(req.PlainRequest.Context(), id); err != nil {
		if isNotFound(err) {
			return notFound("Student", id)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{Code: http.StatusNoContent}, nil
}
