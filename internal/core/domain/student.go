package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Student
// =============================================================================

// Student is an entry of the students collection.
type Student struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName" validate:"required" label:"First name"`
	LastName    string     `json:"lastName" validate:"required" label:"Last name"`
	Email       string     `json:"email" validate:"required,email" label:"Email"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// GenerateStudentID generates a new student ID.
func GenerateStudentID() string {
	return "stu_" + uuid.New().String()[:8]
}

// NewStudent builds a student from client input. Server-owned fields in the
// input (id and timestamps) are replaced.
func NewStudent(input Student) *Student {
	s := input
	s.ID = GenerateStudentID()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = nil
	return &s
}

// Merge applies a JSON patch on top of the student. See Book.Merge.
func (s Student) Merge(patch []byte) (*Student, error) {
	updated := s
	// Decoding into a shared pointer would rewrite the receiver's timestamp.
	updated.UpdatedAt = nil
	if err := mergeJSON(patch, &updated); err != nil {
		return nil, err
	}
	updated.ID = s.ID
	updated.CreatedAt = s.CreatedAt
	now := time.Now().UTC()
	updated.UpdatedAt = &now
	return &updated, nil
}

// WithAvatar returns a copy of the student pointing at a new profile picture.
func (s Student) WithAvatar(url string) *Student {
	s.Avatar = url
	now := time.Now().UTC()
	s.UpdatedAt = &now
	return &s
}

// Registration is the body of a registration request.
type Registration struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}
