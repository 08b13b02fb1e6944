package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/domain"
	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/mail"
)

// =============================================================================
// Student Handlers
// =============================================================================

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var input domain.Student
	if !h.decodeBody(w, r, &input) {
		return
	}

	student := domain.NewStudent(input)
	if errs := validation.Check(student); errs != nil {
		h.writeValidationError(w, errs)
		return
	}

	if err := h.store.CreateStudent(r.Context(), student); err != nil {
		h.logger.Error("failed to create student", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create student", "internal_error")
		return
	}

	h.logger.Info("student created", "student_id", student.ID)
	h.writeJSON(w, http.StatusCreated, CreatedResponse{ID: student.ID})
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents(r.Context(), listOptions(r))
	if err != nil {
		h.logger.Error("failed to list students", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list students", "internal_error")
		return
	}
	if students == nil {
		students = []domain.Student{}
	}

	h.writeJSON(w, http.StatusOK, students)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	student, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		h.writeStudentError(w, id, "get", err)
		return
	}

	h.writeJSON(w, http.StatusOK, student)
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	patch, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var invalid validation.Errors
	updated, err := h.store.UpdateStudentFunc(r.Context(), id, func(existing *domain.Student) (*domain.Student, error) {
		merged, err := existing.Merge(patch)
		if err != nil {
			return nil, err
		}
		if invalid = validation.Check(merged); invalid != nil {
			return nil, invalid
		}
		return merged, nil
	})
	switch {
	case errors.Is(err, domain.ErrInvalidPatch):
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "invalid_json")
		return
	case invalid != nil:
		h.writeValidationError(w, invalid)
		return
	case err != nil:
		h.writeStudentError(w, id, "update", err)
		return
	}

	h.logger.Info("student updated", "student_id", id)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteStudent(r.Context(), id); err != nil {
		h.writeStudentError(w, id, "delete", err)
		return
	}

	h.logger.Info("student deleted", "student_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRegister sends the registration email to the given address.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !h.decodeBody(w, r, &reg) {
		return
	}
	if errs := validation.Check(reg); errs != nil {
		h.writeValidationError(w, errs)
		return
	}

	err := h.mailer.Send(r.Context(), mail.RegistrationMessage(reg.Email))
	h.metrics.RecordEmail(h.mailer.Provider(), err)
	if err != nil {
		h.logger.Error("failed to send registration email", "to", reg.Email, "error", err)
		h.writeError(w, http.StatusBadGateway, "failed to send email", "mail_failed")
		return
	}

	h.writeJSON(w, http.StatusOK, StatusResponse{Status: "sent"})
}

func (h *Handler) writeStudentError(w http.ResponseWriter, id, op string, err error) {
	if isNotFound(err) {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("Student with id %s not found!", id), "student_not_found")
		return
	}
	h.logger.Error("student operation failed", "op", op, "student_id", id, "error", err)
	h.writeError(w, http.StatusInternalServerError, "failed to "+op+" student", "internal_error")
}
