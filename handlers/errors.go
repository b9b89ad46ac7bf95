package handlers

import (
	"errors"
	"net/http"

	"studybuddy/db"
	"studybuddy/llm"
	"studybuddy/services"
	"studybuddy/services/genai"
)

// statusForError maps pipeline failures onto HTTP statuses. Bad input,
// not-found and malformed-output are caller-visible outcomes; everything
// unrecognized is a server-side failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, genai.ErrMalformedGeneration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
