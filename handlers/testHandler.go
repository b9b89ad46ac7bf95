package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"studybuddy/middleware"
	"studybuddy/models"
	"studybuddy/services"
	"studybuddy/services/testgen"

	"github.com/gorilla/mux"
)

type TestHandler struct {
	tests     *services.TestStoreService
	generator *testgen.Service
}

func NewTestHandler(tests *services.TestStoreService, generator *testgen.Service) *TestHandler {
	return &TestHandler{tests: tests, generator: generator}
}

func (h *TestHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tests/generate", h.GenerateTest).Methods("POST")
	router.HandleFunc("/tests", h.ListTests).Methods("GET")
	router.HandleFunc("/tests/{testID}", h.GetTest).Methods("GET")
	router.HandleFunc("/tests/{testID}", h.DeleteTest).Methods("DELETE")
	router.HandleFunc("/tests/{testID}/attempts", h.RecordAttempt).Methods("POST")
	router.HandleFunc("/attempts", h.ListAttempts).Methods("GET")
	router.HandleFunc("/attempts/stats", h.AttemptStats).Methods("GET")
}

func (h *TestHandler) GenerateTest(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.GenerateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	test, err := h.generator.GenerateTest(owner, &req)
	if err != nil {
		log.Printf("[ERROR] Test generation failed: %v", err)
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, test)
}

func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	tests, err := h.tests.ListTests(owner)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve tests")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, tests)
}

func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	testID := mux.Vars(r)["testID"]
	test, err := h.tests.GetTest(owner, testID)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, test)
}

func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	testID := mux.Vars(r)["testID"]
	if err := h.tests.DeleteTest(owner, testID); err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TestHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	testID := mux.Vars(r)["testID"]

	var req models.RecordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	attempt, err := h.tests.RecordAttempt(owner, testID, &req)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, attempt)
}

func (h *TestHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	attempts, err := h.tests.ListAttempts(owner)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve attempts")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, attempts)
}

func (h *TestHandler) AttemptStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.tests.AttemptStats(owner)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to compute attempt stats")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, stats)
}

func (h *TestHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *TestHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
