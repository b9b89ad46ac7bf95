package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"studybuddy/middleware"
	"studybuddy/models"
	"studybuddy/services"
	"studybuddy/services/ingest"
	"studybuddy/storage"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// maxUploadBytes caps a single study document upload at 10 MB.
const maxUploadBytes = 10 << 20

var allowedUploadExtensions = []string{".pdf", ".txt", ".md"}

type MaterialHandler struct {
	materials *services.MaterialStoreService
	ingestor  *ingest.Service
	documents *storage.DocumentStore
}

func NewMaterialHandler(materials *services.MaterialStoreService, ingestor *ingest.Service, documents *storage.DocumentStore) *MaterialHandler {
	return &MaterialHandler{materials: materials, ingestor: ingestor, documents: documents}
}

func (h *MaterialHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/materials/upload", h.UploadDocument).Methods("POST")
	router.HandleFunc("/materials/process", h.ProcessMaterial).Methods("POST")
	router.HandleFunc("/materials/search", h.SearchMaterials).Methods("GET")
	router.HandleFunc("/materials", h.ListMaterials).Methods("GET")
	router.HandleFunc("/materials/{materialID}", h.GetMaterial).Methods("GET")
	router.HandleFunc("/materials/{materialID}", h.DeleteMaterial).Methods("DELETE")
}

func (h *MaterialHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "File exceeds the 10MB upload limit or the form is malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Missing file field in multipart form")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !lo.Contains(allowedUploadExtensions, ext) {
		h.writeErrorResponse(w, http.StatusBadRequest, "Only PDF, TXT and MD documents are supported")
		return
	}

	contentType := header.Header.Get("Content-Type")
	objectName, err := h.documents.Upload(r.Context(), owner, header.Filename, file, header.Size, contentType)
	if err != nil {
		log.Printf("[ERROR] Document upload failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, models.UploadResult{
		FileName: header.Filename,
		FilePath: objectName,
	})
}

func (h *MaterialHandler) ProcessMaterial(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.IngestMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	result, err := h.ingestor.IngestMaterial(owner, &req)
	if err != nil {
		log.Printf("[ERROR] Material ingestion failed: %v", err)
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, result)
}

func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	materials, err := h.materials.ListMaterials(owner)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve study materials")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, materials)
}

func (h *MaterialHandler) SearchMaterials(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	materials, err := h.materials.SearchMaterials(owner, strings.Fields(query))
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to search study materials")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, materials)
}

func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	materialID := mux.Vars(r)["materialID"]
	material, err := h.materials.GetMaterial(owner, materialID)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, material)
}

func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	materialID := mux.Vars(r)["materialID"]
	material, err := h.materials.GetMaterial(owner, materialID)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	if err := h.materials.DeleteMaterial(owner, materialID); err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	// The stored document is cleanup, not part of the deletion contract.
	if material.FilePath != "" {
		if err := h.documents.Delete(r.Context(), material.FilePath); err != nil {
			log.Printf("[ERROR] Failed to remove document %s: %v", material.FilePath, err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MaterialHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *MaterialHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
