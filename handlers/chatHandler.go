package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"studybuddy/middleware"
	"studybuddy/models"
	"studybuddy/services"
	"studybuddy/services/tutor"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	chats *services.ChatService
	tutor *tutor.Service
}

func NewChatHandler(chats *services.ChatService, tutorService *tutor.Service) *ChatHandler {
	return &ChatHandler{chats: chats, tutor: tutorService}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chats", h.CreateChat).Methods("POST")
	router.HandleFunc("/chats", h.ListChats).Methods("GET")
	router.HandleFunc("/chats/{chatID}/messages", h.ListMessages).Methods("GET")
	router.HandleFunc("/chats/{chatID}/messages", h.SendTurn).Methods("POST")
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	chat, err := h.chats.CreateChat(owner, req.Subject)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, chat)
}

func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chats, err := h.chats.ListChats(owner)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve chats")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, chats)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chatID := mux.Vars(r)["chatID"]
	messages, err := h.chats.ListMessages(owner, chatID)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendTurn(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r)
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chatID := mux.Vars(r)["chatID"]

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	result, err := h.tutor.SendTurn(owner, chatID, &req)
	if err != nil {
		log.Printf("[ERROR] Tutoring turn failed: %v", err)
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *ChatHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ChatHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
