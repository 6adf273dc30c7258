package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studybuddy/models"
	"studybuddy/services/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/messages", h.SendMessage).Methods("POST")
	router.HandleFunc("/sessions/{id}/document", h.UploadDocument).Methods("POST")
	router.HandleFunc("/sessions/{id}/document", h.ResetDocument).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/new", h.NewSession).Methods("POST")
	router.HandleFunc("/sessions/{id}/summary", h.GetSummary).Methods("GET")
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create(r.Context())
	if err != nil {
		zap.S().Errorf("Failed to create session: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, models.CreateSessionResponse{SessionID: s.ID()})
}

func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		zap.S().Errorf("Failed to decode message request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	zap.S().Infof("Received %s message for session %s", mode, s.ID())
	resp, err := s.Respond(r.Context(), mode, req.Message)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *SessionHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		zap.S().Errorf("Failed to decode document request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	status, err := s.UploadDocument(r.Context(), req.Text)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	resp := s.DocumentStatus()
	resp.Status = status
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *SessionHandler) ResetDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.ResetDocument(r.Context()); err != nil {
		zap.S().Errorf("Failed to reset document for session %s: %v", s.ID(), err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, s.NewSession(r.Context()))
}

func (h *SessionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, s.Summary())
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrEmptyInput):
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *SessionHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *SessionHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
