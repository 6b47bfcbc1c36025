package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dogsport-ua/competition-engine/internal/competition"
	"github.com/dogsport-ua/competition-engine/internal/models"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

var validate = validator.New()

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondEngineError maps engine sentinels to HTTP statuses; anything
// unrecognized is logged and becomes a 500
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, competition.ErrCompetitionNotFound):
		respondError(w, http.StatusNotFound, "competition_not_found", "competition not found")
	case errors.Is(err, competition.ErrParticipantNotFound):
		respondError(w, http.StatusNotFound, "participant_not_found", "participant not found")
	case errors.Is(err, competition.ErrDogNotFound):
		respondError(w, http.StatusNotFound, "dog_not_found", "dog not found")
	case errors.Is(err, competition.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, competition.ErrRegistrationClosed):
		respondError(w, http.StatusConflict, "registration_closed", err.Error())
	case errors.Is(err, competition.ErrDuplicateRegistration):
		respondError(w, http.StatusConflict, "duplicate_registration", err.Error())
	case errors.Is(err, competition.ErrCompetitionFull):
		respondError(w, http.StatusConflict, "competition_full", err.Error())
	case errors.Is(err, storage.ErrVersionConflict):
		respondError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, competition.ErrUnknownClass):
		respondError(w, http.StatusBadRequest, "unknown_class", err.Error())
	case errors.Is(err, competition.ErrRejectReasonRequired),
		errors.Is(err, competition.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		slog.Error("engine operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Competition handlers

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	comp, err := s.service.CreateCompetition(r.Context(), UserFromContext(r.Context()), req)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, comp)
}

func (s *Server) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	comp, err := s.service.GetCompetition(r.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, comp)
}

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	filters := models.ListFilters{
		Status:      models.CompetitionStatus(r.URL.Query().Get("status")),
		OrganizerID: r.URL.Query().Get("organizer_id"),
		Limit:       50, // default
		Offset:      0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	competitions, err := s.service.ListCompetitions(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list competitions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list competitions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"competitions": competitions,
		"total":        len(competitions),
	})
}

func (s *Server) handleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	var req models.UpdateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	comp, err := s.service.UpdateCompetition(r.Context(), UserFromContext(r.Context()), id, req)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, comp)
}

func (s *Server) handleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	if err := s.service.DeleteCompetition(r.Context(), UserFromContext(r.Context()), id); err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "competition deleted",
	})
}

// Class catalog handlers

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes := s.classes.Classes()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"classes": classes,
		"total":   len(classes),
	})
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "class code is required")
		return
	}

	class := s.classes.GetClass(code)
	if class == nil {
		respondError(w, http.StatusNotFound, "not_found", "class not found")
		return
	}

	respondJSON(w, http.StatusOK, class)
}
