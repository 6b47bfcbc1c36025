package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Participant lifecycle handlers: registration, organizer review, placement
// computation and the batch save used by the review page.

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	participant, err := s.service.Register(r.Context(), UserFromContext(r.Context()), id, req)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, participant)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	details, err := s.service.Details(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}

func (s *Server) handlePublicResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	results, err := s.service.PublicResults(r.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	var upd models.ParticipantUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if upd.Results != nil {
		if err := validate.Struct(upd.Results); err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	participant, err := s.service.UpdateParticipant(r.Context(), UserFromContext(r.Context()), id, upd)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, participant)
}

type saveParticipantsRequest struct {
	Updates []models.ParticipantUpdate `json:"updates"`
}

func (s *Server) handleSaveParticipants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	var req saveParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Updates) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "updates must not be empty")
		return
	}

	outcomes, err := s.service.SaveParticipants(r.Context(), UserFromContext(r.Context()), id, req.Updates)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
		"total":    len(outcomes),
	})
}

func (s *Server) handleComputePlacements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "competition id is required")
		return
	}

	ranked, err := s.service.ComputePlacements(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"participants": ranked,
		"total":        len(ranked),
	})
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	discipline := r.URL.Query().Get("discipline")
	if discipline == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "discipline query parameter is required")
		return
	}

	entries, err := s.service.Rating(r.Context(), discipline)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
