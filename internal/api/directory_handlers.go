package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Directory record handlers. The engine only reads these records; the admin
// surface below exists so federation staff can maintain them.

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	profile, err := s.directory.Profile(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get profile", "error", err, "userId", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get profile")
		return
	}

	if profile == nil {
		respondError(w, http.StatusNotFound, "not_found", "profile not found")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.directory.PutProfile(r.Context(), userID, &profile); err != nil {
		slog.Error("failed to put profile", "error", err, "userId", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetDogs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	dogs, err := s.directory.Dogs(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get dogs", "error", err, "userId", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get dogs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dogs":  dogs,
		"total": len(dogs),
	})
}

func (s *Server) handlePutDogs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	var dogs []models.Dog
	if err := json.NewDecoder(r.Body).Decode(&dogs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	for i := range dogs {
		if dogs[i].ID == "" {
			respondError(w, http.StatusBadRequest, "validation_error", "every dog needs an id")
			return
		}
	}

	if err := s.directory.PutDogs(r.Context(), userID, dogs); err != nil {
		slog.Error("failed to put dogs", "error", err, "userId", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save dogs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dogs":  dogs,
		"total": len(dogs),
	})
}
