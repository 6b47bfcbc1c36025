package competition

import (
	"context"
	"fmt"
	"strings"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// UpdateParticipant applies one review mutation: a status transition, a
// class backfill, a score edit, or any combination. Only the competition
// organizer or an admin may call it. Writes are idempotent; the engine does
// not forbid re-setting a status the UI treats as terminal.
func (s *service) UpdateParticipant(ctx context.Context, actor *models.AuthUser, competitionID string, upd models.ParticipantUpdate) (*models.Participant, error) {
	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(comp) {
		return nil, ErrForbidden
	}

	p := resolveParticipant(comp, upd)
	if p == nil {
		return nil, ErrParticipantNotFound
	}

	// Legacy rows kept the class under a separate category field; a supplied
	// category migrates into the canonical class on write
	if class := upd.LookupClass(); class != "" {
		p.Class = class
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *upd.Status == models.ParticipantRejected {
			reason := strings.TrimSpace(upd.Reason)
			if reason == "" {
				return nil, ErrRejectReasonRequired
			}
			if p.Results == nil {
				p.Results = &models.Results{}
			}
			p.Results.Notes = reason
		}
		p.Status = *upd.Status
	}

	if upd.Results != nil {
		applyScores(p, upd.Results)
	}

	if err := s.repo.UpdateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}

	s.notify(comp.ID, models.LiveEvent{Type: "participant", Data: p})

	return p, nil
}

// SaveParticipants persists a batch of review mutations as independent
// writes and reports the fate of each one. There is no atomicity across
// items: earlier successes are not rolled back when a later item fails,
// and the caller sees exactly which writes landed.
func (s *service) SaveParticipants(ctx context.Context, actor *models.AuthUser, competitionID string, updates []models.ParticipantUpdate) ([]models.SaveOutcome, error) {
	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(comp) {
		return nil, ErrForbidden
	}

	outcomes := make([]models.SaveOutcome, 0, len(updates))
	for _, upd := range updates {
		p, err := s.UpdateParticipant(ctx, actor, competitionID, upd)
		if err != nil {
			outcomes = append(outcomes, models.SaveOutcome{
				ParticipantID: upd.ParticipantID,
				Saved:         false,
				Error:         err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, models.SaveOutcome{
			ParticipantID: p.ID,
			Saved:         true,
		})
	}

	return outcomes, nil
}

// resolveParticipant finds the addressed entry: by id when present, else by
// the composite (user, dog, class) key used for rows registered before ids
// existed. When the composite key matches both a rejected and an active
// entry, the active one wins.
func resolveParticipant(comp *models.Competition, upd models.ParticipantUpdate) *models.Participant {
	if upd.ParticipantID != "" {
		for _, p := range comp.Participants {
			if p.ID == upd.ParticipantID {
				return p
			}
		}
		return nil
	}

	class := upd.LookupClass()
	var fallback *models.Participant
	for _, p := range comp.Participants {
		if !p.Matches(upd.UserID, upd.DogID, class) {
			continue
		}
		if p.Status != models.ParticipantRejected {
			return p
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback
}
