package competition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Register enters the caller's dog into one class of a competition. A dog
// may hold entries in several classes at once, but only one non-rejected
// entry per class: a rejected application does not block re-registration.
func (s *service) Register(ctx context.Context, actor *models.AuthUser, competitionID string, req models.RegisterRequest) (*models.Participant, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	class := req.EntryClass()
	if class == "" {
		return nil, ErrUnknownClass
	}

	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if !comp.Status.AcceptsRegistrations() {
		return nil, ErrRegistrationClosed
	}

	if !comp.OffersClass(class) {
		return nil, ErrUnknownClass
	}

	for _, p := range comp.Participants {
		if p.Matches(actor.UserID, req.DogID, class) && p.Status != models.ParticipantRejected {
			return nil, ErrDuplicateRegistration
		}
	}

	if comp.MaxParticipants > 0 && comp.ActiveEntries() >= comp.MaxParticipants {
		return nil, ErrCompetitionFull
	}

	dog, err := s.dir.Dog(ctx, actor.UserID, req.DogID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up dog: %w", err)
	}
	if dog == nil {
		return nil, ErrDogNotFound
	}

	participant := &models.Participant{
		ID:            uuid.NewString(),
		CompetitionID: comp.ID,
		UserID:        actor.UserID,
		DogID:         req.DogID,
		Class:         class,
		HandlerName:   req.HandlerName,
		Documents:     req.Documents,
		Status:        models.ParticipantRegistered,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to save registration: %w", err)
	}

	s.notify(comp.ID, models.LiveEvent{Type: "participant", Data: participant})

	return participant, nil
}
