package competition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dogsport-ua/competition-engine/internal/models"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

// Directory resolves athlete and dog records from the federation key-value
// store
type Directory interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	Dog(ctx context.Context, userID, dogID string) (*models.Dog, error)
	Ping(ctx context.Context) error
}

// ClassCatalog answers which classes exist and which competition levels
// qualify for the rating
type ClassCatalog interface {
	KnownClass(code string) bool
	IsQualifyingLevel(level string) bool
}

// Notifier pushes review-page events to live subscribers
type Notifier interface {
	Publish(competitionID string, event models.LiveEvent)
}

// Service is the competition engine: registration, review and scoring,
// placement computation and the cross-competition rating
type Service interface {
	CreateCompetition(ctx context.Context, actor *models.AuthUser, req models.CreateCompetitionRequest) (*models.Competition, error)
	GetCompetition(ctx context.Context, id string) (*models.Competition, error)
	ListCompetitions(ctx context.Context, filters models.ListFilters) ([]*models.Competition, error)
	UpdateCompetition(ctx context.Context, actor *models.AuthUser, id string, req models.UpdateCompetitionRequest) (*models.Competition, error)
	DeleteCompetition(ctx context.Context, actor *models.AuthUser, id string) error

	Register(ctx context.Context, actor *models.AuthUser, competitionID string, req models.RegisterRequest) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, actor *models.AuthUser, competitionID string, upd models.ParticipantUpdate) (*models.Participant, error)
	SaveParticipants(ctx context.Context, actor *models.AuthUser, competitionID string, updates []models.ParticipantUpdate) ([]models.SaveOutcome, error)
	ComputePlacements(ctx context.Context, actor *models.AuthUser, competitionID string) ([]*models.Participant, error)

	Details(ctx context.Context, actor *models.AuthUser, competitionID string) (*models.CompetitionDetails, error)
	PublicResults(ctx context.Context, competitionID string) (*models.CompetitionDetails, error)
	Rating(ctx context.Context, discipline string) ([]models.RatingEntry, error)

	CloseDueRegistrations(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type service struct {
	repo     storage.Repository
	dir      Directory
	catalog  ClassCatalog
	notifier Notifier
}

// NewService creates the competition engine. The notifier may be nil when
// no live feed is wired.
func NewService(repo storage.Repository, dir Directory, cat ClassCatalog, notifier Notifier) Service {
	return &service{
		repo:     repo,
		dir:      dir,
		catalog:  cat,
		notifier: notifier,
	}
}

func (s *service) notify(competitionID string, event models.LiveEvent) {
	if s.notifier != nil {
		s.notifier.Publish(competitionID, event)
	}
}

// getCompetition loads the aggregate with participants, mapping absence to
// the sentinel
func (s *service) getCompetition(ctx context.Context, id string) (*models.Competition, error) {
	comp, err := s.repo.GetCompetition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if comp == nil {
		return nil, ErrCompetitionNotFound
	}
	return comp, nil
}

// CreateCompetition creates a new competition owned by the caller
func (s *service) CreateCompetition(ctx context.Context, actor *models.AuthUser, req models.CreateCompetitionRequest) (*models.Competition, error) {
	if actor == nil || (actor.Role != models.RoleOrganizer && actor.Role != models.RoleAdmin) {
		return nil, ErrForbidden
	}

	for _, class := range req.Categories {
		if !s.catalog.KnownClass(class) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
		}
	}

	comp := &models.Competition{
		ID:              uuid.NewString(),
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Location:        req.Location,
		Level:           req.Level,
		Categories:      req.Categories,
		MaxParticipants: req.MaxParticipants,
		OrganizerID:     actor.UserID,
		Status:          models.CompetitionPlanned,
		Version:         1,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateCompetition(ctx, comp); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}

	return comp, nil
}

// GetCompetition returns competition metadata without participants
func (s *service) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	comp, err := s.getCompetition(ctx, id)
	if err != nil {
		return nil, err
	}
	comp.Participants = nil
	return comp, nil
}

// ListCompetitions returns competitions matching the filters
func (s *service) ListCompetitions(ctx context.Context, filters models.ListFilters) ([]*models.Competition, error) {
	return s.repo.ListCompetitions(ctx, filters)
}

// UpdateCompetition applies a metadata/status patch under the optimistic
// version check
func (s *service) UpdateCompetition(ctx context.Context, actor *models.AuthUser, id string, req models.UpdateCompetitionRequest) (*models.Competition, error) {
	comp, err := s.getCompetition(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(comp) {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		comp.Name = *req.Name
	}
	if req.StartDate != nil {
		comp.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		comp.EndDate = req.EndDate
	}
	if req.Location != nil {
		comp.Location = *req.Location
	}
	if req.Level != nil {
		comp.Level = *req.Level
	}
	if req.Categories != nil {
		for _, class := range req.Categories {
			if !s.catalog.KnownClass(class) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
			}
		}
		comp.Categories = req.Categories
	}
	if req.MaxParticipants != nil {
		comp.MaxParticipants = *req.MaxParticipants
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		comp.Status = *req.Status
	}

	if err := s.repo.UpdateCompetition(ctx, comp); err != nil {
		return nil, err
	}

	comp.Participants = nil
	return comp, nil
}

// DeleteCompetition removes a competition and all its participants
func (s *service) DeleteCompetition(ctx context.Context, actor *models.AuthUser, id string) error {
	comp, err := s.getCompetition(ctx, id)
	if err != nil {
		return err
	}

	if !actor.CanManage(comp) {
		return ErrForbidden
	}

	if err := s.repo.DeleteCompetition(ctx, id); err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}

	return nil
}

// Details returns the competition with every participant hydrated for the
// organizer review page
func (s *service) Details(ctx context.Context, actor *models.AuthUser, competitionID string) (*models.CompetitionDetails, error) {
	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(comp) {
		return nil, ErrForbidden
	}

	return s.hydrate(ctx, comp, false), nil
}

// PublicResults returns the competition with only confirmed participants,
// hydrated for the public results view
func (s *service) PublicResults(ctx context.Context, competitionID string) (*models.CompetitionDetails, error) {
	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	return s.hydrate(ctx, comp, true), nil
}

func (s *service) hydrate(ctx context.Context, comp *models.Competition, confirmedOnly bool) *models.CompetitionDetails {
	details := &models.CompetitionDetails{
		Competition:  *comp,
		Participants: make([]*models.HydratedParticipant, 0, len(comp.Participants)),
	}
	details.Competition.Participants = nil

	profiles := make(map[string]*models.Profile)
	dogs := make(map[string]*models.Dog)

	for _, p := range comp.Participants {
		if confirmedOnly && p.Status != models.ParticipantConfirmed {
			continue
		}

		hp := &models.HydratedParticipant{
			Participant: *p,
			Category:    p.Class,
			UserName:    models.UnknownAthlete,
			DogName:     models.UnknownDog,
		}

		profile, ok := profiles[p.UserID]
		if !ok {
			var err error
			profile, err = s.dir.Profile(ctx, p.UserID)
			if err != nil {
				slog.Warn("failed to resolve profile", "userId", p.UserID, "error", err)
			}
			profiles[p.UserID] = profile
		}
		if profile != nil && profile.Name != "" {
			hp.UserName = profile.Name
		}

		dogKey := p.UserID + "|" + p.DogID
		dog, ok := dogs[dogKey]
		if !ok {
			var err error
			dog, err = s.dir.Dog(ctx, p.UserID, p.DogID)
			if err != nil {
				slog.Warn("failed to resolve dog", "userId", p.UserID, "dogId", p.DogID, "error", err)
			}
			dogs[dogKey] = dog
		}
		if dog != nil {
			if dog.Name != "" {
				hp.DogName = dog.Name
			}
			hp.DogBirth = dog.BirthDate
			hp.DogBreed = dog.Breed
		}

		details.Participants = append(details.Participants, hp)
	}

	return details
}

// CloseDueRegistrations moves competitions whose start date has passed from
// registration_open to registration_closed. A version conflict means
// someone edited the competition concurrently; the next cycle retries it.
func (s *service) CloseDueRegistrations(ctx context.Context) (int, error) {
	due, err := s.repo.GetOpenPastStart(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to find due competitions: %w", err)
	}

	closed := 0
	for _, comp := range due {
		comp.Status = models.CompetitionRegistrationClosed
		if err := s.repo.UpdateCompetition(ctx, comp); err != nil {
			slog.Warn("failed to close registration", "id", comp.ID, "error", err)
			continue
		}
		slog.Info("registration closed", "id", comp.ID, "name", comp.Name, "startDate", comp.StartDate)
		closed++
	}

	return closed, nil
}

// Ping verifies both backing stores
func (s *service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if err := s.dir.Ping(ctx); err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	return nil
}
