package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// ErrVersionConflict is returned when a competition update loses the
// optimistic concurrency check (another writer bumped the version first)
var ErrVersionConflict = errors.New("competition was modified concurrently")

// Repository defines the interface for competition persistence.
// Participants are stored per-row: mutating one entry never rewrites the
// rest of the list.
type Repository interface {
	// Competitions
	CreateCompetition(ctx context.Context, c *models.Competition) error
	GetCompetition(ctx context.Context, id string) (*models.Competition, error)
	UpdateCompetition(ctx context.Context, c *models.Competition) error
	DeleteCompetition(ctx context.Context, id string) error
	ListCompetitions(ctx context.Context, filters models.ListFilters) ([]*models.Competition, error)
	GetOpenPastStart(ctx context.Context, now time.Time) ([]*models.Competition, error)

	// Participants
	CreateParticipant(ctx context.Context, p *models.Participant) error
	UpdateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipants(ctx context.Context, competitionID string) ([]*models.Participant, error)

	// Auth tokens
	GetAuthToken(ctx context.Context, token string) (*models.AuthToken, error)
	UpdateTokenLastUsed(ctx context.Context, token string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
