package models

import (
	"time"
)

// CompetitionStatus represents the lifecycle state of a competition
type CompetitionStatus string

const (
	CompetitionPlanned            CompetitionStatus = "planned"
	CompetitionRegistrationOpen   CompetitionStatus = "registration_open"
	CompetitionRegistrationClosed CompetitionStatus = "registration_closed"
	CompetitionCompleted          CompetitionStatus = "completed"
)

// Valid reports whether the status is one of the known lifecycle states
func (s CompetitionStatus) Valid() bool {
	switch s {
	case CompetitionPlanned, CompetitionRegistrationOpen, CompetitionRegistrationClosed, CompetitionCompleted:
		return true
	}
	return false
}

// AcceptsRegistrations returns true while new entries may be submitted
func (s CompetitionStatus) AcceptsRegistrations() bool {
	return s == CompetitionRegistrationOpen
}

// Competition is the aggregate root: an event owned by an organizer,
// offering a set of classes and holding the participant entries.
type Competition struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	StartDate       time.Time         `json:"startDate"`
	EndDate         *time.Time        `json:"endDate,omitempty"`
	Location        string            `json:"location,omitempty"`
	Level           string            `json:"level,omitempty"`
	Categories      []string          `json:"categories"`
	MaxParticipants int               `json:"maxParticipants,omitempty"`
	OrganizerID     string            `json:"organizerId"`
	Status          CompetitionStatus `json:"status"`
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	Participants    []*Participant    `json:"participants,omitempty"`
}

// OffersClass reports whether the class code is one of the declared categories
func (c *Competition) OffersClass(class string) bool {
	for _, cat := range c.Categories {
		if cat == class {
			return true
		}
	}
	return false
}

// ActiveEntries counts participants that have not been rejected
func (c *Competition) ActiveEntries() int {
	n := 0
	for _, p := range c.Participants {
		if p.Status != ParticipantRejected {
			n++
		}
	}
	return n
}

// ParticipantStatus represents the review state of a participant entry
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantConfirmed  ParticipantStatus = "confirmed"
	ParticipantRejected   ParticipantStatus = "rejected"
)

// Valid reports whether the status is one of the known review states
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantRegistered, ParticipantConfirmed, ParticipantRejected:
		return true
	}
	return false
}

// Participant is a single dog+handler entry in one class of one competition
type Participant struct {
	ID            string            `json:"id"`
	CompetitionID string            `json:"-"`
	UserID        string            `json:"userId"`
	DogID         string            `json:"dogId"`
	Class         string            `json:"class"`
	HandlerName   string            `json:"handlerName,omitempty"`
	Documents     []string          `json:"documents,omitempty"`
	Status        ParticipantStatus `json:"status"`
	Results       *Results          `json:"results,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Matches reports whether the entry matches the composite key used for
// legacy rows that were stored without an id
func (p *Participant) Matches(userID, dogID, class string) bool {
	return p.UserID == userID && p.DogID == dogID && p.Class == class
}

// Results holds the raw phase scores and everything derived from them.
// Total and Qualification are recomputed on every edit; Place is assigned
// only by the placement run.
type Results struct {
	Search        *float64 `json:"search,omitempty"`
	Obedience     *float64 `json:"obedience,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	Qualification string   `json:"qualification,omitempty"`
	Place         int      `json:"place,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// Empty reports whether both raw scores are absent
func (r *Results) Empty() bool {
	return r == nil || (r.Search == nil && r.Obedience == nil)
}

// HydratedParticipant is a participant enriched with directory data for
// the review page and the public results view
type HydratedParticipant struct {
	Participant
	Category string `json:"category"` // alias of class kept for older clients
	UserName string `json:"userName"`
	DogName  string `json:"dogName"`
	DogBirth string `json:"dogBirth,omitempty"`
	DogBreed string `json:"dogBreed,omitempty"`
}

// CompetitionDetails is a competition with hydrated participants
type CompetitionDetails struct {
	Competition
	Participants []*HydratedParticipant `json:"participants"`
}

// CreateCompetitionRequest is the payload for creating a competition
type CreateCompetitionRequest struct {
	Name            string     `json:"name" validate:"required"`
	StartDate       time.Time  `json:"startDate" validate:"required"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Location        string     `json:"location,omitempty"`
	Level           string     `json:"level,omitempty"`
	Categories      []string   `json:"categories" validate:"required,min=1,dive,required"`
	MaxParticipants int        `json:"maxParticipants,omitempty" validate:"gte=0"`
}

// UpdateCompetitionRequest is the payload for updating competition metadata.
// Nil fields are left untouched.
type UpdateCompetitionRequest struct {
	Name            *string            `json:"name,omitempty"`
	StartDate       *time.Time         `json:"startDate,omitempty"`
	EndDate         *time.Time         `json:"endDate,omitempty"`
	Location        *string            `json:"location,omitempty"`
	Level           *string            `json:"level,omitempty"`
	Categories      []string           `json:"categories,omitempty"`
	MaxParticipants *int               `json:"maxParticipants,omitempty"`
	Status          *CompetitionStatus `json:"status,omitempty"`
}

// RegisterRequest is the payload for entering a dog into a competition.
// Category is a legacy alias of Class; exactly one of the two is required.
type RegisterRequest struct {
	DogID       string   `json:"dogId" validate:"required"`
	Class       string   `json:"class,omitempty"`
	Category    string   `json:"category,omitempty"`
	HandlerName string   `json:"handlerName,omitempty"`
	Documents   []string `json:"documents,omitempty"`
}

// EntryClass returns the canonical class of the request
func (r *RegisterRequest) EntryClass() string {
	if r.Class != "" {
		return r.Class
	}
	return r.Category
}

// ResultsPatch replaces the raw scores of a participant. A nil field clears
// that phase score; derived fields are recomputed by the engine.
type ResultsPatch struct {
	Search    *float64 `json:"search,omitempty" validate:"omitempty,gte=0"`
	Obedience *float64 `json:"obedience,omitempty" validate:"omitempty,gte=0"`
	Notes     *string  `json:"notes,omitempty"`
}

// ParticipantUpdate addresses one participant and describes the review
// mutation to apply. The participant resolves by ParticipantID when set,
// otherwise by the composite (userId, dogId, class/category) key.
type ParticipantUpdate struct {
	ParticipantID string             `json:"participantId,omitempty"`
	UserID        string             `json:"userId,omitempty"`
	DogID         string             `json:"dogId,omitempty"`
	Class         string             `json:"class,omitempty"`
	Category      string             `json:"category,omitempty"`
	Status        *ParticipantStatus `json:"status,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Results       *ResultsPatch      `json:"results,omitempty"`
}

// LookupClass returns the class used for composite-key matching
func (u *ParticipantUpdate) LookupClass() string {
	if u.Class != "" {
		return u.Class
	}
	return u.Category
}

// SaveOutcome reports the fate of one item of a batch save. Batch saves are
// not atomic: earlier successes stay in place when a later item fails.
type SaveOutcome struct {
	ParticipantID string `json:"participantId,omitempty"`
	Saved         bool   `json:"saved"`
	Error         string `json:"error,omitempty"`
}

// ListFilters narrows competition listings
type ListFilters struct {
	Status      CompetitionStatus
	OrganizerID string
	Limit       int
	Offset      int
}
