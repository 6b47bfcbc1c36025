package competition

import "errors"

var (
	// ErrCompetitionNotFound is returned when the competition id resolves to nothing
	ErrCompetitionNotFound = errors.New("competition not found")

	// ErrParticipantNotFound is returned when neither the participant id nor
	// the composite (user, dog, class) key matches an entry
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrDogNotFound is returned when the dog is not in the owner's directory record
	ErrDogNotFound = errors.New("dog not found")

	// ErrRegistrationClosed is returned when the competition does not accept entries
	ErrRegistrationClosed = errors.New("registration is closed")

	// ErrDuplicateRegistration is returned when the same dog already holds a
	// non-rejected entry in the same class
	ErrDuplicateRegistration = errors.New("dog is already registered in this class")

	// ErrCompetitionFull is returned when the participant limit is reached
	ErrCompetitionFull = errors.New("competition participant limit reached")

	// ErrUnknownClass is returned when the class is missing or not offered
	ErrUnknownClass = errors.New("class is not offered by this competition")

	// ErrForbidden is returned when the caller is neither the competition
	// organizer nor an admin
	ErrForbidden = errors.New("operation requires competition organizer or admin")

	// ErrRejectReasonRequired is returned when a rejection carries no reason
	ErrRejectReasonRequired = errors.New("rejection requires a reason")

	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("invalid status")
)
