package competition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

var organizer = &models.AuthUser{UserID: "org-1", Role: models.RoleOrganizer}

func TestUpdateParticipantScores(t *testing.T) {
	svc, repo, _, notifier := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
		Status: models.ParticipantConfirmed,
	})

	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Results:       &models.ResultsPatch{Search: ptr(168.0), Obedience: ptr(92.5)},
	})
	require.NoError(t, err)
	require.NotNil(t, p.Results)
	require.NotNil(t, p.Results.Total)
	assert.Equal(t, 260.5, *p.Results.Total)
	assert.Equal(t, QualificationGood, p.Results.Qualification)

	stored := repo.stored("comp-1", "p-1")
	require.NotNil(t, stored.Results)
	assert.Equal(t, 260.5, *stored.Results.Total)
	assert.Equal(t, []string{"participant"}, notifier.types())
}

func TestUpdateParticipantClearsScores(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
		Status: models.ParticipantConfirmed,
		Results: &models.Results{
			Search: ptr(150.0), Obedience: ptr(140.0),
			Total: ptr(290.0), Qualification: QualificationExcellent, Place: 1,
		},
	})

	// An empty patch withdraws both raw scores; nothing derived survives
	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Results:       &models.ResultsPatch{},
	})
	require.NoError(t, err)
	assert.Nil(t, p.Results.Total)
	assert.Empty(t, p.Results.Qualification)
	assert.Zero(t, p.Results.Place)
}

func TestUpdateParticipantStatus(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Status:        ptr(models.ParticipantConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantConfirmed, p.Status)

	_, err = svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Status:        ptr(models.ParticipantStatus("approved")),
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateParticipantReject(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	// Rejection without a reason is refused
	_, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Status:        ptr(models.ParticipantRejected),
		Reason:        "   ",
	})
	assert.ErrorIs(t, err, ErrRejectReasonRequired)

	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Status:        ptr(models.ParticipantRejected),
		Reason:        "missing vaccination record",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantRejected, p.Status)
	require.NotNil(t, p.Results)
	assert.Equal(t, "missing vaccination record", p.Results.Notes)
}

func TestUpdateParticipantCompositeKey(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	// Rows registered before ids existed are addressed by (user, dog, class);
	// category is the legacy spelling of class
	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		UserID:   "u1",
		DogID:    "d1",
		Category: "RH-FL-A",
		Status:   ptr(models.ParticipantConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, models.ParticipantConfirmed, p.Status)
}

func TestUpdateParticipantCompositePrefersActive(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "rejected", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
		Status: models.ParticipantRejected,
	})
	seedParticipant(repo, &models.Participant{
		ID: "active", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
		Status: ptr(models.ParticipantConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, "active", p.ID)
}

func TestUpdateParticipantClassBackfill(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	// A supplied category migrates into the canonical class field
	p, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Category:      "RH-FL-B",
	})
	require.NoError(t, err)
	assert.Equal(t, "RH-FL-B", p.Class)
	assert.Equal(t, "RH-FL-B", repo.stored("comp-1", "p-1").Class)
}

func TestUpdateParticipantNotFound(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})

	_, err := svc.UpdateParticipant(context.Background(), organizer, "comp-1", models.ParticipantUpdate{
		ParticipantID: "missing",
	})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestUpdateParticipantForbidden(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})

	// Not even the athlete who registered may review the entry
	athlete := &models.AuthUser{UserID: "u1", Role: models.RoleAthlete}
	_, err := svc.UpdateParticipant(context.Background(), athlete, "comp-1", models.ParticipantUpdate{
		ParticipantID: "p-1",
		Status:        ptr(models.ParticipantConfirmed),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSaveParticipantsPartialSuccess(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})
	seedParticipant(repo, &models.Participant{
		ID: "p-1", CompetitionID: "comp-1",
		UserID: "u1", DogID: "d1", Class: "RH-FL-A",
	})
	seedParticipant(repo, &models.Participant{
		ID: "p-2", CompetitionID: "comp-1",
		UserID: "u2", DogID: "d2", Class: "RH-FL-A",
	})

	outcomes, err := svc.SaveParticipants(context.Background(), organizer, "comp-1", []models.ParticipantUpdate{
		{ParticipantID: "p-1", Status: ptr(models.ParticipantConfirmed)},
		{ParticipantID: "missing", Status: ptr(models.ParticipantConfirmed)},
		{ParticipantID: "p-2", Status: ptr(models.ParticipantConfirmed)},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Saved)
	assert.False(t, outcomes[1].Saved)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.True(t, outcomes[2].Saved)

	// The failed item does not roll back its neighbors
	assert.Equal(t, models.ParticipantConfirmed, repo.stored("comp-1", "p-1").Status)
	assert.Equal(t, models.ParticipantConfirmed, repo.stored("comp-1", "p-2").Status)
}

func TestSaveParticipantsForbidden(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	seedCompetition(repo, &models.Competition{ID: "comp-1", OrganizerID: "org-1"})

	other := &models.AuthUser{UserID: "org-2", Role: models.RoleOrganizer}
	_, err := svc.SaveParticipants(context.Background(), other, "comp-1", []models.ParticipantUpdate{
		{ParticipantID: "p-1"},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}
