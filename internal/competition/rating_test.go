package competition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// seedResult stores one confirmed, scored entry in the given competition
func seedResult(repo *memRepo, compID, id, userID, dogID, class string, total float64) {
	seedParticipant(repo, &models.Participant{
		ID: id, CompetitionID: compID,
		UserID: userID, DogID: dogID, Class: class,
		Status:  models.ParticipantConfirmed,
		Results: &models.Results{Total: &total},
	})
}

func qualifyingCompetition(repo *memRepo, id string) {
	seedCompetition(repo, &models.Competition{
		ID: id, OrganizerID: "org-1",
		Level:  "Відбіркові",
		Status: models.CompetitionCompleted,
	})
}

func TestRatingBestTwoOfThree(t *testing.T) {
	svc, repo, dir, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")
	qualifyingCompetition(repo, "c2")
	qualifyingCompetition(repo, "c3")

	seedResult(repo, "c1", "r1", "u1", "d1", "RH-FL-A", 280)
	seedResult(repo, "c2", "r2", "u1", "d1", "RH-FL-A", 250)
	seedResult(repo, "c3", "r3", "u1", "d1", "RH-FL-A", 270)

	dir.profiles["u1"] = &models.Profile{Name: "Iryna Kovalenko", Team: "Kyiv SAR"}
	seedDog(dir, "u1", &models.Dog{ID: "d1", Name: "Aira"})

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Score sums the best two totals; the competitions column counts all three
	e := entries[0]
	assert.Equal(t, 550.0, e.Score)
	assert.Equal(t, 3, e.Competitions)
	assert.Equal(t, 1, e.Place)
	assert.Equal(t, "Iryna Kovalenko", e.Athlete)
	assert.Equal(t, "Aira", e.Dog)
	assert.Equal(t, "Kyiv SAR", e.Team)
}

func TestRatingOrdering(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")
	qualifyingCompetition(repo, "c2")

	seedResult(repo, "c1", "r1", "u1", "d1", "RH-FL-A", 240)
	seedResult(repo, "c2", "r2", "u1", "d1", "RH-FL-A", 240)
	seedResult(repo, "c1", "r3", "u2", "d2", "RH-FL-A", 290)

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 480.0, entries[0].Score)
	assert.Equal(t, 1, entries[0].Place)
	assert.Equal(t, 290.0, entries[1].Score)
	assert.Equal(t, 2, entries[1].Place)
}

func TestRatingSeparatesDogs(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")
	qualifyingCompetition(repo, "c2")

	// Same athlete, two dogs: two independent rating rows
	seedResult(repo, "c1", "r1", "u1", "d1", "RH-FL-A", 250)
	seedResult(repo, "c2", "r2", "u1", "d2", "RH-FL-A", 260)

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRatingFilters(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")

	// Counted
	seedResult(repo, "c1", "ok", "u1", "d1", "RH-FL-A", 250)

	// Wrong class
	seedResult(repo, "c1", "other-class", "u2", "d2", "RH-T-A", 260)

	// Zero total means no result
	seedResult(repo, "c1", "zero", "u3", "d3", "RH-FL-A", 0)

	// Not confirmed
	seedParticipant(repo, &models.Participant{
		ID: "pending", CompetitionID: "c1",
		UserID: "u4", DogID: "d4", Class: "RH-FL-A",
		Status:  models.ParticipantRegistered,
		Results: &models.Results{Total: ptr(270.0)},
	})

	// Completed but at a non-qualifying level
	seedCompetition(repo, &models.Competition{
		ID: "club", OrganizerID: "org-1",
		Level:  "Клубні змагання",
		Status: models.CompetitionCompleted,
	})
	seedResult(repo, "club", "club-entry", "u5", "d5", "RH-FL-A", 280)

	// Qualifying level but not completed yet
	seedCompetition(repo, &models.Competition{
		ID: "running", OrganizerID: "org-1",
		Level:  "Відбіркові",
		Status: models.CompetitionRegistrationClosed,
	})
	seedResult(repo, "running", "running-entry", "u6", "d6", "RH-FL-A", 285)

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 250.0, entries[0].Score)
}

func TestRatingClassMatchIgnoresCase(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")
	seedResult(repo, "c1", "r1", "u1", "d1", "rh-fl-a", 250)

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRatingNameFallbacks(t *testing.T) {
	svc, repo, _, _ := newTestEngine()
	qualifyingCompetition(repo, "c1")
	seedResult(repo, "c1", "r1", "u1", "d1", "RH-FL-A", 250)

	// Nothing in the directory: placeholders instead of a failed rating
	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.UnknownAthlete, entries[0].Athlete)
	assert.Equal(t, models.UnknownDog, entries[0].Dog)
	assert.Equal(t, models.NoTeam, entries[0].Team)
}

func TestRatingEmpty(t *testing.T) {
	svc, _, _, _ := newTestEngine()

	entries, err := svc.Rating(context.Background(), "RH-FL-A")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
