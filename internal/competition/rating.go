package competition

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Rating builds the cross-competition leaderboard for one discipline class.
// Only completed competitions at a qualifying level count; within them,
// only confirmed participants of the requested class with a non-zero total.
// Each athlete+dog pair scores the sum of its best two totals, while the
// competitions column counts every qualifying result. The call is a pure
// read and recomputes from storage every time.
func (s *service) Rating(ctx context.Context, discipline string) ([]models.RatingEntry, error) {
	completed, err := s.repo.ListCompetitions(ctx, models.ListFilters{Status: models.CompetitionCompleted})
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}

	type aggregate struct {
		userID string
		dogID  string
		totals []float64
	}

	var order []string
	byKey := make(map[string]*aggregate)

	for _, c := range completed {
		if !s.catalog.IsQualifyingLevel(c.Level) {
			continue
		}

		full, err := s.repo.GetCompetition(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load competition %s: %w", c.ID, err)
		}
		if full == nil {
			continue
		}

		for _, p := range full.Participants {
			if p.Status != models.ParticipantConfirmed {
				continue
			}
			if !strings.EqualFold(p.Class, discipline) {
				continue
			}
			// A zero total is treated as no result under current policy
			if p.Results == nil || p.Results.Total == nil || *p.Results.Total == 0 {
				continue
			}

			key := p.UserID + "|" + p.DogID
			agg, ok := byKey[key]
			if !ok {
				agg = &aggregate{userID: p.UserID, dogID: p.DogID}
				byKey[key] = agg
				order = append(order, key)
			}
			agg.totals = append(agg.totals, *p.Results.Total)
		}
	}

	entries := make([]models.RatingEntry, 0, len(order))
	for _, key := range order {
		agg := byKey[key]

		sort.Sort(sort.Reverse(sort.Float64Slice(agg.totals)))
		score := 0.0
		for i, total := range agg.totals {
			if i >= 2 {
				break
			}
			score += total
		}

		athlete, team := s.resolveAthlete(ctx, agg.userID)
		entries = append(entries, models.RatingEntry{
			Athlete:      athlete,
			Dog:          s.resolveDogName(ctx, agg.userID, agg.dogID),
			Team:         team,
			Score:        score,
			Competitions: len(agg.totals),
		})
	}

	// Stable sort keeps first-seen order among equal scores
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Place = i + 1
	}

	return entries, nil
}

// resolveAthlete returns display name and team with fallbacks; a directory
// failure degrades to the fallbacks rather than failing the whole rating
func (s *service) resolveAthlete(ctx context.Context, userID string) (name, team string) {
	name, team = models.UnknownAthlete, models.NoTeam

	profile, err := s.dir.Profile(ctx, userID)
	if err != nil {
		slog.Warn("failed to resolve profile", "userId", userID, "error", err)
		return name, team
	}
	if profile == nil {
		return name, team
	}

	if profile.Name != "" {
		name = profile.Name
	}
	if profile.Team != "" {
		team = profile.Team
	}
	return name, team
}

func (s *service) resolveDogName(ctx context.Context, userID, dogID string) string {
	dog, err := s.dir.Dog(ctx, userID, dogID)
	if err != nil {
		slog.Warn("failed to resolve dog", "userId", userID, "dogId", dogID, "error", err)
		return models.UnknownDog
	}
	if dog == nil || dog.Name == "" {
		return models.UnknownDog
	}
	return dog.Name
}
