package competition

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Qualification tiers derived from the total score
const (
	QualificationInsufficient  = "Insufficient"
	QualificationSatisfactory  = "Satisfactory"
	QualificationGood          = "Good"
	QualificationVeryGood      = "Very good"
	QualificationExcellent     = "Excellent"
	QualificationNotClassified = "Not classified"
)

// qualificationFor maps a total score to its tier. Scores are entered in
// half-point steps; band boundaries follow the federation regulations
// (210 / 240 / 270 / 286 on a 300-point scale). Values outside 0..300
// fall through to the default tier.
func qualificationFor(total float64) string {
	switch {
	case total < 0 || total > 300:
		return QualificationNotClassified
	case total < 210:
		return QualificationInsufficient
	case total < 240:
		return QualificationSatisfactory
	case total < 270:
		return QualificationGood
	case total < 286:
		return QualificationVeryGood
	default:
		return QualificationExcellent
	}
}

// applyScores replaces the raw scores of a participant and recomputes the
// derived fields
func applyScores(p *models.Participant, patch *models.ResultsPatch) {
	if p.Results == nil {
		p.Results = &models.Results{}
	}

	p.Results.Search = patch.Search
	p.Results.Obedience = patch.Obedience
	if patch.Notes != nil {
		p.Results.Notes = *patch.Notes
	}

	recompute(p.Results)
}

// recompute derives total and qualification from the raw scores. When both
// raw scores are absent, every derived field is cleared with them: a
// participant never keeps a stale placement without scores.
func recompute(r *models.Results) {
	if r.Search == nil && r.Obedience == nil {
		r.Total = nil
		r.Qualification = ""
		r.Place = 0
		return
	}

	total := 0.0
	if r.Search != nil {
		total += *r.Search
	}
	if r.Obedience != nil {
		total += *r.Obedience
	}

	r.Total = &total
	r.Qualification = qualificationFor(total)
}

// rankGroup orders one class group for placement. Higher total wins; ties
// break on the search score, then on the dog's birth date where the younger
// dog ranks better. A missing birth date counts as oldest.
func rankGroup(group []*models.Participant, birth func(p *models.Participant) time.Time) {
	sort.SliceStable(group, func(i, j int) bool {
		if ti, tj := scoreOf(group[i].Results.Total), scoreOf(group[j].Results.Total); ti != tj {
			return ti > tj
		}
		if si, sj := scoreOf(group[i].Results.Search), scoreOf(group[j].Results.Search); si != sj {
			return si > sj
		}
		return birth(group[i]).After(birth(group[j]))
	})
}

func scoreOf(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ComputePlacements recomputes the place of every confirmed and scored
// participant, grouped per class. Each group gets its own 1-based sequence.
// The operation fully replaces previous places and is idempotent; it is
// triggered manually by the organizer, never by score edits.
func (s *service) ComputePlacements(ctx context.Context, actor *models.AuthUser, competitionID string) ([]*models.Participant, error) {
	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(comp) {
		return nil, ErrForbidden
	}

	// Entries without a class or without a derived total stay unranked
	groups := make(map[string][]*models.Participant)
	for _, p := range comp.Participants {
		if p.Status != models.ParticipantConfirmed || p.Class == "" {
			continue
		}
		if p.Results == nil || p.Results.Total == nil {
			continue
		}
		groups[p.Class] = append(groups[p.Class], p)
	}

	birthDates := make(map[string]time.Time)
	birth := func(p *models.Participant) time.Time {
		key := p.UserID + "|" + p.DogID
		if t, ok := birthDates[key]; ok {
			return t
		}
		var t time.Time
		dog, err := s.dir.Dog(ctx, p.UserID, p.DogID)
		if err != nil {
			slog.Warn("failed to resolve dog for tie-break", "userId", p.UserID, "dogId", p.DogID, "error", err)
		} else if dog != nil {
			t = dog.Birth()
		}
		birthDates[key] = t
		return t
	}

	classes := make([]string, 0, len(groups))
	for class := range groups {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var ranked []*models.Participant
	for _, class := range classes {
		group := groups[class]
		rankGroup(group, birth)
		for i, p := range group {
			p.Results.Place = i + 1
			if err := s.repo.UpdateParticipant(ctx, p); err != nil {
				return nil, fmt.Errorf("failed to persist place for %s: %w", p.ID, err)
			}
			ranked = append(ranked, p)
		}
	}

	s.notify(competitionID, models.LiveEvent{Type: "placements", Data: ranked})

	return ranked, nil
}
