package competition

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/models"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

// memRepo is an in-memory storage.Repository. Reads hand out copies so a
// mutation only becomes visible after it went through UpdateParticipant,
// the same way the real per-row store behaves.
type memRepo struct {
	mu           sync.Mutex
	competitions map[string]*models.Competition
	participants map[string][]*models.Participant
}

func newMemRepo() *memRepo {
	return &memRepo{
		competitions: make(map[string]*models.Competition),
		participants: make(map[string][]*models.Participant),
	}
}

func copyParticipant(p *models.Participant) *models.Participant {
	cp := *p
	if p.Results != nil {
		r := *p.Results
		cp.Results = &r
	}
	return &cp
}

func (m *memRepo) CreateCompetition(_ context.Context, c *models.Competition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Participants = nil
	m.competitions[c.ID] = &cp
	return nil
}

func (m *memRepo) GetCompetition(_ context.Context, id string) (*models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Participants = nil
	for _, p := range m.participants[id] {
		cp.Participants = append(cp.Participants, copyParticipant(p))
	}
	return &cp, nil
}

func (m *memRepo) UpdateCompetition(_ context.Context, c *models.Competition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.competitions[c.ID]
	if !ok {
		return fmt.Errorf("competition not found: %s", c.ID)
	}
	if cur.Version != c.Version {
		return storage.ErrVersionConflict
	}
	cp := *c
	cp.Participants = nil
	cp.Version = cur.Version + 1
	m.competitions[c.ID] = &cp
	c.Version = cp.Version
	return nil
}

func (m *memRepo) DeleteCompetition(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.competitions, id)
	delete(m.participants, id)
	return nil
}

func (m *memRepo) ListCompetitions(_ context.Context, filters models.ListFilters) ([]*models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Competition
	for _, c := range m.competitions {
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		if filters.OrganizerID != "" && c.OrganizerID != filters.OrganizerID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) GetOpenPastStart(_ context.Context, now time.Time) ([]*models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Competition
	for _, c := range m.competitions {
		if c.Status == models.CompetitionRegistrationOpen && c.StartDate.Before(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) CreateParticipant(_ context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.CompetitionID] = append(m.participants[p.CompetitionID], copyParticipant(p))
	return nil
}

func (m *memRepo) UpdateParticipant(_ context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.participants[p.CompetitionID]
	for i, cur := range list {
		if cur.ID == p.ID {
			list[i] = copyParticipant(p)
			return nil
		}
	}
	return fmt.Errorf("participant not found: %s", p.ID)
}

func (m *memRepo) GetParticipants(_ context.Context, competitionID string) ([]*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Participant
	for _, p := range m.participants[competitionID] {
		out = append(out, copyParticipant(p))
	}
	return out, nil
}

// stored returns the persisted row without the service in between
func (m *memRepo) stored(competitionID, participantID string) *models.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants[competitionID] {
		if p.ID == participantID {
			return copyParticipant(p)
		}
	}
	return nil
}

func (m *memRepo) GetAuthToken(_ context.Context, _ string) (*models.AuthToken, error) {
	return nil, nil
}

func (m *memRepo) UpdateTokenLastUsed(_ context.Context, _ string) error { return nil }

func (m *memRepo) Ping(_ context.Context) error { return nil }

func (m *memRepo) Close() error { return nil }

// memDirectory is an in-memory profile/dog directory
type memDirectory struct {
	profiles map[string]*models.Profile
	dogs     map[string][]*models.Dog
	err      error // forced lookup failure
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		profiles: make(map[string]*models.Profile),
		dogs:     make(map[string][]*models.Dog),
	}
}

func (d *memDirectory) Profile(_ context.Context, userID string) (*models.Profile, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.profiles[userID], nil
}

func (d *memDirectory) Dog(_ context.Context, userID, dogID string) (*models.Dog, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, dog := range d.dogs[userID] {
		if dog.ID == dogID {
			return dog, nil
		}
	}
	return nil, nil
}

func (d *memDirectory) Ping(_ context.Context) error { return nil }

// memCatalog accepts a fixed class list and qualifying level set
type memCatalog struct {
	classes []string
	levels  []string
}

func (c *memCatalog) KnownClass(code string) bool {
	for _, cl := range c.classes {
		if strings.EqualFold(cl, code) {
			return true
		}
	}
	return false
}

func (c *memCatalog) IsQualifyingLevel(level string) bool {
	for _, l := range c.levels {
		if l == level {
			return true
		}
	}
	return false
}

// memNotifier records published live events
type memNotifier struct {
	mu     sync.Mutex
	events []models.LiveEvent
}

func (n *memNotifier) Publish(_ string, event models.LiveEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *memNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

// newTestEngine wires a service over the in-memory fakes
func newTestEngine() (Service, *memRepo, *memDirectory, *memNotifier) {
	repo := newMemRepo()
	dir := newMemDirectory()
	cat := &memCatalog{
		classes: []string{"RH-FL-A", "RH-FL-B", "RH-T-A", "RH-T-B"},
		levels:  []string{"Відбіркові", "Чемпіонат України"},
	}
	notifier := &memNotifier{}
	return NewService(repo, dir, cat, notifier), repo, dir, notifier
}

func ptr[T any](v T) *T { return &v }

// seedCompetition stores a competition and returns it
func seedCompetition(repo *memRepo, c *models.Competition) *models.Competition {
	if c.ID == "" {
		c.ID = "comp-1"
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = models.CompetitionRegistrationOpen
	}
	if c.Categories == nil {
		c.Categories = []string{"RH-FL-A", "RH-FL-B"}
	}
	_ = repo.CreateCompetition(context.Background(), c)
	return c
}

// seedParticipant stores one participant row
func seedParticipant(repo *memRepo, p *models.Participant) *models.Participant {
	if p.Status == "" {
		p.Status = models.ParticipantRegistered
	}
	_ = repo.CreateParticipant(context.Background(), p)
	return p
}

func seedDog(dir *memDirectory, userID string, dog *models.Dog) {
	dir.dogs[userID] = append(dir.dogs[userID], dog)
}
