package mocks

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/repository"
)

// MemoryGroupStore is an in-memory GroupRepository with the same locking
// semantics as the Postgres implementation: WithGroupTx serializes per
// group, and slot assignment fails for a second holder of the same number.
// It backs the state-machine and race tests.
type MemoryGroupStore struct {
	mu           sync.Mutex
	groups       map[uuid.UUID]*domain.EsusuGroup
	participants map[uuid.UUID][]*domain.EsusuParticipant
	locks        map[uuid.UUID]*sync.Mutex
}

func NewMemoryGroupStore() *MemoryGroupStore {
	return &MemoryGroupStore{
		groups:       make(map[uuid.UUID]*domain.EsusuGroup),
		participants: make(map[uuid.UUID][]*domain.EsusuParticipant),
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryGroupStore) CreateGroup(_ context.Context, group *domain.EsusuGroup, participants []*domain.EsusuParticipant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := *group
	s.groups[group.ID] = &g
	s.participants[group.ID] = cloneRoster(participants)
	s.locks[group.ID] = &sync.Mutex{}
	return nil
}

func (s *MemoryGroupStore) GetGroup(_ context.Context, groupID uuid.UUID) (*domain.EsusuGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	g := *group
	return &g, nil
}

func (s *MemoryGroupStore) GetParticipants(_ context.Context, groupID uuid.UUID) ([]*domain.EsusuParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.participants[groupID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneRoster(roster), nil
}

func (s *MemoryGroupStore) NameExists(_ context.Context, communityID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.CommunityID == communityID && strings.EqualFold(g.Name, name) && !g.IsArchived() {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryGroupStore) ListPendingWithDeadlineBetween(_ context.Context, from, to time.Time) ([]*domain.EsusuGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.EsusuGroup
	for _, g := range s.groups {
		if g.Status == domain.GroupStatusPendingMembers &&
			!g.ParticipationDeadline.Before(from) && g.ParticipationDeadline.Before(to) {
			c := *g
			result = append(result, &c)
		}
	}
	return result, nil
}

func (s *MemoryGroupStore) WithGroupTx(_ context.Context, groupID uuid.UUID, fn func(tx repository.GroupTx) error) error {
	s.mu.Lock()
	lock, ok := s.locks[groupID]
	s.mu.Unlock()
	if !ok {
		return sql.ErrNoRows
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	group := *s.groups[groupID]
	roster := cloneRoster(s.participants[groupID])
	s.mu.Unlock()

	tx := &memoryGroupTx{store: s, group: &group, roster: roster}
	if err := fn(tx); err != nil {
		return err
	}

	// commit
	s.mu.Lock()
	s.groups[groupID] = &group
	s.participants[groupID] = roster
	s.mu.Unlock()
	return nil
}

type memoryGroupTx struct {
	store  *MemoryGroupStore
	group  *domain.EsusuGroup
	roster []*domain.EsusuParticipant
}

func (t *memoryGroupTx) Group() *domain.EsusuGroup {
	return t.group
}

func (t *memoryGroupTx) Participants(context.Context) ([]*domain.EsusuParticipant, error) {
	return cloneRoster(t.roster), nil
}

func (t *memoryGroupTx) SetInviteStatus(_ context.Context, userID, status string, respondedAt time.Time) error {
	for _, p := range t.roster {
		if p.UserID == userID {
			p.InviteStatus = status
			at := respondedAt
			p.RespondedAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (t *memoryGroupTx) AssignSlot(_ context.Context, userID string, slot int) error {
	var target *domain.EsusuParticipant
	for _, p := range t.roster {
		if p.SlotNumber != nil && *p.SlotNumber == slot && p.UserID != userID {
			return errUniqueViolation{}
		}
		if p.UserID == userID {
			target = p
		}
	}
	if target == nil {
		return sql.ErrNoRows
	}
	n := slot
	target.SlotNumber = &n
	return nil
}

func (t *memoryGroupTx) SetGroupStatus(_ context.Context, status string) error {
	t.group.Status = status
	return nil
}

type errUniqueViolation struct{}

func (errUniqueViolation) Error() string { return "unique violation" }

func cloneRoster(roster []*domain.EsusuParticipant) []*domain.EsusuParticipant {
	out := make([]*domain.EsusuParticipant, len(roster))
	for i, p := range roster {
		c := *p
		if p.SlotNumber != nil {
			n := *p.SlotNumber
			c.SlotNumber = &n
		}
		if p.RespondedAt != nil {
			at := *p.RespondedAt
			c.RespondedAt = &at
		}
		out[i] = &c
	}
	return out
}
