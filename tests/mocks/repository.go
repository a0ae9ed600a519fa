package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/repository"
)

type MockGroupRepository struct {
	mock.Mock

	// Tx, when set, is handed to WithGroupTx callbacks.
	Tx repository.GroupTx
}

func (m *MockGroupRepository) CreateGroup(ctx context.Context, group *domain.EsusuGroup, participants []*domain.EsusuParticipant) error {
	args := m.Called(ctx, group, participants)
	return args.Error(0)
}

func (m *MockGroupRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.EsusuGroup, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EsusuGroup), args.Error(1)
}

func (m *MockGroupRepository) GetParticipants(ctx context.Context, groupID uuid.UUID) ([]*domain.EsusuParticipant, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EsusuParticipant), args.Error(1)
}

func (m *MockGroupRepository) NameExists(ctx context.Context, communityID, name string) (bool, error) {
	args := m.Called(ctx, communityID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepository) ListPendingWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.EsusuGroup, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EsusuGroup), args.Error(1)
}

func (m *MockGroupRepository) WithGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx repository.GroupTx) error) error {
	args := m.Called(ctx, groupID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}
