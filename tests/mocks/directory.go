package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/adetunjii/esusu-engine/internal/directory"
)

type MockMembershipDirectory struct {
	mock.Mock
}

func (m *MockMembershipDirectory) GetCommunity(ctx context.Context, communityID string) (*directory.Community, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Community), args.Error(1)
}

func (m *MockMembershipDirectory) GetMember(ctx context.Context, communityID, userID string) (*directory.Member, error) {
	args := m.Called(ctx, communityID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Member), args.Error(1)
}

func (m *MockMembershipDirectory) CountMembers(ctx context.Context, communityID string) (int, error) {
	args := m.Called(ctx, communityID)
	return args.Int(0), args.Error(1)
}
