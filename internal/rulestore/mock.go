package rulestore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/perimetra/fwapi/internal/rules"
)

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Query(ctx context.Context, f Filter) ([]*rules.Rule, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rules.Rule), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id string) (*rules.Rule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rules.Rule), args.Error(1)
}

func (m *MockStore) Add(ctx context.Context, r *rules.Rule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
