// Package mock provides testify-based mock implementations of the
// engine's repository and storage interfaces, for use in scheduler
// and service tests that need to observe persistence calls without a
// real database or object store.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/module/reachability/internal/repository"
)

// MockRunRepository is a mock implementation of repository.RunRepository.
type MockRunRepository struct {
	mock.Mock
}

// GetPendingRuns mocks the GetPendingRuns method.
func (m *MockRunRepository) GetPendingRuns(ctx context.Context, limit int) ([]*repository.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Run), args.Error(1)
}

// GetRunByID mocks the GetRunByID method.
func (m *MockRunRepository) GetRunByID(ctx context.Context, id int64) (*repository.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Run), args.Error(1)
}

// GetRunByUUID mocks the GetRunByUUID method.
func (m *MockRunRepository) GetRunByUUID(ctx context.Context, uuid string) (*repository.Run, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Run), args.Error(1)
}

// GetRunByNetworkHash mocks the GetRunByNetworkHash method.
func (m *MockRunRepository) GetRunByNetworkHash(ctx context.Context, hash string) (*repository.Run, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Run), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockRunRepository) UpdateStatus(ctx context.Context, id int64, status repository.RunStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// UpdateStatusWithInfo mocks the UpdateStatusWithInfo method.
func (m *MockRunRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status repository.RunStatus, info string) error {
	args := m.Called(ctx, id, status, info)
	return args.Error(0)
}

// LockRunForProcessing mocks the LockRunForProcessing method.
func (m *MockRunRepository) LockRunForProcessing(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ExpectGetPendingRuns sets up an expectation for GetPendingRuns.
func (m *MockRunRepository) ExpectGetPendingRuns(limit int, runs []*repository.Run, err error) *mock.Call {
	return m.On("GetPendingRuns", mock.Anything, limit).Return(runs, err)
}

// ExpectUpdateStatus sets up an expectation for UpdateStatus.
func (m *MockRunRepository) ExpectUpdateStatus(id int64, status repository.RunStatus, err error) *mock.Call {
	return m.On("UpdateStatus", mock.Anything, id, status).Return(err)
}

// ExpectLockRunForProcessing sets up an expectation for LockRunForProcessing.
func (m *MockRunRepository) ExpectLockRunForProcessing(id int64, success bool, err error) *mock.Call {
	return m.On("LockRunForProcessing", mock.Anything, id).Return(success, err)
}

// MockResultRepository is a mock implementation of repository.ResultRepository.
type MockResultRepository struct {
	mock.Mock
}

// SaveResult mocks the SaveResult method.
func (m *MockResultRepository) SaveResult(ctx context.Context, result *repository.BeliefResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// GetResultByRunUUID mocks the GetResultByRunUUID method.
func (m *MockResultRepository) GetResultByRunUUID(ctx context.Context, runUUID string) (*repository.BeliefResult, error) {
	args := m.Called(ctx, runUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.BeliefResult), args.Error(1)
}

// UpdateResult mocks the UpdateResult method.
func (m *MockResultRepository) UpdateResult(ctx context.Context, result *repository.BeliefResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// ExpectSaveResult sets up an expectation for SaveResult.
func (m *MockResultRepository) ExpectSaveResult(err error) *mock.Call {
	return m.On("SaveResult", mock.Anything, mock.Anything).Return(err)
}

// MockSuggestionRepository is a mock implementation of repository.SuggestionRepository.
type MockSuggestionRepository struct {
	mock.Mock
}

// SaveSuggestions mocks the SaveSuggestions method.
func (m *MockSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []repository.Suggestion) error {
	args := m.Called(ctx, suggestions)
	return args.Error(0)
}

// GetSuggestionsByRunUUID mocks the GetSuggestionsByRunUUID method.
func (m *MockSuggestionRepository) GetSuggestionsByRunUUID(ctx context.Context, runUUID string) ([]repository.Suggestion, error) {
	args := m.Called(ctx, runUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Suggestion), args.Error(1)
}

// ExpectSaveSuggestions sets up an expectation for SaveSuggestions.
func (m *MockSuggestionRepository) ExpectSaveSuggestions(err error) *mock.Call {
	return m.On("SaveSuggestions", mock.Anything, mock.Anything).Return(err)
}
