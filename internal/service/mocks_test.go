package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranscriptRepository mocks the TranscriptRepository interface
type MockTranscriptRepository struct {
	mock.Mock
}

func (m *MockTranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	args := m.Called(ctx, sessionID, data)
	return args.Error(0)
}

func (m *MockTranscriptRepository) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
