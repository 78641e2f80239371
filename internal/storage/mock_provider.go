package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

// MockRecordStore is a mock implementation of crawler.RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

// InsertIfAbsent is the mock implementation of the InsertIfAbsent method.
func (m *MockRecordStore) InsertIfAbsent(ctx context.Context, ruling crawler.Ruling) (crawler.StoreResult, error) {
	args := m.Called(ctx, ruling)
	return args.Get(0).(crawler.StoreResult), args.Error(1) //nolint:wrapcheck
}

// Close is the mock implementation of the Close method.
func (m *MockRecordStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0) //nolint:wrapcheck
}
