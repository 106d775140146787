package links

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSnapshotStorage is a mock implementation of SnapshotStorage
type MockSnapshotStorage struct {
	mock.Mock
}

func (m *MockSnapshotStorage) PutSnapshot(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func TestBackupService_Export_Success(t *testing.T) {
	mockRepo := new(MockLinkRepository)
	mockStorage := new(MockSnapshotStorage)
	service := NewBackupService(mockRepo, mockStorage, nil)

	ctx := context.Background()
	link1, err := links.NewLink("link1", "https://example.com/1", "First", "")
	require.NoError(t, err)
	link2, err := links.NewLink("link2", "https://example.com/2", "Second", "")
	require.NoError(t, err)

	mockRepo.On("FindAll", ctx).Return([]*links.Link{link1, link2}, nil)

	var stored []byte
	mockStorage.On("PutSnapshot", ctx, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "linkdeck-") && strings.HasSuffix(name, ".json")
	}), mock.AnythingOfType("[]uint8")).Run(func(args mock.Arguments) {
		stored = args.Get(2).([]byte)
	}).Return("s3://backups/linkdeck.json", nil)

	result, err := service.Export(ctx)

	require.NoError(t, err)
	assert.Equal(t, "s3://backups/linkdeck.json", result.Location)
	assert.Equal(t, 2, result.Count)
	assert.False(t, result.TakenAt.IsZero())

	var snap snapshot
	require.NoError(t, json.Unmarshal(stored, &snap))
	assert.Equal(t, 2, snap.Count)
	require.Len(t, snap.Links, 2)
	assert.Equal(t, "link1", snap.Links[0].Key)

	mockRepo.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}

func TestBackupService_Export_RepositoryError(t *testing.T) {
	mockRepo := new(MockLinkRepository)
	mockStorage := new(MockSnapshotStorage)
	service := NewBackupService(mockRepo, mockStorage, nil)

	ctx := context.Background()
	mockRepo.On("FindAll", ctx).Return(nil, errors.New("store unavailable"))

	result, err := service.Export(ctx)

	assert.Nil(t, result)
	assert.Error(t, err)
	mockStorage.AssertNotCalled(t, "PutSnapshot", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackupService_Export_StorageError(t *testing.T) {
	mockRepo := new(MockLinkRepository)
	mockStorage := new(MockSnapshotStorage)
	service := NewBackupService(mockRepo, mockStorage, nil)

	ctx := context.Background()
	mockRepo.On("FindAll", ctx).Return([]*links.Link{}, nil)
	mockStorage.On("PutSnapshot", ctx, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unreachable"))

	result, err := service.Export(ctx)

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store snapshot")
}
