package directory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/infrastructure/storage"
)

func TestExportService_Snapshot(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	r.seed(t)
	store := storage.NewMemoryObjectStorage("directory-exports")

	svc := NewExportService(r.buildings, r.activities, r.organizations, store, "/snapshots/")
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	resp, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, "snapshots/directory-20240301T123000Z.json", resp.Key)
	assert.Equal(t, "directory-exports", resp.Bucket)
	assert.Equal(t, "memory://directory-exports/snapshots/directory-20240301T123000Z.json", resp.DownloadURL)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	obj, ok := store.Get(resp.Key)
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Equal(t, int64(len(obj.Data)), resp.Size)

	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(obj.Data, &snapshot))
	assert.Len(t, snapshot.Buildings, 2)
	assert.Len(t, snapshot.Activities, 8)
	assert.Len(t, snapshot.Organizations, 2)
	assert.Equal(t, 3, len(snapshot.Organizations[0].Phones))
}

func TestExportService_StorageDisabled(t *testing.T) {
	r := newRepos(t)
	svc := NewExportService(r.buildings, r.activities, r.organizations, nil, "")

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestExportService_UploadFailure(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	store := new(MockObjectStorage)
	boom := errors.New("access denied")
	store.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > 0 && key[:10] == "directory-"
	}), mock.Anything, "application/json").Return(boom)

	svc := NewExportService(r.buildings, r.activities, r.organizations, store, "")
	_, err := svc.Snapshot(ctx)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upload snapshot")
	store.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything)
}
