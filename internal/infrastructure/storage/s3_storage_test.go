package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/orgdir/backend/internal/infrastructure/config"
)

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Bucket:          "directory-snapshots",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half of the static credentials returns error", func(t *testing.T) {
		cfg := testConfig("")
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set together")
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, testConfig("localhost:9000"), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "directory-snapshots", s.Bucket())
		assert.Equal(t, DefaultPresignExpiration, s.presignExpiration)
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(context.Background(), testConfig("http://localhost:9000"), WithPresignExpiration(time.Hour))
	require.NoError(t, err)

	url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "snapshots/directory.json", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/directory-snapshots/snapshots/directory.json?"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=3600")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	_, _, err = s.GenerateDownloadURL(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestS3ObjectStorage_Upload(t *testing.T) {
	var (
		mu          sync.Mutex
		method      string
		path        string
		contentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s, err := NewS3ObjectStorage(context.Background(), testConfig(server.URL))
	require.NoError(t, err)

	err = s.Upload(context.Background(), "snapshots/directory.json", []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/directory-snapshots/snapshots/directory.json", path)
	assert.Equal(t, "application/json", contentType)

	assert.ErrorIs(t, s.Upload(context.Background(), "", nil, ""), ErrEmptyKey)
}

func TestMemoryObjectStorage(t *testing.T) {
	m := NewMemoryObjectStorage("local")
	ctx := context.Background()

	data := []byte("payload")
	require.NoError(t, m.Upload(ctx, "a.json", data, "application/json"))
	data[0] = 'X'

	obj, ok := m.Get("a.json")
	require.True(t, ok)
	assert.Equal(t, "payload", string(obj.Data))
	assert.Equal(t, "application/json", obj.ContentType)

	url, _, err := m.GenerateDownloadURL(ctx, "a.json", 0)
	require.NoError(t, err)
	assert.Equal(t, "memory://local/a.json", url)

	assert.ErrorIs(t, m.Upload(ctx, "", nil, ""), ErrEmptyKey)
}
