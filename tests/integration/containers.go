package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/orgdir/backend/internal/infrastructure/config"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

// startContainer starts a generic container and terminates it when the test ends
func startContainer(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start %s container", req.Image)

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})
	return container
}

// NewTestRedis starts a Redis container and returns a connected client
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	})

	addr, err := container.Endpoint(context.Background(), "")
	require.NoError(t, err, "Failed to get redis endpoint")

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err(), "Failed to ping redis")
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// NewTestMinIO starts a MinIO server and returns a storage config pointing at it
func NewTestMinIO(t *testing.T, bucket string) *config.StorageConfig {
	t.Helper()

	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	})

	endpoint, err := container.Endpoint(context.Background(), "http")
	require.NoError(t, err, "Failed to get minio endpoint")

	return &config.StorageConfig{
		Enabled:         true,
		Bucket:          bucket,
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
		UsePathStyle:    true,
		Prefix:          "exports",
	}
}
