package directory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/persistence"
	"github.com/orgdir/backend/internal/infrastructure/persistence/models"
)

func ptr[T any](v T) *T { return &v }

func jsonUnmarshal(s string, v any) error { return json.Unmarshal([]byte(s), v) }

// MockBuildingRepository is a mock implementation of BuildingRepository
type MockBuildingRepository struct {
	mock.Mock
}

func (m *MockBuildingRepository) FindByID(ctx context.Context, id int64) (*directory.Building, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) FindByAddress(ctx context.Context, address string) (*directory.Building, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) FindAll(ctx context.Context, page shared.Page) ([]directory.Building, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]directory.Building), args.Error(1)
}

func (m *MockBuildingRepository) Save(ctx context.Context, building *directory.Building) error {
	args := m.Called(ctx, building)
	return args.Error(0)
}

func (m *MockBuildingRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBuildingRepository) HasOrganizations(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) Bucket() string {
	return m.Called().String(0)
}

// repos holds gorm repositories over an in-memory SQLite database
type repos struct {
	buildings     *persistence.GormBuildingRepository
	activities    *persistence.GormActivityRepository
	phones        *persistence.GormPhoneRepository
	organizations *persistence.GormOrganizationRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	return &repos{
		buildings:     persistence.NewGormBuildingRepository(db),
		activities:    persistence.NewGormActivityRepository(db),
		phones:        persistence.NewGormPhoneRepository(db),
		organizations: persistence.NewGormOrganizationRepository(db),
	}
}

func (r *repos) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, NewSeeder(r.buildings, r.activities, r.phones, r.organizations, nil).Seed(context.Background()))
}
