package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	directoryapp "github.com/orgdir/backend/internal/application/directory"
	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/persistence"
)

type directoryRepos struct {
	buildings     *persistence.GormBuildingRepository
	activities    *persistence.GormActivityRepository
	phones        *persistence.GormPhoneRepository
	organizations *persistence.GormOrganizationRepository
}

// seededRepos returns repositories over a freshly seeded shared database
func seededRepos(t *testing.T) directoryRepos {
	t.Helper()

	testDB := NewSharedTestDB(t)
	r := directoryRepos{
		buildings:     persistence.NewGormBuildingRepository(testDB.DB),
		activities:    persistence.NewGormActivityRepository(testDB.DB),
		phones:        persistence.NewGormPhoneRepository(testDB.DB),
		organizations: persistence.NewGormOrganizationRepository(testDB.DB),
	}
	seeder := directoryapp.NewSeeder(r.buildings, r.activities, r.phones, r.organizations, nil)
	require.NoError(t, seeder.Seed(context.Background()))
	return r
}

func orgNames(orgs []directory.Organization) []string {
	names := make([]string, len(orgs))
	for i, o := range orgs {
		names[i] = o.Name
	}
	return names
}

func TestSeeder_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	r := seededRepos(t)

	// A second run creates nothing new
	seeder := directoryapp.NewSeeder(r.buildings, r.activities, r.phones, r.organizations, nil)
	require.NoError(t, seeder.Seed(ctx))

	buildings, err := r.buildings.FindAll(ctx, shared.DefaultPage())
	require.NoError(t, err)
	assert.Len(t, buildings, 2)

	activities, err := r.activities.FindAllUnpaged(ctx)
	require.NoError(t, err)
	assert.Len(t, activities, 8)

	count, err := r.organizations.Count(ctx, directory.OrganizationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// "3-333-333" is shared by both organizations and stored once
	horns, err := r.organizations.FindByID(ctx, 1)
	require.NoError(t, err)
	milk, err := r.organizations.FindByID(ctx, 2)
	require.NoError(t, err)
	var shared1, shared2 int64
	for _, p := range horns.Phones {
		if p.Number == "3-333-333" {
			shared1 = p.ID
		}
	}
	for _, p := range milk.Phones {
		if p.Number == "3-333-333" {
			shared2 = p.ID
		}
	}
	assert.NotZero(t, shared1)
	assert.Equal(t, shared1, shared2)
}

func TestActivityRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	r := seededRepos(t)

	t.Run("descendants respect max level", func(t *testing.T) {
		ids, err := r.activities.FindDescendantIDs(ctx, 4, 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{4, 5, 6, 7, 8}, ids)

		ids, err = r.activities.FindDescendantIDs(ctx, 4, 2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{4, 5, 6}, ids)

		ids, err = r.activities.FindDescendantIDs(ctx, 999, 3)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("find by name and parent", func(t *testing.T) {
		parent := int64(6)
		a, err := r.activities.FindByNameAndParent(ctx, "Запчасти", &parent)
		require.NoError(t, err)
		assert.Equal(t, int64(7), a.ID)

		_, err = r.activities.FindByNameAndParent(ctx, "Запчасти", nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find by ids keeps requested order", func(t *testing.T) {
		found, err := r.activities.FindByIDs(ctx, []int64{3, 999, 1})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, int64(3), found[0].ID)
		assert.Equal(t, int64(1), found[1].ID)
	})

	t.Run("delete detaches children", func(t *testing.T) {
		require.NoError(t, r.activities.Delete(ctx, 6))

		child, err := r.activities.FindByID(ctx, 7)
		require.NoError(t, err)
		assert.Nil(t, child.ParentID)

		_, err = r.activities.FindByID(ctx, 6)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrganizationRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	r := seededRepos(t)
	page := shared.DefaultPage()

	buildingID := int64(1)
	radius := 1.0
	minLat, maxLat, minLon, maxLon := 50.0, 60.0, 80.0, 90.0

	tests := []struct {
		name   string
		filter directory.OrganizationFilter
		want   []string
	}{
		{"all", directory.OrganizationFilter{}, []string{"ООО Рога и Копыта", "ООО Молоко"}},
		{"by building", directory.OrganizationFilter{BuildingID: &buildingID}, []string{"ООО Молоко"}},
		{"by activity set", directory.OrganizationFilter{ActivityIDs: []int64{1, 2, 3}}, []string{"ООО Рога и Копыта", "ООО Молоко"}},
		{"empty activity set", directory.OrganizationFilter{ActivityIDs: []int64{}}, []string{}},
		{"search is case insensitive", directory.OrganizationFilter{NameContains: "молоко"}, []string{"ООО Молоко"}},
		{"search upper case", directory.OrganizationFilter{NameContains: "РОГА"}, []string{"ООО Рога и Копыта"}},
		{"search treats wildcards literally", directory.OrganizationFilter{NameContains: "%"}, []string{}},
		{"radius", directory.OrganizationFilter{Location: &directory.LocationQuery{Lat: 55.75, Lon: 37.61, Radius: &radius}}, []string{"ООО Молоко"}},
		{"bounding box", directory.OrganizationFilter{Location: &directory.LocationQuery{MinLat: &minLat, MaxLat: &maxLat, MinLon: &minLon, MaxLon: &maxLon}}, []string{"ООО Рога и Копыта"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orgs, err := r.organizations.FindAll(ctx, tt.filter, page)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, orgNames(orgs))

			count, err := r.organizations.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), count)
		})
	}

	t.Run("location without bounds is rejected", func(t *testing.T) {
		_, err := r.organizations.FindAll(ctx, directory.OrganizationFilter{
			Location: &directory.LocationQuery{Lat: 55, Lon: 37},
		}, page)
		assert.ErrorIs(t, err, directory.ErrLocationBoundsRequired)
	})

	t.Run("paging", func(t *testing.T) {
		orgs, err := r.organizations.FindAll(ctx, directory.OrganizationFilter{}, shared.Page{Offset: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, orgs, 1)
		assert.Equal(t, "ООО Молоко", orgs[0].Name)
	})

	t.Run("building with organizations", func(t *testing.T) {
		has, err := r.buildings.HasOrganizations(ctx, 2)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("save replaces associations", func(t *testing.T) {
		org, err := r.organizations.FindByID(ctx, 2)
		require.NoError(t, err)

		phone, err := r.phones.GetOrCreate(ctx, "8-800-555-35-35")
		require.NoError(t, err)
		activity, err := r.activities.FindByID(ctx, 1)
		require.NoError(t, err)

		org.Phones = []directory.Phone{*phone}
		org.Activities = []directory.Activity{*activity}
		require.NoError(t, r.organizations.Save(ctx, org))

		reloaded, err := r.organizations.FindByID(ctx, 2)
		require.NoError(t, err)
		require.Len(t, reloaded.Phones, 1)
		assert.Equal(t, "8-800-555-35-35", reloaded.Phones[0].Number)
		require.Len(t, reloaded.Activities, 1)
		assert.Equal(t, "Еда", reloaded.Activities[0].Name)
		require.NotNil(t, reloaded.Building)
		assert.Equal(t, int64(1), reloaded.Building.ID)
	})

	t.Run("deleting a building cascades", func(t *testing.T) {
		require.NoError(t, r.buildings.Delete(ctx, 2))

		_, err := r.organizations.FindByID(ctx, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
