package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
)

func ptr[T any](v T) *T { return &v }

type directoryFixture struct {
	buildings     *GormBuildingRepository
	activities    *GormActivityRepository
	phones        *GormPhoneRepository
	organizations *GormOrganizationRepository
}

func newDirectoryFixture(t *testing.T) (*directoryFixture, *gorm.DB) {
	db := newTestDB(t)
	return &directoryFixture{
		buildings:     NewGormBuildingRepository(db),
		activities:    NewGormActivityRepository(db),
		phones:        NewGormPhoneRepository(db),
		organizations: NewGormOrganizationRepository(db),
	}, db
}

func (f *directoryFixture) building(t *testing.T, address string, lat, lon float64) *directory.Building {
	t.Helper()
	b, err := directory.NewBuilding(address, lat, lon)
	require.NoError(t, err)
	require.NoError(t, f.buildings.Save(context.Background(), b))
	return b
}

func (f *directoryFixture) activity(t *testing.T, name string, parent *directory.Activity) *directory.Activity {
	t.Helper()
	var parentID *int64
	level := 1
	if parent != nil {
		parentID = ptr(parent.ID)
		level = parent.Level + 1
	}
	a, err := directory.NewActivity(name, parentID, level)
	require.NoError(t, err)
	require.NoError(t, f.activities.Save(context.Background(), a))
	return a
}

func (f *directoryFixture) organization(t *testing.T, name string, b *directory.Building, phones []string, activities ...*directory.Activity) *directory.Organization {
	t.Helper()
	ctx := context.Background()
	o, err := directory.NewOrganization(name, b.ID)
	require.NoError(t, err)

	ps := make([]directory.Phone, 0, len(phones))
	for _, n := range phones {
		p, err := f.phones.GetOrCreate(ctx, n)
		require.NoError(t, err)
		ps = append(ps, *p)
	}
	as := make([]directory.Activity, 0, len(activities))
	for _, a := range activities {
		as = append(as, *a)
	}
	o.SetPhones(ps)
	o.SetActivities(as)
	require.NoError(t, f.organizations.Save(ctx, o))
	return o
}

func TestGormBuildingRepository(t *testing.T) {
	ctx := context.Background()
	f, _ := newDirectoryFixture(t)

	b := f.building(t, "г. Москва, ул. Ленина 1, офис 3", 55.7558, 37.6173)
	require.NotZero(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	t.Run("find by id", func(t *testing.T) {
		got, err := f.buildings.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.Address, got.Address)
		assert.InDelta(t, 55.7558, got.Latitude, 1e-9)
	})

	t.Run("find by id not found", func(t *testing.T) {
		_, err := f.buildings.FindByID(ctx, 999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find by address", func(t *testing.T) {
		got, err := f.buildings.FindByAddress(ctx, b.Address)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, b.Apply(directory.BuildingPatch{Address: ptr("Блюхера, 32/1")}))
		require.NoError(t, f.buildings.Save(ctx, b))

		got, err := f.buildings.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Блюхера, 32/1", got.Address)
	})

	t.Run("pagination", func(t *testing.T) {
		f.building(t, "second", 1, 1)
		f.building(t, "third", 2, 2)

		all, err := f.buildings.FindAll(ctx, shared.DefaultPage())
		require.NoError(t, err)
		assert.Len(t, all, 3)

		page, err := f.buildings.FindAll(ctx, shared.NewPage(1, 1))
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "second", page[0].Address)
	})

	t.Run("has organizations and delete", func(t *testing.T) {
		empty := f.building(t, "empty", 0, 0)
		has, err := f.buildings.HasOrganizations(ctx, empty.ID)
		require.NoError(t, err)
		assert.False(t, has)

		f.organization(t, "Рога и Копыта", b, nil)
		has, err = f.buildings.HasOrganizations(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, f.buildings.Delete(ctx, empty.ID))
		assert.ErrorIs(t, f.buildings.Delete(ctx, empty.ID), shared.ErrNotFound)
	})
}

func TestGormActivityRepository(t *testing.T) {
	ctx := context.Background()
	f, db := newDirectoryFixture(t)

	food := f.activity(t, "Еда", nil)
	meat := f.activity(t, "Мясная продукция", food)
	milk := f.activity(t, "Молочная продукция", food)
	cars := f.activity(t, "Автомобили", nil)
	trucks := f.activity(t, "Грузовые", cars)
	parts := f.activity(t, "Запчасти", trucks)

	t.Run("find by ids keeps requested order and skips unknown", func(t *testing.T) {
		got, err := f.activities.FindByIDs(ctx, []int64{milk.ID, 999, food.ID, milk.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, milk.ID, got[0].ID)
		assert.Equal(t, food.ID, got[1].ID)
	})

	t.Run("find by name and parent", func(t *testing.T) {
		got, err := f.activities.FindByNameAndParent(ctx, "Еда", nil)
		require.NoError(t, err)
		assert.Equal(t, food.ID, got.ID)

		got, err = f.activities.FindByNameAndParent(ctx, "Молочная продукция", &food.ID)
		require.NoError(t, err)
		assert.Equal(t, milk.ID, got.ID)

		_, err = f.activities.FindByNameAndParent(ctx, "Молочная продукция", nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("descendant ids respect depth", func(t *testing.T) {
		ids, err := f.activities.FindDescendantIDs(ctx, cars.ID, 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{cars.ID, trucks.ID, parts.ID}, ids)

		ids, err = f.activities.FindDescendantIDs(ctx, cars.ID, 2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{cars.ID, trucks.ID}, ids)

		ids, err = f.activities.FindDescendantIDs(ctx, 999, 3)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("unpaged list matches tree builder", func(t *testing.T) {
		all, err := f.activities.FindAllUnpaged(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 6)
		tree := directory.BuildTree(all, directory.MaxActivityDepth)
		require.Len(t, tree, 2)
		assert.Len(t, tree[0].Children, 2)
	})

	t.Run("self reference is rejected by the database", func(t *testing.T) {
		err := db.Exec("UPDATE activities SET parent_id = id WHERE id = ?", meat.ID).Error
		assert.Error(t, err)
	})

	t.Run("delete detaches children and unlinks organizations", func(t *testing.T) {
		b := f.building(t, "Склад", 10, 10)
		o := f.organization(t, "Грузовик-Сервис", b, nil, trucks, cars)

		require.NoError(t, f.activities.Delete(ctx, trucks.ID))

		child, err := f.activities.FindByID(ctx, parts.ID)
		require.NoError(t, err)
		assert.Nil(t, child.ParentID)

		got, err := f.organizations.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Activities, 1)
		assert.Equal(t, cars.ID, got.Activities[0].ID)

		assert.ErrorIs(t, f.activities.Delete(ctx, trucks.ID), shared.ErrNotFound)
	})
}

func TestGormPhoneRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	f, _ := newDirectoryFixture(t)

	first, err := f.phones.GetOrCreate(ctx, " 8-923-666-13-13 ")
	require.NoError(t, err)
	assert.Equal(t, "8-923-666-13-13", first.Number)

	again, err := f.phones.GetOrCreate(ctx, "8-923-666-13-13")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.phones.GetOrCreate(ctx, "3-333-333")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = f.phones.GetOrCreate(ctx, "   ")
	assert.Error(t, err)
}

func TestGormOrganizationRepository(t *testing.T) {
	ctx := context.Background()
	f, _ := newDirectoryFixture(t)

	center := f.building(t, "Центр", 55.75, 37.61)
	near := f.building(t, "Рядом", 55.76, 37.62)
	far := f.building(t, "Далеко", 59.93, 30.31)

	food := f.activity(t, "Еда", nil)
	meat := f.activity(t, "Мясная продукция", food)
	cars := f.activity(t, "Автомобили", nil)

	horns := f.organization(t, `ООО "Рога и Копыта"`, center, []string{"2-222-222", "3-333-333"}, meat)
	milkCo := f.organization(t, "Молочный двор", near, []string{"2-222-222"}, food)
	autoCo := f.organization(t, "АвтоМир", far, nil, cars)

	t.Run("save loads associations", func(t *testing.T) {
		require.NotNil(t, horns.Building)
		assert.Equal(t, "Центр", horns.Building.Address)
		require.Len(t, horns.Phones, 2)
		assert.Equal(t, "2-222-222", horns.Phones[0].Number)
		require.Len(t, horns.Activities, 1)
		assert.Equal(t, meat.ID, horns.Activities[0].ID)
	})

	t.Run("phones are shared between organizations", func(t *testing.T) {
		assert.Equal(t, horns.Phones[0].ID, milkCo.Phones[0].ID)
	})

	t.Run("filter by building", func(t *testing.T) {
		got, err := f.organizations.FindAll(ctx, directory.OrganizationFilter{BuildingID: &near.ID}, shared.DefaultPage())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, milkCo.ID, got[0].ID)
	})

	t.Run("filter by activity ids", func(t *testing.T) {
		got, err := f.organizations.FindAll(ctx, directory.OrganizationFilter{ActivityIDs: []int64{food.ID, meat.ID}}, shared.DefaultPage())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, horns.ID, got[0].ID)
		assert.Equal(t, milkCo.ID, got[1].ID)

		none, err := f.organizations.FindAll(ctx, directory.OrganizationFilter{ActivityIDs: []int64{}}, shared.DefaultPage())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("name search is case insensitive and literal", func(t *testing.T) {
		got, err := f.organizations.FindAll(ctx, directory.OrganizationFilter{NameContains: "рога"}, shared.DefaultPage())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, horns.ID, got[0].ID)

		got, err = f.organizations.FindAll(ctx, directory.OrganizationFilter{NameContains: "%"}, shared.DefaultPage())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("location radius", func(t *testing.T) {
		filter := directory.OrganizationFilter{Location: &directory.LocationQuery{Lat: 55.75, Lon: 37.61, Radius: ptr(0.05)}}
		got, err := f.organizations.FindAll(ctx, filter, shared.DefaultPage())
		require.NoError(t, err)
		assert.Len(t, got, 2)

		count, err := f.organizations.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("location bounding box is inclusive", func(t *testing.T) {
		filter := directory.OrganizationFilter{Location: &directory.LocationQuery{
			Lat: 55.75, Lon: 37.61,
			MinLat: ptr(59.93), MaxLat: ptr(60.0), MinLon: ptr(30.0), MaxLon: ptr(30.31),
		}}
		got, err := f.organizations.FindAll(ctx, filter, shared.DefaultPage())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, autoCo.ID, got[0].ID)
	})

	t.Run("location without bounds is rejected", func(t *testing.T) {
		_, err := f.organizations.FindAll(ctx, directory.OrganizationFilter{Location: &directory.LocationQuery{Lat: 1, Lon: 1}}, shared.DefaultPage())
		assert.ErrorIs(t, err, directory.ErrLocationBoundsRequired)
	})

	t.Run("update replaces associations", func(t *testing.T) {
		o, err := f.organizations.FindByID(ctx, autoCo.ID)
		require.NoError(t, err)
		require.NoError(t, o.Rename("АвтоМир Плюс"))
		o.MoveTo(center)
		o.SetActivities([]directory.Activity{*food})
		o.SetPhones([]directory.Phone{})
		require.NoError(t, f.organizations.Save(ctx, o))

		got, err := f.organizations.FindByNameAndBuilding(ctx, "АвтоМир Плюс", center.ID)
		require.NoError(t, err)
		assert.Equal(t, autoCo.ID, got.ID)
		require.Len(t, got.Activities, 1)
		assert.Equal(t, food.ID, got.Activities[0].ID)
		assert.Empty(t, got.Phones)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.organizations.Delete(ctx, milkCo.ID))
		_, err := f.organizations.FindByID(ctx, milkCo.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, f.organizations.Delete(ctx, milkCo.ID), shared.ErrNotFound)
	})
}
