package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/cache"
)

func newActivityService(t *testing.T) (*ActivityService, *repos, *cache.InMemoryActivityCache) {
	t.Helper()
	r := newRepos(t)
	r.seed(t)
	c := cache.NewInMemoryActivityCache(time.Minute)
	return NewActivityService(r.activities, c, nil), r, c
}

func findActivity(t *testing.T, r *repos, name string, parentID *int64) *directory.Activity {
	t.Helper()
	a, err := r.activities.FindByNameAndParent(context.Background(), name, parentID)
	require.NoError(t, err)
	return a
}

func TestActivityService_Tree(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newActivityService(t)

	tree, err := svc.Tree(ctx, 3)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Еда", tree[0].Name)
	assert.Len(t, tree[0].Children, 2)
	cars := tree[1]
	assert.Equal(t, "Автомобили", cars.Name)
	require.Len(t, cars.Children, 2)
	assert.Len(t, cars.Children[1].Children, 2)

	_, cached, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cached)

	t.Run("truncates at max level", func(t *testing.T) {
		tree, err := svc.Tree(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, tree[1].Children[1].Children)
	})

	t.Run("non-positive level yields empty forest", func(t *testing.T) {
		tree, err := svc.Tree(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, tree)
		assert.Empty(t, tree)
	})
}

func TestActivityService_Create(t *testing.T) {
	ctx := context.Background()
	svc, r, c := newActivityService(t)
	food := findActivity(t, r, "Еда", nil)

	_, err := svc.Tree(ctx, 3)
	require.NoError(t, err)

	created, err := svc.Create(ctx, CreateActivityRequest{Name: "Выпечка", ParentID: &food.ID, Level: 2})
	require.NoError(t, err)
	assert.Equal(t, "Выпечка", created.Name)
	assert.Equal(t, food.ID, *created.ParentID)
	assert.NotNil(t, created.Children)

	tree, err := svc.Tree(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, tree[0].Children, 3, "cache must be invalidated on write")
	_, cached, _ := c.Get(ctx)
	assert.True(t, cached)

	t.Run("unknown parent", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateActivityRequest{Name: "x", ParentID: ptr(int64(9999))})
		assert.ErrorIs(t, err, directory.ErrInvalidParent)
	})

	t.Run("defaults level to one", func(t *testing.T) {
		root, err := svc.Create(ctx, CreateActivityRequest{Name: "Услуги"})
		require.NoError(t, err)
		assert.Equal(t, 1, root.Level)
		assert.Nil(t, root.ParentID)
	})
}

func TestActivityService_Get(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newActivityService(t)
	cars := findActivity(t, r, "Автомобили", nil)

	node, err := svc.Get(ctx, cars.ID)
	require.NoError(t, err)
	require.Len(t, node.Children, 2)
	assert.Len(t, node.Children[1].Children, 2)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Activity not found", err.Error())
}

func TestActivityService_Update(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newActivityService(t)
	food := findActivity(t, r, "Еда", nil)
	cars := findActivity(t, r, "Автомобили", nil)
	passenger := findActivity(t, r, "Легковые", &cars.ID)

	t.Run("self parent", func(t *testing.T) {
		_, err := svc.Update(ctx, food.ID, UpdateActivityRequest{ParentID: OptionalID{Set: true, Value: &food.ID}})
		require.ErrorIs(t, err, directory.ErrActivitySelfParent)
		assert.Equal(t, "Нельзя сделать элемент своим же родителем.", err.Error())
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := svc.Update(ctx, cars.ID, UpdateActivityRequest{ParentID: OptionalID{Set: true, Value: &passenger.ID}})
		assert.ErrorIs(t, err, directory.ErrActivityCycle)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := svc.Update(ctx, cars.ID, UpdateActivityRequest{ParentID: OptionalID{Set: true, Value: ptr(int64(9999))}})
		assert.ErrorIs(t, err, directory.ErrInvalidParent)
	})

	t.Run("rename keeps parent when field absent", func(t *testing.T) {
		node, err := svc.Update(ctx, passenger.ID, UpdateActivityRequest{Name: ptr("Легковые авто")})
		require.NoError(t, err)
		assert.Equal(t, "Легковые авто", node.Name)
		assert.Equal(t, cars.ID, *node.ParentID)
		assert.Len(t, node.Children, 2)
	})

	t.Run("explicit null detaches", func(t *testing.T) {
		node, err := svc.Update(ctx, passenger.ID, UpdateActivityRequest{ParentID: OptionalID{Set: true}})
		require.NoError(t, err)
		assert.Nil(t, node.ParentID)

		tree, err := svc.Tree(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, tree, 3)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, 9999, UpdateActivityRequest{Name: ptr("x")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestActivityService_DeleteAndDescendants(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newActivityService(t)
	cars := findActivity(t, r, "Автомобили", nil)
	passenger := findActivity(t, r, "Легковые", &cars.ID)

	ids, err := svc.Descendants(ctx, cars.ID, 3)
	require.NoError(t, err)
	assert.Len(t, ids, 5)

	ids, err = svc.Descendants(ctx, cars.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{cars.ID}, ids)

	require.NoError(t, svc.Delete(ctx, passenger.ID))

	tree, err := svc.Tree(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, tree, 4, "children of a deleted activity become roots")

	assert.ErrorIs(t, svc.Delete(ctx, passenger.ID), shared.ErrNotFound)
}

func TestOptionalID_UnmarshalJSON(t *testing.T) {
	var req UpdateActivityRequest
	require.NoError(t, jsonUnmarshal(`{"name":"x"}`, &req))
	assert.False(t, req.ParentID.Set)

	req = UpdateActivityRequest{}
	require.NoError(t, jsonUnmarshal(`{"parent_id":null}`, &req))
	assert.True(t, req.ParentID.Set)
	assert.Nil(t, req.ParentID.Value)

	req = UpdateActivityRequest{}
	require.NoError(t, jsonUnmarshal(`{"parent_id":4}`, &req))
	assert.True(t, req.ParentID.Set)
	assert.Equal(t, int64(4), *req.ParentID.Value)

	assert.Error(t, jsonUnmarshal(`{"parent_id":"a"}`, &req))
}
