package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/infrastructure/auth"
)

func catalogue() []directory.Activity {
	food := directory.Activity{Name: "Еда", Level: 1}
	food.ID = 1
	parentID := int64(1)
	meat := directory.Activity{Name: "Мясная продукция", ParentID: &parentID, Level: 2}
	meat.ID = 2
	return []directory.Activity{food, meat}
}

func TestInMemoryActivityCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryActivityCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, catalogue()))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "Мясная продукция", got[1].Name)

	t.Run("returned slices are copies", func(t *testing.T) {
		*got[1].ParentID = 99
		got[0].Name = "changed"

		again, _, _ := c.Get(ctx)
		assert.Equal(t, int64(1), *again[1].ParentID)
		assert.Equal(t, "Еда", again[0].Name)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, ok, err := c.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, catalogue()))
		require.NoError(t, c.Invalidate(ctx))
		_, ok, _ := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("empty catalogue is a hit", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, []directory.Activity{}))
		got, ok, _ := c.Get(ctx)
		assert.True(t, ok)
		assert.Empty(t, got)
	})
}

func TestCatalogueCodec(t *testing.T) {
	data, err := encodeCatalogue(catalogue())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parent_id":1`)

	got, err := decodeCatalogue(data)
	require.NoError(t, err)
	assert.Equal(t, catalogue()[0].ID, got[0].ID)
	assert.Nil(t, got[0].ParentID)
	require.NotNil(t, got[1].ParentID)
	assert.Equal(t, int64(1), *got[1].ParentID)

	_, err = decodeCatalogue([]byte("not json"))
	assert.Error(t, err)
}

func TestFactory_InMemoryFallback(t *testing.T) {
	f := NewFactory()
	assert.Nil(t, f.Client())
	assert.IsType(t, &InMemoryActivityCache{}, f.ActivityCache(0))
	assert.IsType(t, &auth.InMemoryTokenBlacklist{}, f.TokenBlacklist())
	assert.NoError(t, f.Close())
}
