package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrganization(t *testing.T) {
	o, err := NewOrganization(" ООО Молоко ", 1)
	require.NoError(t, err)
	assert.Equal(t, "ООО Молоко", o.Name)
	assert.Equal(t, "ооо молоко", o.SearchName())
	assert.NotNil(t, o.Phones)
	assert.NotNil(t, o.Activities)

	_, err = NewOrganization("", 1)
	require.Error(t, err)

	_, err = NewOrganization("name", 0)
	require.Error(t, err)
}

func TestOrganization_MoveToAndRename(t *testing.T) {
	o, err := NewOrganization("ООО Молоко", 1)
	require.NoError(t, err)

	b := &Building{Address: "addr"}
	b.ID = 2
	o.MoveTo(b)
	assert.Equal(t, int64(2), o.BuildingID)
	assert.Same(t, b, o.Building)

	require.Error(t, o.Rename("  "))
	assert.Equal(t, "ООО Молоко", o.Name)
	require.NoError(t, o.Rename("ООО Сыр"))
	assert.Equal(t, "ООО Сыр", o.Name)
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "рога", SearchKey("  РОГА "))
	assert.Equal(t, SearchKey("ООО Рога и Копыта"), SearchKey("ооо рога и копыта"))
}

func TestLocationQuery(t *testing.T) {
	moscow := struct{ lat, lon float64 }{55.7558, 37.6176}
	novosibirsk := struct{ lat, lon float64 }{55.0415, 82.9346}

	t.Run("radius", func(t *testing.T) {
		q := LocationQuery{Lat: 55.75, Lon: 37.61, Radius: ptr(0.1)}
		mode, err := q.Mode()
		require.NoError(t, err)
		assert.Equal(t, LocationRadius, mode)
		assert.True(t, q.Contains(moscow.lat, moscow.lon))
		assert.False(t, q.Contains(novosibirsk.lat, novosibirsk.lon))
	})

	t.Run("radius boundary is inclusive", func(t *testing.T) {
		q := LocationQuery{Lat: 0, Lon: 0, Radius: ptr(5.0)}
		assert.True(t, q.Contains(3, 4))
	})

	t.Run("bounding box", func(t *testing.T) {
		q := LocationQuery{Lat: 55, Lon: 60, MinLat: ptr(50.0), MaxLat: ptr(60.0), MinLon: ptr(80.0), MaxLon: ptr(90.0)}
		mode, err := q.Mode()
		require.NoError(t, err)
		assert.Equal(t, LocationBox, mode)
		assert.True(t, q.Contains(novosibirsk.lat, novosibirsk.lon))
		assert.False(t, q.Contains(moscow.lat, moscow.lon))
	})

	t.Run("radius takes precedence over box", func(t *testing.T) {
		q := LocationQuery{Lat: 55.75, Lon: 37.61, Radius: ptr(1.0), MinLat: ptr(0.0), MaxLat: ptr(1.0), MinLon: ptr(0.0), MaxLon: ptr(1.0)}
		mode, err := q.Mode()
		require.NoError(t, err)
		assert.Equal(t, LocationRadius, mode)
	})

	t.Run("incomplete box without radius", func(t *testing.T) {
		q := LocationQuery{Lat: 55, Lon: 37, MinLat: ptr(50.0), MaxLat: ptr(60.0)}
		_, err := q.Mode()
		assert.ErrorIs(t, err, ErrLocationBoundsRequired)
		assert.False(t, q.Contains(55, 37))
	})

	t.Run("negative radius", func(t *testing.T) {
		_, err := LocationQuery{Lat: 1, Lon: 1, Radius: ptr(-1.0)}.Mode()
		require.Error(t, err)
	})
}
