package directory

import "github.com/orgdir/backend/internal/domain/shared"

// LocationMode selects how a location query matches buildings.
type LocationMode int

const (
	// LocationRadius matches buildings within Radius of the center point.
	LocationRadius LocationMode = iota + 1
	// LocationBox matches buildings inside the inclusive bounding box.
	LocationBox
)

// ErrLocationBoundsRequired is returned when neither a radius nor a complete
// bounding box is given.
var ErrLocationBoundsRequired = shared.NewDomainError("INVALID_LOCATION_QUERY", "Укажите радиус или ограничение")

// LocationQuery searches buildings around a point. Distances are planar and
// measured in degrees.
type LocationQuery struct {
	Lat    float64
	Lon    float64
	Radius *float64
	MinLat *float64
	MaxLat *float64
	MinLon *float64
	MaxLon *float64
}

// Mode validates the query and reports which matching rule applies. The
// radius wins when both a radius and a box are given.
func (q LocationQuery) Mode() (LocationMode, error) {
	if err := validateCoordinates(q.Lat, q.Lon); err != nil {
		return 0, err
	}
	if q.Radius != nil {
		if *q.Radius < 0 {
			return 0, shared.NewDomainError("INVALID_LOCATION_QUERY", "Radius cannot be negative")
		}
		return LocationRadius, nil
	}
	if q.MinLat != nil && q.MaxLat != nil && q.MinLon != nil && q.MaxLon != nil {
		return LocationBox, nil
	}
	return 0, ErrLocationBoundsRequired
}

// Contains reports whether a point matches the query.
func (q LocationQuery) Contains(lat, lon float64) bool {
	mode, err := q.Mode()
	if err != nil {
		return false
	}
	if mode == LocationRadius {
		r := *q.Radius
		dLat, dLon := lat-q.Lat, lon-q.Lon
		return dLat*dLat+dLon*dLon <= r*r
	}
	return lat >= *q.MinLat && lat <= *q.MaxLat && lon >= *q.MinLon && lon <= *q.MaxLon
}
