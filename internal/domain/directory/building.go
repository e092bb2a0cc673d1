package directory

import (
	"strings"

	"github.com/orgdir/backend/internal/domain/shared"
)

const maxAddressLength = 500

// Building is a physical location organizations are registered at.
type Building struct {
	shared.BaseEntity
	Address   string
	Latitude  float64
	Longitude float64
}

// BuildingPatch holds the optional fields of a partial building update.
type BuildingPatch struct {
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// Building errors
var (
	ErrBuildingHasOrganizations = shared.NewDomainError("HAS_ORGANIZATIONS",
		"Невозможно удалить здание: существуют связанные организации.")
)

// NewBuilding creates a validated building.
func NewBuilding(address string, latitude, longitude float64) (*Building, error) {
	b := &Building{
		Address:   strings.TrimSpace(address),
		Latitude:  latitude,
		Longitude: longitude,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Apply merges the set fields of the patch into the building.
func (b *Building) Apply(p BuildingPatch) error {
	next := *b
	if p.Address != nil {
		next.Address = strings.TrimSpace(*p.Address)
	}
	if p.Latitude != nil {
		next.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		next.Longitude = *p.Longitude
	}
	if err := next.validate(); err != nil {
		return err
	}
	*b = next
	b.Touch()
	return nil
}

func (b *Building) validate() error {
	if b.Address == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot be empty")
	}
	if len([]rune(b.Address)) > maxAddressLength {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	return validateCoordinates(b.Latitude, b.Longitude)
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return shared.NewDomainError("INVALID_COORDINATES", "Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return shared.NewDomainError("INVALID_COORDINATES", "Longitude must be between -180 and 180")
	}
	return nil
}
