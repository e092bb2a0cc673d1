package directory

import (
	"context"

	"github.com/orgdir/backend/internal/domain/shared"
)

// BuildingRepository defines persistence for buildings
type BuildingRepository interface {
	// FindByID finds a building by ID
	FindByID(ctx context.Context, id int64) (*Building, error)

	// FindByAddress finds a building by its exact address
	FindByAddress(ctx context.Context, address string) (*Building, error)

	// FindAll lists buildings ordered by ID
	FindAll(ctx context.Context, page shared.Page) ([]Building, error)

	// Save creates or updates a building
	Save(ctx context.Context, building *Building) error

	// Delete removes a building by ID
	Delete(ctx context.Context, id int64) error

	// HasOrganizations reports whether any organization references the building
	HasOrganizations(ctx context.Context, id int64) (bool, error)
}

// ActivityRepository defines persistence for the activity catalogue
type ActivityRepository interface {
	// FindByID finds an activity by ID without children
	FindByID(ctx context.Context, id int64) (*Activity, error)

	// FindByIDs returns the activities that exist among ids, in the order of ids
	FindByIDs(ctx context.Context, ids []int64) ([]Activity, error)

	// FindByNameAndParent finds an activity by name under the given parent (nil for roots)
	FindByNameAndParent(ctx context.Context, name string, parentID *int64) (*Activity, error)

	// FindAll lists activities ordered by ID
	FindAll(ctx context.Context, page shared.Page) ([]Activity, error)

	// FindAllUnpaged loads the whole catalogue for tree building
	FindAllUnpaged(ctx context.Context) ([]Activity, error)

	// FindDescendantIDs returns the activity ID and its descendants down to maxLevel levels
	FindDescendantIDs(ctx context.Context, id int64, maxLevel int) ([]int64, error)

	// Save creates or updates an activity
	Save(ctx context.Context, activity *Activity) error

	// Delete removes an activity by ID
	Delete(ctx context.Context, id int64) error
}

// PhoneRepository defines persistence for phone numbers
type PhoneRepository interface {
	// GetOrCreate returns the phone with the given number, creating it if missing
	GetOrCreate(ctx context.Context, number string) (*Phone, error)
}

// OrganizationRepository defines persistence for organizations. Returned
// organizations always carry their building, phones and activities.
type OrganizationRepository interface {
	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id int64) (*Organization, error)

	// FindByNameAndBuilding finds an organization by name at a building
	FindByNameAndBuilding(ctx context.Context, name string, buildingID int64) (*Organization, error)

	// FindAll lists organizations matching the filter ordered by ID
	FindAll(ctx context.Context, filter OrganizationFilter, page shared.Page) ([]Organization, error)

	// Count returns the number of organizations matching the filter
	Count(ctx context.Context, filter OrganizationFilter) (int64, error)

	// Save creates or updates an organization with its phone and activity sets
	Save(ctx context.Context, organization *Organization) error

	// Delete removes an organization by ID
	Delete(ctx context.Context, id int64) error
}
