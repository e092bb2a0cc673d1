package directory

import (
	"strings"

	"github.com/orgdir/backend/internal/domain/shared"
)

const maxOrganizationNameLength = 255

// Organization is a company registered at a building, reachable by phone and
// classified by one or more activities.
type Organization struct {
	shared.BaseEntity
	Name       string
	BuildingID int64
	Building   *Building
	Phones     []Phone
	Activities []Activity
}

// OrganizationPatch holds the optional fields of a partial organization update.
// A non-nil list replaces the whole association, an empty one clears it.
type OrganizationPatch struct {
	Name         *string
	BuildingID   *int64
	PhoneNumbers *[]string
	ActivityIDs  *[]int64
}

// NewOrganization creates a validated organization without associations.
func NewOrganization(name string, buildingID int64) (*Organization, error) {
	o := &Organization{
		Name:       strings.TrimSpace(name),
		BuildingID: buildingID,
		Phones:     []Phone{},
		Activities: []Activity{},
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Rename changes the organization name.
func (o *Organization) Rename(name string) error {
	next := *o
	next.Name = strings.TrimSpace(name)
	if err := next.validate(); err != nil {
		return err
	}
	o.Name = next.Name
	o.Touch()
	return nil
}

// MoveTo registers the organization at another building.
func (o *Organization) MoveTo(building *Building) {
	o.BuildingID = building.ID
	o.Building = building
	o.Touch()
}

// SetPhones replaces the phone set.
func (o *Organization) SetPhones(phones []Phone) {
	o.Phones = phones
	o.Touch()
}

// SetActivities replaces the activity set.
func (o *Organization) SetActivities(activities []Activity) {
	o.Activities = activities
	o.Touch()
}

// SearchName returns the case-folded name used for substring search.
func (o *Organization) SearchName() string {
	return SearchKey(o.Name)
}

func (o *Organization) validate() error {
	if o.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot be empty")
	}
	if len([]rune(o.Name)) > maxOrganizationNameLength {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot exceed 255 characters")
	}
	if o.BuildingID <= 0 {
		return shared.NewDomainError("INVALID_BUILDING", "Building ID is required")
	}
	return nil
}

// OrganizationFilter narrows organization listings. Zero-valued fields do not filter.
type OrganizationFilter struct {
	BuildingID   *int64
	ActivityIDs  []int64
	NameContains string
	Location     *LocationQuery
}
