package directory

import (
	"strings"

	"github.com/orgdir/backend/internal/domain/shared"
)

// MaxActivityDepth is the nesting depth used by activity trees and
// descendant lookups when the caller does not choose one.
const MaxActivityDepth = 3

const maxActivityNameLength = 200

// Activity is a node of the business activity catalogue. Roots have no
// parent; Level records the depth the node is meant to sit at.
type Activity struct {
	shared.BaseEntity
	Name     string
	ParentID *int64
	Level    int
	Children []*Activity
}

// ActivityPatch holds the optional fields of a partial activity update.
// ClearParent detaches the activity and takes precedence over ParentID.
type ActivityPatch struct {
	Name        *string
	ParentID    *int64
	ClearParent bool
	Level       *int
}

// Activity errors
var (
	ErrActivitySelfParent = shared.NewDomainError("SELF_REFERENCE",
		"Нельзя сделать элемент своим же родителем.")
	ErrActivityCycle = shared.NewDomainError("CIRCULAR_REFERENCE",
		"Cannot move an activity under one of its descendants")
	ErrInvalidParent = shared.NewDomainError("INVALID_PARENT", "Parent activity not found")
)

// NewActivity creates a validated activity. A zero level defaults to 1.
func NewActivity(name string, parentID *int64, level int) (*Activity, error) {
	if level == 0 {
		level = 1
	}
	a := &Activity{
		Name:     strings.TrimSpace(name),
		ParentID: parentID,
		Level:    level,
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Apply merges the set fields of the patch into the activity. An activity
// can never become its own parent.
func (a *Activity) Apply(p ActivityPatch) error {
	if !p.ClearParent && p.ParentID != nil && !a.IsNew() && *p.ParentID == a.ID {
		return ErrActivitySelfParent
	}

	next := *a
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	switch {
	case p.ClearParent:
		next.ParentID = nil
	case p.ParentID != nil:
		parentID := *p.ParentID
		next.ParentID = &parentID
	}
	if p.Level != nil {
		next.Level = *p.Level
	}
	if err := next.validate(); err != nil {
		return err
	}
	*a = next
	a.Touch()
	return nil
}

// IsRoot reports whether the activity has no parent.
func (a *Activity) IsRoot() bool {
	return a.ParentID == nil
}

// ParentKey returns the parent ID, or 0 for roots.
func (a *Activity) ParentKey() int64 {
	if a.ParentID == nil {
		return 0
	}
	return *a.ParentID
}

func (a *Activity) validate() error {
	if a.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Activity name cannot be empty")
	}
	if len([]rune(a.Name)) > maxActivityNameLength {
		return shared.NewDomainError("INVALID_NAME", "Activity name cannot exceed 200 characters")
	}
	if a.Level < 1 {
		return shared.NewDomainError("INVALID_LEVEL", "Activity level must be at least 1")
	}
	if a.ParentID != nil && *a.ParentID <= 0 {
		return ErrInvalidParent
	}
	return nil
}
