package shared

import "time"

// BaseEntity carries the identity and audit timestamps shared by every
// persisted entity. Identifiers are database-assigned sequences.
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() int64 {
	return e.ID
}

// IsNew reports whether the entity has not been persisted yet.
func (e *BaseEntity) IsNew() bool {
	return e.ID == 0
}

// Touch updates the UpdatedAt timestamp
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
