// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel with the sequence ID and audit timestamps
//   - directory.go: buildings, activities, phones, organizations and their join tables
//   - identity.go: users
package models

// All returns every persistence model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&BuildingModel{},
		&ActivityModel{},
		&PhoneModel{},
		&OrganizationModel{},
		&OrganizationPhoneModel{},
		&OrganizationActivityModel{},
		&UserModel{},
	}
}
