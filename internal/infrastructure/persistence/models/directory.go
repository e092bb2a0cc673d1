package models

import (
	"github.com/orgdir/backend/internal/domain/directory"
)

// BuildingModel is the persistence model for the Building domain entity.
type BuildingModel struct {
	BaseModel
	Address   string  `gorm:"type:varchar(500);not null;index"`
	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building entity.
func (m *BuildingModel) ToDomain() *directory.Building {
	return &directory.Building{
		BaseEntity: m.BaseModel.ToDomain(),
		Address:    m.Address,
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
	}
}

// FromDomain populates the persistence model from a domain Building entity.
func (m *BuildingModel) FromDomain(b *directory.Building) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.Address = b.Address
	m.Latitude = b.Latitude
	m.Longitude = b.Longitude
}

// BuildingModelFromDomain creates a new persistence model from a domain Building entity.
func BuildingModelFromDomain(b *directory.Building) *BuildingModel {
	m := &BuildingModel{}
	m.FromDomain(b)
	return m
}

// ActivityModel is the persistence model for the Activity domain entity.
type ActivityModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null"`
	ParentID *int64 `gorm:"index;check:check_self_reference,parent_id IS NULL OR parent_id <> id"`
	Level    int    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity entity.
func (m *ActivityModel) ToDomain() *directory.Activity {
	a := &directory.Activity{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Level:      m.Level,
	}
	if m.ParentID != nil {
		parentID := *m.ParentID
		a.ParentID = &parentID
	}
	return a
}

// FromDomain populates the persistence model from a domain Activity entity.
func (m *ActivityModel) FromDomain(a *directory.Activity) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Name = a.Name
	m.ParentID = a.ParentID
	m.Level = a.Level
}

// ActivityModelFromDomain creates a new persistence model from a domain Activity entity.
func ActivityModelFromDomain(a *directory.Activity) *ActivityModel {
	m := &ActivityModel{}
	m.FromDomain(a)
	return m
}

// PhoneModel is the persistence model for phone numbers.
type PhoneModel struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Number string `gorm:"type:varchar(50);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (PhoneModel) TableName() string {
	return "phones"
}

// ToDomain converts the persistence model to a domain Phone.
func (m *PhoneModel) ToDomain() directory.Phone {
	return directory.Phone{ID: m.ID, Number: m.Number}
}

// OrganizationModel is the persistence model for the Organization domain entity.
// SearchName holds the case-folded name used by substring search.
type OrganizationModel struct {
	BaseModel
	Name       string          `gorm:"type:varchar(255);not null;index"`
	SearchName string          `gorm:"type:varchar(255);not null;index"`
	BuildingID int64           `gorm:"not null;index"`
	Building   *BuildingModel  `gorm:"foreignKey:BuildingID;constraint:OnDelete:CASCADE"`
	Phones     []PhoneModel    `gorm:"many2many:organization_phones;joinForeignKey:OrganizationID;joinReferences:PhoneID"`
	Activities []ActivityModel `gorm:"many2many:organization_activities;joinForeignKey:OrganizationID;joinReferences:ActivityID"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model, with whatever associations were
// preloaded, to a domain Organization entity.
func (m *OrganizationModel) ToDomain() *directory.Organization {
	o := &directory.Organization{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		BuildingID: m.BuildingID,
		Phones:     make([]directory.Phone, 0, len(m.Phones)),
		Activities: make([]directory.Activity, 0, len(m.Activities)),
	}
	if m.Building != nil {
		o.Building = m.Building.ToDomain()
	}
	for i := range m.Phones {
		o.Phones = append(o.Phones, m.Phones[i].ToDomain())
	}
	for i := range m.Activities {
		o.Activities = append(o.Activities, *m.Activities[i].ToDomain())
	}
	return o
}

// FromDomain populates the scalar columns from a domain Organization entity.
// Associations are written separately through the join tables.
func (m *OrganizationModel) FromDomain(o *directory.Organization) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.Name = o.Name
	m.SearchName = o.SearchName()
	m.BuildingID = o.BuildingID
}

// OrganizationModelFromDomain creates a new persistence model from a domain Organization entity.
func OrganizationModelFromDomain(o *directory.Organization) *OrganizationModel {
	m := &OrganizationModel{}
	m.FromDomain(o)
	return m
}

// OrganizationPhoneModel is a row of the organization_phones join table.
type OrganizationPhoneModel struct {
	OrganizationID int64 `gorm:"primaryKey;autoIncrement:false"`
	PhoneID        int64 `gorm:"primaryKey;autoIncrement:false"`
}

// TableName returns the table name for GORM
func (OrganizationPhoneModel) TableName() string {
	return "organization_phones"
}

// OrganizationActivityModel is a row of the organization_activities join table.
type OrganizationActivityModel struct {
	OrganizationID int64 `gorm:"primaryKey;autoIncrement:false"`
	ActivityID     int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for GORM
func (OrganizationActivityModel) TableName() string {
	return "organization_activities"
}

// PhoneLinks builds the organization_phones rows for an organization.
func PhoneLinks(organizationID int64, phones []directory.Phone) []OrganizationPhoneModel {
	links := make([]OrganizationPhoneModel, 0, len(phones))
	for _, p := range phones {
		links = append(links, OrganizationPhoneModel{OrganizationID: organizationID, PhoneID: p.ID})
	}
	return links
}

// ActivityLinks builds the organization_activities rows for an organization.
func ActivityLinks(organizationID int64, activities []directory.Activity) []OrganizationActivityModel {
	links := make([]OrganizationActivityModel, 0, len(activities))
	for _, a := range activities {
		links = append(links, OrganizationActivityModel{OrganizationID: organizationID, ActivityID: a.ID})
	}
	return links
}
