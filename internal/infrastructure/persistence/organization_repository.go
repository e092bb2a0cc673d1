package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/persistence/models"
)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// withAssociations preloads everything an organization response carries
func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Building").
		Preload("Phones", func(db *gorm.DB) *gorm.DB { return db.Order("phones.id ASC") }).
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("activities.id ASC") })
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id int64) (*directory.Organization, error) {
	var model models.OrganizationModel
	if err := withAssociations(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Organization")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNameAndBuilding finds an organization by exact name at a building
func (r *GormOrganizationRepository) FindByNameAndBuilding(ctx context.Context, name string, buildingID int64) (*directory.Organization, error) {
	var model models.OrganizationModel
	if err := withAssociations(r.db.WithContext(ctx)).
		Where("name = ? AND building_id = ?", name, buildingID).
		Order("id ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Organization")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists organizations matching the filter ordered by ID
func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter directory.OrganizationFilter, page shared.Page) ([]directory.Organization, error) {
	page = page.Normalize()
	query, err := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrganizationModel{}), filter)
	if err != nil {
		return nil, err
	}

	var rows []models.OrganizationModel
	if err := withAssociations(query).
		Select("organizations.*").
		Order("organizations.id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	organizations := make([]directory.Organization, 0, len(rows))
	for i := range rows {
		organizations = append(organizations, *rows[i].ToDomain())
	}
	return organizations, nil
}

// Count returns the number of organizations matching the filter
func (r *GormOrganizationRepository) Count(ctx context.Context, filter directory.OrganizationFilter) (int64, error) {
	query, err := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrganizationModel{}), filter)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies the organization filter to the query. A nil activity
// list leaves the query untouched while an empty one matches nothing.
func (r *GormOrganizationRepository) applyFilter(query *gorm.DB, filter directory.OrganizationFilter) (*gorm.DB, error) {
	if filter.BuildingID != nil {
		query = query.Where("organizations.building_id = ?", *filter.BuildingID)
	}

	if filter.ActivityIDs != nil {
		if len(filter.ActivityIDs) == 0 {
			query = query.Where("1 = 0")
		} else {
			query = query.Where("organizations.id IN (?)",
				r.db.Model(&models.OrganizationActivityModel{}).
					Select("organization_id").
					Where("activity_id IN ?", filter.ActivityIDs))
		}
	}

	if key := directory.SearchKey(filter.NameContains); key != "" {
		query = query.Where("organizations.search_name LIKE ? ESCAPE '\\'", "%"+escapeLike(key)+"%")
	}

	if loc := filter.Location; loc != nil {
		mode, err := loc.Mode()
		if err != nil {
			return nil, err
		}
		query = query.Joins("JOIN buildings ON buildings.id = organizations.building_id")
		switch mode {
		case directory.LocationRadius:
			r := *loc.Radius
			query = query.Where(
				"(buildings.latitude - ?) * (buildings.latitude - ?) + (buildings.longitude - ?) * (buildings.longitude - ?) <= ?",
				loc.Lat, loc.Lat, loc.Lon, loc.Lon, r*r)
		case directory.LocationBox:
			query = query.Where(
				"buildings.latitude BETWEEN ? AND ? AND buildings.longitude BETWEEN ? AND ?",
				*loc.MinLat, *loc.MaxLat, *loc.MinLon, *loc.MaxLon)
		}
	}

	return query, nil
}

// Save creates or updates an organization and replaces its phone and activity
// links in one transaction. The organization is reloaded with its associations.
func (r *GormOrganizationRepository) Save(ctx context.Context, organization *directory.Organization) error {
	model := models.OrganizationModelFromDomain(organization)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if organization.IsNew() {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("organization_id = ?", model.ID).
			Delete(&models.OrganizationPhoneModel{}).Error; err != nil {
			return err
		}
		if phones := models.PhoneLinks(model.ID, organization.Phones); len(phones) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&phones).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("organization_id = ?", model.ID).
			Delete(&models.OrganizationActivityModel{}).Error; err != nil {
			return err
		}
		if activities := models.ActivityLinks(model.ID, organization.Activities); len(activities) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&activities).Error; err != nil {
				return err
			}
		}

		reloaded := models.OrganizationModel{}
		if err := withAssociations(tx).First(&reloaded, "id = ?", model.ID).Error; err != nil {
			return err
		}
		*organization = *reloaded.ToDomain()
		return nil
	})
	return err
}

// Delete removes an organization and its links
func (r *GormOrganizationRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).
			Delete(&models.OrganizationPhoneModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).
			Delete(&models.OrganizationActivityModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrganizationModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Organization")
		}
		return nil
	})
}

var _ directory.OrganizationRepository = (*GormOrganizationRepository)(nil)
