package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/persistence/models"
)

// GormBuildingRepository implements BuildingRepository using GORM
type GormBuildingRepository struct {
	db *gorm.DB
}

// NewGormBuildingRepository creates a new GormBuildingRepository
func NewGormBuildingRepository(db *gorm.DB) *GormBuildingRepository {
	return &GormBuildingRepository{db: db}
}

// FindByID finds a building by its ID
func (r *GormBuildingRepository) FindByID(ctx context.Context, id int64) (*directory.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Building")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAddress finds the oldest building with the exact address
func (r *GormBuildingRepository) FindByAddress(ctx context.Context, address string) (*directory.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Order("id ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Building")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists buildings ordered by ID
func (r *GormBuildingRepository) FindAll(ctx context.Context, page shared.Page) ([]directory.Building, error) {
	page = page.Normalize()
	var rows []models.BuildingModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	buildings := make([]directory.Building, 0, len(rows))
	for i := range rows {
		buildings = append(buildings, *rows[i].ToDomain())
	}
	return buildings, nil
}

// Save creates or updates a building and copies generated fields back
func (r *GormBuildingRepository) Save(ctx context.Context, building *directory.Building) error {
	model := models.BuildingModelFromDomain(building)
	db := r.db.WithContext(ctx)

	var err error
	if building.IsNew() {
		err = db.Create(model).Error
	} else {
		err = db.Save(model).Error
	}
	if err != nil {
		return err
	}

	building.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// Delete removes a building by ID
func (r *GormBuildingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.BuildingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Building")
	}
	return nil
}

// HasOrganizations reports whether any organization references the building
func (r *GormBuildingRepository) HasOrganizations(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("building_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ directory.BuildingRepository = (*GormBuildingRepository)(nil)
