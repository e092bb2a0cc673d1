package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/infrastructure/persistence/models"
)

// GormPhoneRepository implements PhoneRepository using GORM
type GormPhoneRepository struct {
	db *gorm.DB
}

// NewGormPhoneRepository creates a new GormPhoneRepository
func NewGormPhoneRepository(db *gorm.DB) *GormPhoneRepository {
	return &GormPhoneRepository{db: db}
}

// GetOrCreate returns the phone with the given number, inserting it first when
// missing. Concurrent callers converge on the same row through the unique index.
func (r *GormPhoneRepository) GetOrCreate(ctx context.Context, number string) (*directory.Phone, error) {
	number, err := directory.NormalizePhoneNumber(number)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var model models.PhoneModel
	err = db.Where("number = ?", number).First(&model).Error
	if err == nil {
		phone := model.ToDomain()
		return &phone, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load phone: %w", err)
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoNothing: true,
	}).Create(&models.PhoneModel{Number: number}).Error; err != nil {
		return nil, fmt.Errorf("failed to insert phone: %w", err)
	}

	model = models.PhoneModel{}
	if err := db.Where("number = ?", number).First(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to load phone: %w", err)
	}

	phone := model.ToDomain()
	return &phone, nil
}

var _ directory.PhoneRepository = (*GormPhoneRepository)(nil)
