package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/persistence/models"
)

// descendantsQuery walks the activity tree from a root, tracking depth so the
// walk stops at the requested level. It runs unchanged on PostgreSQL and SQLite.
const descendantsQuery = `WITH RECURSIVE activity_tree(id, depth) AS (
	SELECT id, 1 FROM activities WHERE id = ?
	UNION ALL
	SELECT a.id, t.depth + 1 FROM activities a
	JOIN activity_tree t ON a.parent_id = t.id
	WHERE t.depth < ?
)
SELECT DISTINCT id FROM activity_tree`

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// FindByID finds an activity by its ID
func (r *GormActivityRepository) FindByID(ctx context.Context, id int64) (*directory.Activity, error) {
	var model models.ActivityModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Activity")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the activities that exist among ids, in the order of ids.
// Unknown and repeated IDs are skipped.
func (r *GormActivityRepository) FindByIDs(ctx context.Context, ids []int64) ([]directory.Activity, error) {
	if len(ids) == 0 {
		return []directory.Activity{}, nil
	}

	var rows []models.ActivityModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.ActivityModel, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	activities := make([]directory.Activity, 0, len(rows))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			continue
		}
		activities = append(activities, *m.ToDomain())
		delete(byID, id)
	}
	return activities, nil
}

// FindByNameAndParent finds an activity by name under the given parent, or
// among the roots when parentID is nil
func (r *GormActivityRepository) FindByNameAndParent(ctx context.Context, name string, parentID *int64) (*directory.Activity, error) {
	query := r.db.WithContext(ctx).Where("name = ?", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var model models.ActivityModel
	if err := query.Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Activity")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists activities ordered by ID
func (r *GormActivityRepository) FindAll(ctx context.Context, page shared.Page) ([]directory.Activity, error) {
	page = page.Normalize()
	var rows []models.ActivityModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return activitiesToDomain(rows), nil
}

// FindAllUnpaged loads the whole catalogue ordered by ID
func (r *GormActivityRepository) FindAllUnpaged(ctx context.Context) ([]directory.Activity, error) {
	var rows []models.ActivityModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return activitiesToDomain(rows), nil
}

// FindDescendantIDs returns id and the IDs of its descendants down to maxLevel,
// where the activity itself counts as level 1. Unknown IDs yield an empty slice.
func (r *GormActivityRepository) FindDescendantIDs(ctx context.Context, id int64, maxLevel int) ([]int64, error) {
	if maxLevel < 1 {
		return []int64{}, nil
	}
	ids := make([]int64, 0)
	if err := r.db.WithContext(ctx).Raw(descendantsQuery, id, maxLevel).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates an activity and copies generated fields back
func (r *GormActivityRepository) Save(ctx context.Context, activity *directory.Activity) error {
	model := models.ActivityModelFromDomain(activity)
	db := r.db.WithContext(ctx)

	var err error
	if activity.IsNew() {
		err = db.Create(model).Error
	} else {
		err = db.Save(model).Error
	}
	if err != nil {
		return err
	}

	activity.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// Delete removes an activity. Its children become roots and its organization
// links are dropped.
func (r *GormActivityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ActivityModel{}).
			Where("parent_id = ?", id).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).
			Delete(&models.OrganizationActivityModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ActivityModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Activity")
		}
		return nil
	})
}

func activitiesToDomain(rows []models.ActivityModel) []directory.Activity {
	activities := make([]directory.Activity, 0, len(rows))
	for i := range rows {
		activities = append(activities, *rows[i].ToDomain())
	}
	return activities
}

var _ directory.ActivityRepository = (*GormActivityRepository)(nil)
