package directory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/cache"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// ActivityService handles the activity catalogue. Tree reads go through the
// catalogue cache, every write invalidates it.
type ActivityService struct {
	activityRepo directory.ActivityRepository
	cache        cache.ActivityCache
	metrics      *telemetry.DirectoryMetrics
	logger       *zap.Logger
}

// NewActivityService creates a new ActivityService. A nil cache disables caching.
func NewActivityService(activityRepo directory.ActivityRepository, activityCache cache.ActivityCache, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activityRepo: activityRepo,
		cache:        activityCache,
		logger:       logger,
	}
}

// SetMetrics sets the directory metrics recorder
func (s *ActivityService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// List retrieves a flat page of activities
func (s *ActivityService) List(ctx context.Context, page shared.Page) ([]ActivityResponse, error) {
	activities, err := s.activityRepo.FindAll(ctx, page.Normalize())
	if err != nil {
		return nil, err
	}
	return ToActivityResponses(activities), nil
}

// Tree returns the root activities with children nested down to maxLevel levels
func (s *ActivityService) Tree(ctx context.Context, maxLevel int) ([]ActivityNodeResponse, error) {
	if maxLevel < 1 {
		return []ActivityNodeResponse{}, nil
	}
	activities, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	roots := directory.BuildTree(activities, maxLevel)
	out := make([]ActivityNodeResponse, 0, len(roots))
	for _, root := range roots {
		out = append(out, ToActivityNodeResponse(root))
	}
	return out, nil
}

// Get retrieves an activity with its children
func (s *ActivityService) Get(ctx context.Context, id int64) (*ActivityNodeResponse, error) {
	if _, err := s.activityRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.withChildren(ctx, id)
}

// Create adds an activity to the catalogue
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*ActivityNodeResponse, error) {
	if req.ParentID != nil {
		if err := s.ensureParent(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}
	activity, err := directory.NewActivity(req.Name, req.ParentID, req.Level)
	if err != nil {
		return nil, err
	}
	if err := s.activityRepo.Save(ctx, activity); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.metrics.RecordWrite(ctx, telemetry.EntityActivity, telemetry.ActionCreate)

	return s.withChildren(ctx, activity.ID)
}

// Update applies a partial update. Moving an activity under itself or one of
// its descendants is rejected.
func (s *ActivityService) Update(ctx context.Context, id int64, req UpdateActivityRequest) (*ActivityNodeResponse, error) {
	activity, err := s.activityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := directory.ActivityPatch{Name: req.Name, Level: req.Level}
	if req.ParentID.Set {
		if req.ParentID.Value == nil {
			patch.ClearParent = true
		} else {
			patch.ParentID = req.ParentID.Value
		}
	}

	if patch.ParentID != nil && *patch.ParentID != id {
		if err := s.ensureParent(ctx, *patch.ParentID); err != nil {
			return nil, err
		}
		activities, err := s.catalogue(ctx)
		if err != nil {
			return nil, err
		}
		if directory.IsDescendant(activities, id, *patch.ParentID) {
			return nil, directory.ErrActivityCycle
		}
	}

	if err := activity.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.activityRepo.Save(ctx, activity); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.metrics.RecordWrite(ctx, telemetry.EntityActivity, telemetry.ActionUpdate)

	return s.withChildren(ctx, id)
}

// Delete removes an activity. Organization links go with it and children
// become roots.
func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.metrics.RecordWrite(ctx, telemetry.EntityActivity, telemetry.ActionDelete)
	return nil
}

// Descendants returns the activity ID and the IDs below it down to maxLevel levels
func (s *ActivityService) Descendants(ctx context.Context, id int64, maxLevel int) ([]int64, error) {
	return s.activityRepo.FindDescendantIDs(ctx, id, maxLevel)
}

func (s *ActivityService) ensureParent(ctx context.Context, parentID int64) error {
	if _, err := s.activityRepo.FindByID(ctx, parentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return directory.ErrInvalidParent
		}
		return err
	}
	return nil
}

func (s *ActivityService) withChildren(ctx context.Context, id int64) (*ActivityNodeResponse, error) {
	activities, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	node := directory.Subtree(activities, id, directory.MaxActivityDepth)
	if node == nil {
		return nil, shared.NewNotFoundError("Activity")
	}
	resp := ToActivityNodeResponse(node)
	return &resp, nil
}

// catalogue returns every activity, from the cache when possible. Cache
// failures fall back to the database.
func (s *ActivityService) catalogue(ctx context.Context) ([]directory.Activity, error) {
	if s.cache != nil {
		activities, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("activity cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(ctx, ok)
		if ok {
			return activities, nil
		}
	}

	activities, err := s.activityRepo.FindAllUnpaged(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, activities); err != nil {
			s.logger.Warn("activity cache write failed", zap.Error(err))
		}
	}
	return activities, nil
}

func (s *ActivityService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("activity cache invalidation failed", zap.Error(err))
	}
}
