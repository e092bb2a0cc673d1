package directory

import (
	"context"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// BuildingService handles building-related business operations
type BuildingService struct {
	buildingRepo directory.BuildingRepository
	metrics      *telemetry.DirectoryMetrics
}

// NewBuildingService creates a new BuildingService
func NewBuildingService(buildingRepo directory.BuildingRepository) *BuildingService {
	return &BuildingService{buildingRepo: buildingRepo}
}

// SetMetrics sets the directory metrics recorder
func (s *BuildingService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// Create registers a new building
func (s *BuildingService) Create(ctx context.Context, req CreateBuildingRequest) (*BuildingResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, shared.NewDomainError("INVALID_COORDINATES", "Latitude and longitude are required")
	}
	building, err := directory.NewBuilding(req.Address, *req.Latitude, *req.Longitude)
	if err != nil {
		return nil, err
	}
	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityBuilding, telemetry.ActionCreate)

	resp := ToBuildingResponse(building)
	return &resp, nil
}

// Get retrieves a building by ID
func (s *BuildingService) Get(ctx context.Context, id int64) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBuildingResponse(building)
	return &resp, nil
}

// List retrieves buildings ordered by ID
func (s *BuildingService) List(ctx context.Context, page shared.Page) ([]BuildingResponse, error) {
	buildings, err := s.buildingRepo.FindAll(ctx, page.Normalize())
	if err != nil {
		return nil, err
	}
	return ToBuildingResponses(buildings), nil
}

// Update applies a partial update to a building
func (s *BuildingService) Update(ctx context.Context, id int64, req UpdateBuildingRequest) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := building.Apply(directory.BuildingPatch{
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}); err != nil {
		return nil, err
	}
	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityBuilding, telemetry.ActionUpdate)

	resp := ToBuildingResponse(building)
	return &resp, nil
}

// Delete removes a building that no organization references
func (s *BuildingService) Delete(ctx context.Context, id int64) error {
	if _, err := s.buildingRepo.FindByID(ctx, id); err != nil {
		return err
	}
	used, err := s.buildingRepo.HasOrganizations(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return directory.ErrBuildingHasOrganizations
	}
	if err := s.buildingRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityBuilding, telemetry.ActionDelete)
	return nil
}
